// Package fwlog builds the framework's process-wide structured logger and
// its optional trace export pipeline (spec §4.3).
package fwlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vitaliisemenov/corefx/fwconfig"
)

// Logger is the framework's logging/tracing handle. It wraps a *slog.Logger
// whose verbosity can be adjusted in place via UpdateConfig, plus (when
// configured) an OTLP trace exporter wired into the global tracer provider.
type Logger struct {
	*slog.Logger

	mu       sync.Mutex
	level    *slog.LevelVar
	provider *sdktrace.TracerProvider
}

var (
	initOnce sync.Once
	initErr  error
	instance *Logger
)

// Init builds the process-wide Logger exactly once (spec: "at most once").
// Subsequent calls return the first instance and ignore cfg.
func Init(appName string, cfg fwconfig.LogConfig) (*Logger, error) {
	initOnce.Do(func() {
		instance, initErr = New(appName, cfg)
	})
	return instance, initErr
}

// New builds a standalone Logger, bypassing the process-wide singleton.
// Most callers want Init; New exists for tests and for multi-tenant hosts
// that need more than one independently configured logger.
func New(appName string, cfg fwconfig.LogConfig) (*Logger, error) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(cfg.Level))

	writer := setupWriter(cfg)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level.Level() == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	l := &Logger{
		Logger: slog.New(handler),
		level:  level,
	}

	if cfg.OTLPEndpoint != "" {
		provider, err := buildTracerProvider(appName, cfg)
		if err != nil {
			return nil, fmt.Errorf("building trace provider: %w", err)
		}
		l.provider = provider
		otel.SetTracerProvider(provider)
	}

	return l, nil
}

// UpdateConfig applies a new LogConfig to the running Logger: the level
// filter is adjusted in place and, whenever an OTLP endpoint is configured,
// the exporter is rebuilt and swapped. Any single failure aborts the whole update and is
// returned to the caller; the Logger is left exactly as it was before the
// call (spec §4.3 "applies... any single failure aborts the whole update").
func (l *Logger) UpdateConfig(appName string, cfg fwconfig.LogConfig) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cfg.OTLPEndpoint == "" {
		l.level.Set(parseLevel(cfg.Level))
		return nil
	}

	provider, err := buildTracerProvider(appName, cfg)
	if err != nil {
		return fmt.Errorf("rebuilding trace provider: %w", err)
	}
	l.level.Set(parseLevel(cfg.Level))

	old := l.provider
	l.provider = provider
	otel.SetTracerProvider(provider)

	if old != nil {
		// Best-effort drain of the replaced provider; its failure doesn't
		// invalidate the swap that already happened.
		_ = old.Shutdown(context.Background())
	}
	return nil
}

// Shutdown drains the trace exporter, if any.
func (l *Logger) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.provider == nil {
		return nil
	}
	return l.provider.Shutdown(ctx)
}

func buildTracerProvider(appName string, cfg fwconfig.LogConfig) (*sdktrace.TracerProvider, error) {
	ctx := context.Background()

	var exporter sdktrace.SpanExporter
	var err error
	if strings.EqualFold(cfg.OTLPProtocol, "http/protobuf") {
		exporter, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint), otlptracehttp.WithInsecure())
	} else {
		exporter, err = otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint), otlptracegrpc.WithInsecure())
	}
	if err != nil {
		return nil, fmt.Errorf("building otlp exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(appName),
	))
	if err != nil {
		return nil, fmt.Errorf("building otel resource: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupWriter(cfg fwconfig.LogConfig) io.Writer {
	base := io.Writer(os.Stdout)
	if cfg.RollingFilePath != "" {
		base = &lumberjack.Logger{
			Filename:   cfg.RollingFilePath,
			MaxSize:    cfg.RollingFileMaxMB,
			MaxBackups: cfg.RollingBackups,
			MaxAge:     cfg.RollingFileMaxAge,
			Compress:   cfg.Compress,
		}
	}
	if !cfg.AsyncConsole {
		return base
	}
	return newAsyncWriter(base)
}
