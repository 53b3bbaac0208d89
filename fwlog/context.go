package fwlog

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/propagation"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// GenerateRequestID returns a short random request identifier, falling back
// to a timestamp-derived one if the OS entropy source is unavailable.
func GenerateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(buf)
}

// WithRequestID attaches requestID to ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID attached by WithRequestID, or
// "" if none was set.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// FromContext returns l annotated with the request ID carried by ctx, if
// any; otherwise it returns l unchanged.
func (l *Logger) FromContext(ctx context.Context) *slog.Logger {
	if id := RequestIDFromContext(ctx); id != "" {
		return l.Logger.With("request_id", id)
	}
	return l.Logger
}

// HeaderCarrier adapts an http.Header to otel's propagation.TextMapCarrier so
// trace context can ride along on outbound/inbound HTTP headers.
type HeaderCarrier http.Header

var _ propagation.TextMapCarrier = HeaderCarrier{}

func (h HeaderCarrier) Get(key string) string {
	return http.Header(h).Get(key)
}

func (h HeaderCarrier) Set(key, value string) {
	http.Header(h).Set(key, value)
}

func (h HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	return keys
}
