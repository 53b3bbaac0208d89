package fwlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/vitaliisemenov/corefx/fwconfig"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewWithJSONFormatBuildsLogger(t *testing.T) {
	l, err := New("test-app", fwconfig.LogConfig{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if l.Logger == nil {
		t.Fatal("expected a non-nil slog.Logger")
	}
}

func TestUpdateConfigChangesLevelInPlace(t *testing.T) {
	l, err := New("test-app", fwconfig.LogConfig{Level: "error", Format: "json"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if l.level.Level() != slog.LevelError {
		t.Fatalf("expected initial level Error, got %v", l.level.Level())
	}
	if err := l.UpdateConfig("test-app", fwconfig.LogConfig{Level: "debug", Format: "json"}); err != nil {
		t.Fatalf("UpdateConfig returned error: %v", err)
	}
	if l.level.Level() != slog.LevelDebug {
		t.Fatalf("expected updated level Debug, got %v", l.level.Level())
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req_abc123")
	if got := RequestIDFromContext(ctx); got != "req_abc123" {
		t.Errorf("RequestIDFromContext = %q, want req_abc123", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("RequestIDFromContext on bare context = %q, want empty", got)
	}
}

func TestFromContextAttachesRequestID(t *testing.T) {
	l, err := New("test-app", fwconfig.LogConfig{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := WithRequestID(context.Background(), "req_xyz")
	annotated := l.FromContext(ctx)
	if annotated == l.Logger {
		t.Error("expected FromContext to return an annotated logger, not the base logger")
	}
}

func TestGenerateRequestIDIsUnique(t *testing.T) {
	a := GenerateRequestID()
	b := GenerateRequestID()
	if a == b {
		t.Errorf("expected distinct request IDs, got %q twice", a)
	}
}

func TestHeaderCarrierSetAndGet(t *testing.T) {
	h := HeaderCarrier{}
	h.Set("traceparent", "00-abc-def-01")
	if got := h.Get("traceparent"); got != "00-abc-def-01" {
		t.Errorf("Get(traceparent) = %q, want 00-abc-def-01", got)
	}
	keys := h.Keys()
	if len(keys) != 1 || keys[0] != "Traceparent" {
		t.Errorf("Keys() = %v, want [Traceparent]", keys)
	}
}

func TestAsyncWriterWritesThrough(t *testing.T) {
	var buf bytes.Buffer
	w := newAsyncWriter(&buf)
	if _, err := w.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if buf.String() != "hello\n" {
		t.Errorf("buf = %q, want %q", buf.String(), "hello\n")
	}
}
