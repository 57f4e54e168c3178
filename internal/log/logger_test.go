package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentHTTP, Output: &buf})
	logger.WithComponent(ComponentCounter).Info("hello", FieldDenominationID, "krw_1000")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec[FieldComponent] != ComponentCounter {
		t.Errorf("component = %v, want %s", rec[FieldComponent], ComponentCounter)
	}
	if strings.Count(buf.String(), `"component"`) != 1 {
		t.Errorf("component attribute duplicated: %s", buf.String())
	}
	if rec[FieldDenominationID] != "krw_1000" {
		t.Errorf("missing denomination id: %v", rec)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info record written at warn level: %q", buf.String())
	}
}

func TestMiddlewareAndFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Output: &buf, Component: "test"})

	var got *Logger
	h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got != logger {
		t.Fatalf("expected request logger from context")
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Errorf("expected fallback logger without context value")
	}
	if _, ok := Lookup(context.Background()); ok {
		t.Errorf("Lookup reported a logger on an empty context")
	}
}

func TestLogCountChanged(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, Output: &buf}))
	sl.LogCountChanged(context.Background(), "sess", "krw_500", "loose", "inc", 41)

	out := buf.String()
	for _, want := range []string{"denomination_id=krw_500", "field=loose", "op=inc", "total_units=41", "session_id=sess"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}
