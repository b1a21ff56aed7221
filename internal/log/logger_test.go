package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogger_ComponentField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentLedger, Handler: slog.NewTextHandler(&buf, nil)})

	logger.InfoContext(context.Background(), "Transaction created", FieldUserID, "user-1")

	out := buf.String()
	for _, want := range []string{"component=ledger", "user_id=user-1", `msg="Transaction created"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestMiddleware_FromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentApp, Handler: slog.NewTextHandler(&buf, nil)})

	var got *Logger
	handler := Middleware(logger)(ComponentMiddleware(ComponentHTTP)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
		})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("FromContext() component = %v, want %s", got, ComponentHTTP)
	}

	if fallback := FromContext(context.Background()); fallback.Component() != "unknown" {
		t.Errorf("FromContext(empty) component = %q, want unknown", fallback.Component())
	}
}

func TestLogFields(t *testing.T) {
	fields := NewFields().
		WithUser("user-1").
		WithTransaction("tx-1", "Alquiler", 80000, "fixed_expense", "Vivienda").
		WithError(nil)

	if _, ok := fields[FieldError]; ok {
		t.Error("WithError(nil) should not set the error field")
	}
	if fields[FieldAmountCents] != int64(80000) {
		t.Errorf("amount = %v, want 80000", fields[FieldAmountCents])
	}
	if len(fields.ToSlice()) != 2*len(fields) {
		t.Errorf("ToSlice() length = %d, want %d", len(fields.ToSlice()), 2*len(fields))
	}
}
