package log

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Component: ComponentStore, Output: &buf})

	logger.Info("Loaded expenses", FieldCount, 2)
	logger.Debug("hidden")
	logger.WithComponent(ComponentHTTP).With(FieldRequestID, "abc").Warn("Slow request")

	out := buf.String()
	assert.Contains(t, out, "component=store")
	assert.Contains(t, out, "count=2")
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "component=http")
	assert.Contains(t, out, "request_id=abc")
	assert.Equal(t, ComponentStore, logger.Component())
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithExpense(7, "Coffee", 350, "Food").
		WithOperation(OpCreate).
		WithError(errors.New("boom")).
		WithHTTPResponse(201, 12)

	assert.Equal(t, int64(7), f[FieldExpenseID])
	assert.Equal(t, "boom", f[FieldError])
	assert.Equal(t, OpCreate, f[FieldOperation])
	assert.Equal(t, 201, f[FieldStatusCode])
	assert.Len(t, f.ToSlice(), len(f)*2)

	assert.NotContains(t, NewFields().WithError(nil), FieldError)
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Component: ComponentApp, Output: &buf})

	var seen *Logger
	h := RequestIDMiddleware(base, func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = FromContext(r.Context())
			seen.InfoContext(r.Context(), "handled")
		}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, seen)
	assert.Equal(t, "req-1", rr.Header().Get("X-Request-ID"))
	assert.Equal(t, ComponentHTTP, seen.Component())
	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, "request_id=req-1")
	assert.Contains(t, line, "component=http")
}

func TestFromContextWithoutLogger(t *testing.T) {
	l := FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	require.NotNil(t, l)
	assert.Equal(t, "unknown", l.Component())
}
