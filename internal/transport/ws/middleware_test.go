package ws

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferedLogger(buf *strings.Builder) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestWithRequestLogging(t *testing.T) {
	tests := []struct {
		handler       http.HandlerFunc
		name          string
		path          string
		expectedLevel string
		expectedCode  int
	}{
		{
			name: "ok is debug",
			path: "/sync",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			expectedCode:  http.StatusOK,
			expectedLevel: "DEBUG",
		},
		{
			name: "client error is warn",
			path: "/sync",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
			expectedCode:  http.StatusBadRequest,
			expectedLevel: "WARN",
		},
		{
			name: "server error is error",
			path: "/other",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			expectedCode:  http.StatusInternalServerError,
			expectedLevel: "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf strings.Builder
			handler := withRequestLogging(newBufferedLogger(&buf))(tt.handler)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			out := buf.String()
			assert.Contains(t, out, "HTTP request")
			assert.Contains(t, out, tt.path)
			assert.Contains(t, out, tt.expectedLevel)
		})
	}
}

func TestWithRequestLogging_Skip(t *testing.T) {
	var buf strings.Builder
	handler := withRequestLogging(newBufferedLogger(&buf), "/health")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, buf.String())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sync", nil))
	assert.Contains(t, buf.String(), "/sync")
}

func TestStatusRecorder_Unwrap(t *testing.T) {
	w := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: w}
	assert.Same(t, w, rec.Unwrap())

	// httptest.ResponseRecorder не поддерживает Hijack
	_, _, err := rec.Hijack()
	assert.Error(t, err)
	assert.False(t, rec.hijacked)
}

func TestWithRecovery(t *testing.T) {
	var buf strings.Builder
	handler := withRecovery(newBufferedLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sync", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal Server Error")
	assert.Contains(t, buf.String(), "Panic recovered")
	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), "stack")
}

func TestWithRecovery_NoPanic(t *testing.T) {
	var buf strings.Builder
	handler := withRecovery(newBufferedLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, buf.String())
}
