package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (*Result, error) {
	return nil, errors.New("redis down")
}

func limitedRequest(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/checkin", nil)
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, "Mozilla/5.0"))
}

func TestMiddleware(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("allows under the limit and blocks over it", func(t *testing.T) {
		mw := Middleware(NewMemoryStore(), Config{Enabled: true, Limit: 2, Window: time.Minute}, slog.Default())
		handler := mw(okHandler)

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, limitedRequest("203.0.113.7"))
			require.Equal(t, http.StatusNoContent, w.Code)
		}

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, limitedRequest("203.0.113.7"))
		require.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "rate_limited")
	})

	t.Run("limits are per client IP", func(t *testing.T) {
		mw := Middleware(NewMemoryStore(), Config{Enabled: true, Limit: 1, Window: time.Minute}, slog.Default())
		handler := mw(okHandler)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, limitedRequest("203.0.113.7"))
		require.Equal(t, http.StatusNoContent, w.Code)

		w = httptest.NewRecorder()
		handler.ServeHTTP(w, limitedRequest("203.0.113.8"))
		require.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("disabled passes everything through", func(t *testing.T) {
		mw := Middleware(NewMemoryStore(), Config{Enabled: false, Limit: 0}, slog.Default())
		handler := mw(okHandler)

		for i := 0; i < 5; i++ {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, limitedRequest("203.0.113.7"))
			require.Equal(t, http.StatusNoContent, w.Code)
		}
	})

	t.Run("store failure fails open", func(t *testing.T) {
		mw := Middleware(failingStore{}, Config{Enabled: true, Limit: 1, Window: time.Minute}, slog.Default())
		handler := mw(okHandler)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, limitedRequest("203.0.113.7"))
		require.Equal(t, http.StatusNoContent, w.Code)
	})
}
