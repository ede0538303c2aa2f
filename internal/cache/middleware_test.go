package cache

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/reservahub/internal/admission"
)

func staticKey(key string) KeyFunc {
	return func(*http.Request) string { return key }
}

func TestResponseCacheMiddleware(t *testing.T) {
	t.Run("miss runs handler and populates cache", func(t *testing.T) {
		store := NewMemoryStore()
		tc := newTestTiered(store)

		var calls int64
		h := Middleware(tc, staticKey("reports"), time.Minute, zap.NewNop())(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt64(&calls, 1)
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"n":1}`))
			}),
		)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/reports/usage", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "MISS", rec.Header().Get("X-Cache"))
		require.Equal(t, int64(1), atomic.LoadInt64(&calls))

		// Заполнение fire-and-forget — дожидаемся записи
		require.Eventually(t, func() bool {
			_, ok := tc.Get(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "reports")
			return ok
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("hit short-circuits business logic", func(t *testing.T) {
		tc := newTestTiered(NewMemoryStore())

		var calls int64
		h := Middleware(tc, staticKey("reports"), time.Minute, zap.NewNop())(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt64(&calls, 1)
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"n":1}`))
			}),
		)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/reports/usage", nil))
		require.Eventually(t, func() bool {
			_, ok := tc.Get(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "reports")
			return ok
		}, time.Second, 10*time.Millisecond)

		rec2 := httptest.NewRecorder()
		h.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/v1/reports/usage", nil))

		require.Equal(t, "HIT", rec2.Header().Get("X-Cache"))
		require.Equal(t, `{"n":1}`, rec2.Body.String())
		require.Equal(t, "application/json", rec2.Header().Get("Content-Type"))
		require.Equal(t, int64(1), atomic.LoadInt64(&calls), "handler must not run on hit")
	})

	t.Run("saturated request with cached value is served from cache", func(t *testing.T) {
		tc := newTestTiered(NewMemoryStore())

		var calls int64
		h := Middleware(tc, staticKey("reports"), time.Minute, zap.NewNop())(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt64(&calls, 1)
				w.Write([]byte("fresh"))
			}),
		)

		// Прогреваем кэш обычным запросом
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
		require.Eventually(t, func() bool {
			_, ok := tc.Get(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "reports")
			return ok
		}, time.Second, 10*time.Millisecond)

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req = req.WithContext(admission.WithSaturated(req.Context()))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, "HIT", rec.Header().Get("X-Cache"))
		require.Equal(t, int64(1), atomic.LoadInt64(&calls))
	})

	t.Run("saturated request without cached value falls through", func(t *testing.T) {
		tc := newTestTiered(NewMemoryStore())

		var calls int64
		h := Middleware(tc, staticKey("cold"), time.Minute, zap.NewNop())(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt64(&calls, 1)
				w.Write([]byte("fresh"))
			}),
		)

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req = req.WithContext(admission.WithSaturated(req.Context()))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, int64(1), atomic.LoadInt64(&calls))
		require.Equal(t, "fresh", rec.Body.String())
	})

	t.Run("mutating methods bypass the cache", func(t *testing.T) {
		tc := newTestTiered(NewMemoryStore())

		var calls int64
		h := Middleware(tc, staticKey("reports"), time.Minute, zap.NewNop())(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt64(&calls, 1)
			}),
		)

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", nil))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", nil))
		require.Equal(t, int64(2), atomic.LoadInt64(&calls))
	})

	t.Run("non-200 responses are not cached", func(t *testing.T) {
		tc := newTestTiered(NewMemoryStore())

		h := Middleware(tc, staticKey("errors"), time.Minute, zap.NewNop())(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			}),
		)

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

		time.Sleep(50 * time.Millisecond)
		_, ok := tc.Get(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "errors")
		require.False(t, ok)
	})
}
