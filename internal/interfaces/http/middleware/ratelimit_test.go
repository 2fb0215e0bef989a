package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/brandlive/storesync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, limit int, per time.Duration) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(limit, per)
	t.Cleanup(rl.Stop)
	return rl
}

func TestRateLimiter(t *testing.T) {
	t.Run("blocks requests exceeding limit", func(t *testing.T) {
		limiter := newTestLimiter(t, 3, time.Minute)

		for i := range 3 {
			remaining, _, ok := limiter.Allow("10.0.0.1")
			assert.True(t, ok)
			assert.Equal(t, 2-i, remaining)
		}

		_, retryAfter, ok := limiter.Allow("10.0.0.1")
		assert.False(t, ok)
		assert.Greater(t, retryAfter, 59*time.Second)
	})

	t.Run("separate limits per key", func(t *testing.T) {
		limiter := newTestLimiter(t, 1, time.Minute)

		_, _, ok := limiter.Allow("a")
		assert.True(t, ok)
		_, _, ok = limiter.Allow("a")
		assert.False(t, ok)
		_, _, ok = limiter.Allow("b")
		assert.True(t, ok)
	})

	t.Run("resets after window", func(t *testing.T) {
		limiter := newTestLimiter(t, 1, 50*time.Millisecond)

		_, _, ok := limiter.Allow("c")
		assert.True(t, ok)
		_, _, ok = limiter.Allow("c")
		assert.False(t, ok)

		time.Sleep(60 * time.Millisecond)

		_, _, ok = limiter.Allow("c")
		assert.True(t, ok)
	})

	t.Run("concurrent callers never exceed limit", func(t *testing.T) {
		limiter := newTestLimiter(t, 10, time.Minute)

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, _, ok := limiter.Allow("shared"); ok {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 10, allowed)
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		limiter.Stop()
		assert.NotPanics(t, limiter.Stop)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := newTestLimiter(t, 2, time.Minute)
	router := gin.New()
	router.Use(RequestID(), RateLimit(limiter))
	router.POST("/stores/woocommerce/connect", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/stores/woocommerce/connect", nil)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := send("192.168.1.10")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, send("192.168.1.10").Code)

	blocked := send("192.168.1.10")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "60", blocked.Header().Get("Retry-After"))
	assert.Contains(t, blocked.Body.String(), dto.ErrCodeRateLimited)

	assert.Equal(t, http.StatusOK, send("192.168.1.11").Code)
}
