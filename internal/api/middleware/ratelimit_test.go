package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func throttledEcho(rps float64, burst int) *echo.Echo {
	e := echo.New()
	e.Use(RateLimiterWithLimiter(NewIPRateLimiter(rate.Limit(rps), burst), nil))
	e.GET("/test", func(c echo.Context) error {
		return c.String(http.StatusOK, "success")
	})
	return e
}

func serve(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if ip != "" {
		req.Header.Set("X-Real-IP", ip)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_WithinLimit(t *testing.T) {
	e := throttledEcho(10, 20)

	assert.Equal(t, http.StatusOK, serve(e, "").Code)
}

func TestRateLimiter_ExceedsLimit(t *testing.T) {
	e := throttledEcho(1, 1)

	assert.Equal(t, http.StatusOK, serve(e, "").Code)
	rec := serve(e, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_PerIPIsolation(t *testing.T) {
	e := throttledEcho(1, 1)

	assert.Equal(t, http.StatusOK, serve(e, "192.168.1.1").Code)
	assert.Equal(t, http.StatusOK, serve(e, "192.168.1.2").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(e, "192.168.1.1").Code)
}

func TestRateLimiter_BurstAllowed(t *testing.T) {
	e := throttledEcho(1, 5)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(e, "").Code, "Request %d should pass", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(e, "").Code)
}

func TestIPRateLimiter_GetLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(10, 20)

	l1 := limiter.GetLimiter("192.168.1.1")
	assert.NotNil(t, l1)
	assert.Same(t, l1, limiter.GetLimiter("192.168.1.1"))
	assert.NotSame(t, l1, limiter.GetLimiter("192.168.1.2"))
}

func TestIPRateLimiter_CleanupDropsOnlyIdleClients(t *testing.T) {
	limiter := NewIPRateLimiter(10, 20)
	clock := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	limiter.GetLimiter("192.168.1.1")
	clock = clock.Add(15 * time.Minute)
	limiter.GetLimiter("192.168.1.2")

	removed := limiter.CleanupOldEntries(10 * time.Minute)

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, limiter.Len())
}
