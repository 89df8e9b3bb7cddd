package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func rateLimitRouter(rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(APIKeyAuth([]string{"key-a", "key-b"}))
	r.Use(RateLimit(rps, burst))
	r.GET("/limited", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func doRequest(r *gin.Engine, key string) int {
	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	req.Header.Set("X-API-Key", key)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_AllowsWithinBurst(t *testing.T) {
	r := rateLimitRouter(1, 3)

	for i := 0; i < 3; i++ {
		if code := doRequest(r, "key-a"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, code)
		}
	}
}

func TestRateLimit_RejectsBeyondBurst(t *testing.T) {
	// Near-zero refill so the bucket cannot recover mid-test.
	r := rateLimitRouter(0.001, 2)

	doRequest(r, "key-a")
	doRequest(r, "key-a")
	if code := doRequest(r, "key-a"); code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", code)
	}
}

func TestRateLimit_BucketsPerKey(t *testing.T) {
	r := rateLimitRouter(0.001, 1)

	doRequest(r, "key-a")
	if code := doRequest(r, "key-a"); code != http.StatusTooManyRequests {
		t.Fatalf("second request on key-a = %d, want 429", code)
	}
	if code := doRequest(r, "key-b"); code != http.StatusOK {
		t.Errorf("key-b should have its own bucket, got %d", code)
	}
}

func TestRateLimit_SkipsUnauthenticatedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// No auth middleware, so no API key in the context.
	r.Use(RateLimit(0.001, 1))
	r.GET("/open", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}
}
