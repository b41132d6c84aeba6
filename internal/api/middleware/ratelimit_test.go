package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	// Near-zero refill rate: only the burst allowance is spendable.
	rl := NewRateLimiter(0.001, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d within burst was denied", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("request beyond burst was allowed")
	}
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first client's first request was denied")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("first client's second request was allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("second client was throttled by the first client's bucket")
	}
}

func TestRateLimit_ExhaustedBucketReturns429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(NewRateLimiter(0.001, 1)))
	r.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", w.Code)
	}
	if body := w.Body.String(); body == "" || body[0] != '{' {
		t.Errorf("expected JSON error body, got %q", body)
	}
}
