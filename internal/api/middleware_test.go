package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// 全局限流器在测试间共享，每个用例使用独立的key避免互相干扰

func newRateLimitedRouter(limit int, window time.Duration, key string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(limit, window, func(c *gin.Context) string { return key }))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestRateLimitMiddleware_ExhaustedWindowReturns429(t *testing.T) {
	router := newRateLimitedRouter(3, time.Minute, "exhaustion-case")

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d within limit: expected 200, got %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after window exhausted, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "60" {
		t.Errorf("expected Retry-After 60, got %q", got)
	}
	if !strings.Contains(w.Body.String(), "Rate limit exceeded") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter()

	if !rl.Allow("first-client", 1, time.Minute) {
		t.Fatal("expected first request to pass")
	}
	if rl.Allow("first-client", 1, time.Minute) {
		t.Error("expected second request on same key to be rejected")
	}
	if !rl.Allow("second-client", 1, time.Minute) {
		t.Error("expected other key to have its own window")
	}
}

func TestRateLimiter_WindowExpiryRestoresQuota(t *testing.T) {
	rl := NewRateLimiter()

	if !rl.Allow("expiry-case", 1, 10*time.Millisecond) {
		t.Fatal("expected first request to pass")
	}
	if rl.Allow("expiry-case", 1, 10*time.Millisecond) {
		t.Fatal("expected quota to be spent")
	}

	time.Sleep(20 * time.Millisecond)

	if !rl.Allow("expiry-case", 1, 10*time.Millisecond) {
		t.Error("expected quota to reset after the window expired")
	}
}

func TestMetricsMiddleware_CountsByRouteAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(metricsMiddleware())
	r.GET("/counted", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/counted", "GET", "200"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/counted", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/counted", "GET", "200"))
	if after-before != 1 {
		t.Errorf("expected counter delta 1, got %v", after-before)
	}

	// 未匹配的路由归到unmatched标签，避免路径基数爆炸
	before = testutil.ToFloat64(httpRequestsTotal.WithLabelValues("unmatched", "GET", "404"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/no/such/route", nil))
	after = testutil.ToFloat64(httpRequestsTotal.WithLabelValues("unmatched", "GET", "404"))
	if after-before != 1 {
		t.Errorf("expected unmatched counter delta 1, got %v", after-before)
	}
}

func TestRecordCapabilityFailure(t *testing.T) {
	before := testutil.ToFloat64(capabilityFailuresTotal.WithLabelValues("document_intelligence"))
	RecordCapabilityFailure("document_intelligence")
	after := testutil.ToFloat64(capabilityFailuresTotal.WithLabelValues("document_intelligence"))

	if after-before != 1 {
		t.Errorf("expected failure counter delta 1, got %v", after-before)
	}
}
