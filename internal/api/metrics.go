// internal/api/metrics.go
package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 请求量和耗时指标，/metrics 端点由 promhttp 暴露
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsummarizer_http_requests_total",
			Help: "Total HTTP requests handled, by path, method and status.",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docsummarizer_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	capabilityFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsummarizer_capability_failures_total",
			Help: "External capability failures, by capability name.",
		},
		[]string{"capability"},
	)
)

// RecordCapabilityFailure 记录一次外部能力调用失败
// capability: "document_intelligence" | "text_analytics" | "abstractive"
func RecordCapabilityFailure(capability string) {
	capabilityFailuresTotal.WithLabelValues(capability).Inc()
}

// metricsMiddleware 统计每个路由的请求数和耗时
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
