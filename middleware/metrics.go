package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type httpMetrics struct {
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var (
	httpMetricsInstance *httpMetrics
	httpMetricsOnce     sync.Once
)

func newHTTPMetrics() *httpMetrics {
	httpMetricsOnce.Do(func() {
		httpMetricsInstance = &httpMetrics{
			requestCount: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			}, []string{"method", "route", "status"}),
			requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			}, []string{"method", "route"}),
		}
	})
	return httpMetricsInstance
}

// RequestMetrics records request counts and latency per route. Routes are
// labeled by their registered pattern, not the raw path, to keep label
// cardinality bounded.
func RequestMetrics() gin.HandlerFunc {
	m := newHTTPMetrics()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.requestCount.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).
			Observe(time.Since(start).Seconds())
	}
}
