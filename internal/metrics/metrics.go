package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP records request counts and latencies for a gin router.
type HTTP struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTP(reg prometheus.Registerer) *HTTP {
	m := &HTTP{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *HTTP) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.duration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Fulfillment counts stock reconciliation outcomes and read-path fallbacks.
// A nil *Fulfillment is valid and records nothing.
type Fulfillment struct {
	adjustments *prometheus.CounterVec
	failures    *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
}

func NewFulfillment(reg prometheus.Registerer) *Fulfillment {
	m := &Fulfillment{
		adjustments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stock_adjustments_total",
				Help: "Stock adjustments sent to the inventory store, by outcome",
			},
			[]string{"outcome"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciliation_failures_total",
				Help: "Order operations that left inventory partially adjusted",
			},
			[]string{"operation"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "detail_fallbacks_total",
				Help: "Order detail fields replaced by a sentinel value",
			},
			[]string{"field"},
		),
	}
	reg.MustRegister(m.adjustments, m.failures, m.fallbacks)
	return m
}

func (m *Fulfillment) AdjustmentApplied() {
	if m != nil {
		m.adjustments.WithLabelValues("applied").Inc()
	}
}

func (m *Fulfillment) AdjustmentFailed() {
	if m != nil {
		m.adjustments.WithLabelValues("failed").Inc()
	}
}

func (m *Fulfillment) ReconciliationFailed(operation string) {
	if m != nil {
		m.failures.WithLabelValues(operation).Inc()
	}
}

func (m *Fulfillment) Fallback(field string) {
	if m != nil {
		m.fallbacks.WithLabelValues(field).Inc()
	}
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
