package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's collectors on their own registry so several
// servers (tests included) never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	predictions *prometheus.CounterVec
	records     prometheus.Histogram
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fraud",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "handler", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fraud",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"method", "handler"}),
		predictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fraud",
			Subsystem: "model",
			Name:      "predictions_total",
			Help:      "Predictions served by label",
		}, []string{"label"}),
		records: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fraud",
			Subsystem: "api",
			Name:      "records_per_request",
			Help:      "Records per prediction request",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 7),
		}),
	}
}

// middleware records request count and latency per route.
func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		handler := c.FullPath()
		if handler == "" {
			handler = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, handler, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, handler).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) observePredictions(labels []string) {
	m.records.Observe(float64(len(labels)))
	for _, l := range labels {
		m.predictions.WithLabelValues(l).Inc()
	}
}

func (m *Metrics) handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
