package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the service
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	WorkspacesCreated prometheus.Counter
	InvitationsSent   prometheus.Counter
	InvitationsSwept  prometheus.Counter
}

// New registers and returns the service metrics
func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tesseract",
				Subsystem: "workspace",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tesseract",
				Subsystem: "workspace",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		WorkspacesCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tesseract",
				Subsystem: "workspace",
				Name:      "workspaces_created_total",
				Help:      "Total number of workspaces created",
			},
		),
		InvitationsSent: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tesseract",
				Subsystem: "workspace",
				Name:      "invitations_sent_total",
				Help:      "Total number of member invitations sent",
			},
		),
		InvitationsSwept: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tesseract",
				Subsystem: "workspace",
				Name:      "invitations_expired_total",
				Help:      "Total number of invitations expired by the background sweep",
			},
		),
	}
}

// Middleware records request counts and latency per route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Use the route template so path cardinality stays bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		status := strconv.Itoa(c.Writer.Status())
		m.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
