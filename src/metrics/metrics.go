package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
	MeetingEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meeting_events_total",
		Help: "Committed meeting changes by event type",
	}, []string{"event"})
	BookingConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meeting_booking_conflicts_total",
		Help: "Booking attempts rejected because the room was taken",
	})
)

func init() {
	prometheus.MustRegister(HttpRequestsTotal, HttpRequestDuration, MeetingEventsTotal, BookingConflictsTotal)
}

func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
