// Package metrics defines the Prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "precedents",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "precedents",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	// ReadsRecorded counts precedents marked read
	ReadsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "precedents",
		Name:      "reads_recorded_total",
		Help:      "Read events recorded.",
	})

	// AnswersRecorded counts self-check answers by outcome
	AnswersRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "precedents",
		Name:      "answers_recorded_total",
		Help:      "Self-check answers recorded by outcome.",
	}, []string{"correct"})

	// RemindersSent counts study reminders by result
	RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "precedents",
		Name:      "reminders_sent_total",
		Help:      "Study reminders by result.",
	}, []string{"result"})

	// ImportedRows counts spreadsheet rows by outcome
	ImportedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "precedents",
		Name:      "import_rows_total",
		Help:      "Imported precedent rows by outcome.",
	}, []string{"outcome"})
)

// Middleware records request counts and latency per route template
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// RecordAnswer counts an answer outcome
func RecordAnswer(correct bool) {
	AnswersRecorded.WithLabelValues(strconv.FormatBool(correct)).Inc()
}
