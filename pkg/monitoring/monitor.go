package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	InferenceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inference_request_duration_seconds",
			Help:    "Latency of calls to the sign recognition service",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"endpoint"},
	)

	InferenceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inference_request_failures_total",
			Help: "Failed calls to the sign recognition service",
		},
		[]string{"endpoint"},
	)

	TranscriptAdditions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recognition_transcript_additions_total",
			Help: "Stable signs appended to recognition transcripts",
		},
	)

	ActiveRecognitionSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "recognition_active_sessions",
			Help: "Live recognition sessions held in memory",
		},
	)

	QuizCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_completions_total",
			Help: "Finished quiz sessions by grade",
		},
		[]string{"grade"},
	)

	initOnce sync.Once
)

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			InferenceDuration,
			InferenceFailures,
			TranscriptAdditions,
			ActiveRecognitionSessions,
			QuizCompletions,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
