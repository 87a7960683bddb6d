// infrastructure/metrics/prometheus.go
package metrics

import (
	"mime"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vitovidale/video-publisher-service/domain"
)

// PrometheusMetrics records pipeline events under the given namespace.
type PrometheusMetrics struct {
	uploadsTotal     *prometheus.CounterVec
	uploadBytes      prometheus.Histogram
	transitionsTotal *prometheus.CounterVec
	webhooksTotal    *prometheus.CounterVec
	publishTotal     *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

// New builds the collectors and registers them with reg. It panics on
// duplicate registration.
func New(namespace string, reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		uploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Accepted video uploads by MIME type.",
		}, []string{"mime_type"}),
		uploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_size_bytes",
			Help:      "Size of accepted uploads.",
			Buckets:   []float64{1 << 20, 10 << 20, 25 << 20, 50 << 20, 100 << 20},
		}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Video status transitions by target status.",
		}, []string{"status"}),
		webhooksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcription_webhooks_total",
			Help:      "Transcription webhooks received by provider status.",
		}, []string{"status"}),
		publishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_attempts_total",
			Help:      "Publish attempts by platform and outcome.",
		}, []string{"platform", "outcome"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors by operation and type.",
		}, []string{"operation", "error_type"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	reg.MustRegister(
		m.uploadsTotal,
		m.uploadBytes,
		m.transitionsTotal,
		m.webhooksTotal,
		m.publishTotal,
		m.errorsTotal,
		m.requestsTotal,
		m.requestDuration,
	)
	return m
}

func (m *PrometheusMetrics) RecordUpload(mimeType string, sizeBytes int64) {
	m.uploadsTotal.WithLabelValues(mimeTypeLabel(mimeType)).Inc()
	m.uploadBytes.Observe(float64(sizeBytes))
}

func (m *PrometheusMetrics) RecordTransition(status domain.ProcessingStatus) {
	m.transitionsTotal.WithLabelValues(string(status)).Inc()
}

func (m *PrometheusMetrics) RecordWebhook(status string) {
	m.webhooksTotal.WithLabelValues(webhookStatusLabel(status)).Inc()
}

func (m *PrometheusMetrics) RecordPublish(platform domain.Platform, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.publishTotal.WithLabelValues(string(platform), outcome).Inc()
}

func (m *PrometheusMetrics) RecordError(operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// otherLabel replaces label values outside a known set, so callers cannot
// grow the number of series.
const otherLabel = "other"

var videoSubtypes = map[string]bool{
	"mp4":        true,
	"quicktime":  true,
	"webm":       true,
	"mpeg":       true,
	"ogg":        true,
	"3gpp":       true,
	"x-msvideo":  true,
	"x-matroska": true,
	"x-flv":      true,
}

func mimeTypeLabel(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return otherLabel
	}
	subtype, ok := strings.CutPrefix(mediaType, "video/")
	if !ok || !videoSubtypes[subtype] {
		return otherLabel
	}
	return mediaType
}

func webhookStatusLabel(status string) string {
	switch status {
	case domain.TranscriptQueued, domain.TranscriptProcessing, domain.TranscriptCompleted, domain.TranscriptError:
		return status
	}
	return otherLabel
}

// Middleware counts requests and observes latency per matched route.
func (m *PrometheusMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) RecordUpload(string, int64)              {}
func (Nop) RecordTransition(domain.ProcessingStatus) {}
func (Nop) RecordWebhook(string)                     {}
func (Nop) RecordPublish(domain.Platform, bool)      {}
func (Nop) RecordError(string, string)               {}
