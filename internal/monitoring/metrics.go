package monitoring

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// 文件指标
	FilesUploaded prometheus.Counter
	FilesDeleted  prometheus.Counter
	FilesServed   prometheus.Counter
	UploadSize    prometheus.Histogram

	// 令牌指标
	TokensIssued       prometheus.Counter
	TokenVerifySuccess prometheus.Counter
	TokenVerifyFailed  prometheus.Counter

	// 错误指标
	ErrorsTotal *prometheus.CounterVec
	PanicsTotal prometheus.Counter
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filebox_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filebox_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filebox_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 7),
			},
			[]string{"method", "endpoint"},
		),

		HTTPResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filebox_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 7),
			},
			[]string{"method", "endpoint"},
		),

		FilesUploaded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "filebox_files_uploaded_total",
			Help: "Total number of files uploaded",
		}),

		FilesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "filebox_files_deleted_total",
			Help: "Total number of files deleted",
		}),

		FilesServed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "filebox_files_served_total",
			Help: "Total number of file content downloads served",
		}),

		UploadSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "filebox_upload_size_bytes",
			Help:    "Uploaded file size in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		}),

		TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "filebox_tokens_issued_total",
			Help: "Total number of capability tokens issued",
		}),

		TokenVerifySuccess: promauto.NewCounter(prometheus.CounterOpts{
			Name: "filebox_token_verify_success_total",
			Help: "Total number of successful capability token verifications",
		}),

		TokenVerifyFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "filebox_token_verify_failed_total",
			Help: "Total number of failed capability token verifications",
		}),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filebox_errors_total",
				Help: "Total number of errors",
			},
			[]string{"type", "component"},
		),

		PanicsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "filebox_panics_total",
			Help: "Total number of recovered panics",
		}),
	}
}

// RecordHTTPRequest 记录一次 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration, requestSize, responseSize int64) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	m.HTTPRequestSize.WithLabelValues(method, endpoint).Observe(float64(requestSize))
	m.HTTPResponseSize.WithLabelValues(method, endpoint).Observe(float64(responseSize))
}

// RecordError 记录一次错误
func (m *Metrics) RecordError(errorType, component string) {
	m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordPanic 记录一次 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// Handler 返回 /metrics 端点处理器
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
