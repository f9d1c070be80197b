package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Exchange metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec
	TransportErrors *prometheus.CounterVec

	// Conversation metrics
	Redirects           prometheus.Counter
	AuthRetries         prometheus.Counter
	ActiveConversations prometheus.Gauge

	// Cookie metrics
	CookiesAccepted prometheus.Counter
	CookiesRejected *prometheus.CounterVec

	// Form metrics
	ValidationFailures *prometheus.CounterVec

	// Snapshot for reporting - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for reporting
type MetricsSnapshot struct {
	TotalRequests      int64   `json:"total_requests"`
	TotalErrors        int64   `json:"total_errors"`
	TotalRedirects     int64   `json:"total_redirects"`
	CookiesAccepted    int64   `json:"cookies_accepted"`
	CookiesRejected    int64   `json:"cookies_rejected"`
	ValidationFailures int64   `json:"validation_failures"`
	TotalDuration      float64 `json:"total_duration_seconds"`
}

// NewMetrics creates a metrics collector registered with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "headless_requests_total",
				Help: "Total number of requests sent",
			},
			[]string{"method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "headless_request_duration_seconds",
				Help:    "Request round trip duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "headless_response_size_bytes",
				Help:    "Response body size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method"},
		),
		TransportErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "headless_transport_errors_total",
				Help: "Total number of requests that failed in transport",
			},
			[]string{"method"},
		),

		Redirects: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "headless_redirects_total",
				Help: "Total number of redirects followed",
			},
		),
		AuthRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "headless_auth_retries_total",
				Help: "Total number of requests retried with credentials after a challenge",
			},
		),
		ActiveConversations: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "headless_conversations_active",
				Help: "Number of open conversations",
			},
		),

		CookiesAccepted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "headless_cookies_accepted_total",
				Help: "Total number of response cookies stored",
			},
		),
		CookiesRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "headless_cookies_rejected_total",
				Help: "Total number of response cookies rejected",
			},
			[]string{"reason"},
		),

		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "headless_validation_failures_total",
				Help: "Total number of rejected parameter changes",
			},
			[]string{"kind"},
		),
	}
}

// RecordRequest records a completed exchange
func (m *Metrics) RecordRequest(method string, status int, duration time.Duration, respSize int) {
	m.RequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	if status >= 400 {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordTransportError records a request that got no response
func (m *Metrics) RecordTransportError(method string) {
	m.TransportErrors.WithLabelValues(method).Inc()

	m.mu.Lock()
	m.snapshot.TotalErrors++
	m.mu.Unlock()
}

// RecordRedirect records one followed redirect
func (m *Metrics) RecordRedirect() {
	m.Redirects.Inc()

	m.mu.Lock()
	m.snapshot.TotalRedirects++
	m.mu.Unlock()
}

// RecordAuthRetry records a retry with credentials
func (m *Metrics) RecordAuthRetry() {
	m.AuthRetries.Inc()
}

// RecordCookies records the outcome of one Set-Cookie merge
func (m *Metrics) RecordCookies(accepted int, rejectedReasons []string) {
	m.CookiesAccepted.Add(float64(accepted))
	for _, reason := range rejectedReasons {
		m.CookiesRejected.WithLabelValues(reason).Inc()
	}

	m.mu.Lock()
	m.snapshot.CookiesAccepted += int64(accepted)
	m.snapshot.CookiesRejected += int64(len(rejectedReasons))
	m.mu.Unlock()
}

// RecordValidationFailure records a rejected parameter change
func (m *Metrics) RecordValidationFailure(kind string) {
	m.ValidationFailures.WithLabelValues(kind).Inc()

	m.mu.Lock()
	m.snapshot.ValidationFailures++
	m.mu.Unlock()
}

// ConversationOpened increments the open conversation gauge
func (m *Metrics) ConversationOpened() {
	m.ActiveConversations.Inc()
}

// ConversationClosed decrements the open conversation gauge
func (m *Metrics) ConversationClosed() {
	m.ActiveConversations.Dec()
}

// Snapshot returns the current totals
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
