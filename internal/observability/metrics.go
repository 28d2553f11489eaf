package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes service counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	tokensIssued    *prometheus.CounterVec
	issueFailures   *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	reminders       *prometheus.CounterVec
	statusCache     *prometheus.CounterVec
}

// NewMetrics registers the service collectors with registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		return nil
	}
	factory := promauto.With(registry)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shift_availability_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shift_availability_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shift_availability_http_errors_total",
			Help: "HTTP error responses by route, method and error code",
		}, []string{"route", "method", "code"}),
		tokensIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shift_availability_tokens_issued_total",
			Help: "Availability tokens issued by kind",
		}, []string{"kind"}),
		issueFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shift_availability_token_issue_failures_total",
			Help: "Per-employee token issuance failures by reason",
		}, []string{"reason"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shift_availability_submissions_total",
			Help: "Availability submissions by outcome",
		}, []string{"outcome"}),
		reminders: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shift_availability_reminders_total",
			Help: "Reminder deliveries by outcome",
		}, []string{"outcome"}),
		statusCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shift_availability_status_cache_total",
			Help: "Schedule status cache lookups by result",
		}, []string{"result"}),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// TokensIssued counts n issued tokens of kind ("weekly", "permanent", "reset").
func (m *Metrics) TokensIssued(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.tokensIssued.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) TokenIssueFailed(reason string) {
	if m == nil {
		return
	}
	m.issueFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) SubmissionRecorded(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ReminderDelivered(ok bool) {
	if m == nil {
		return
	}
	outcome := "sent"
	if !ok {
		outcome = "failed"
	}
	m.reminders.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StatusCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.statusCache.WithLabelValues(result).Inc()
}
