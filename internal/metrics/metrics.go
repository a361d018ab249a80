// Package metrics holds the Prometheus collectors for CyberTriage.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	// Case lifecycle metrics
	CasesIntake    *prometheus.CounterVec
	CasesTriaged   *prometheus.CounterVec
	UrgencyScore   prometheus.Histogram
	CasesRouted    *prometheus.CounterVec
	PolicyActions  *prometheus.CounterVec
	ReviewRequests *prometheus.CounterVec

	// Operation metrics
	OperationDuration *prometheus.HistogramVec
	OperationFailures *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// New creates and registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CasesIntake: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cybertriage_cases_intake_total",
				Help: "Total number of complaints registered",
			},
			[]string{"channel"},
		),

		CasesTriaged: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cybertriage_cases_triaged_total",
				Help: "Total number of cases triaged",
			},
			[]string{"severity"},
		),

		UrgencyScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cybertriage_urgency_score",
				Help:    "Urgency score assigned at triage",
				Buckets: prometheus.LinearBuckets(10, 10, 10), // 10, 20, ... 100
			},
		),

		CasesRouted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cybertriage_cases_routed_total",
				Help: "Total number of cases routed",
			},
			[]string{"assignee"},
		),

		PolicyActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cybertriage_policy_actions_total",
				Help: "Total number of policy actions triggered during routing",
			},
			[]string{"action"},
		),

		ReviewRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cybertriage_review_requests_total",
				Help: "Total number of human review requests",
			},
			[]string{"queue"},
		),

		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cybertriage_operation_duration_seconds",
				Help:    "Duration of lifecycle operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		OperationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cybertriage_operation_failures_total",
				Help: "Total number of failed operations by error code",
			},
			[]string{"operation", "code"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cybertriage_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
	}
}

// RecordIntake counts a registered complaint.
func (m *Metrics) RecordIntake(channel string) {
	if m == nil {
		return
	}
	m.CasesIntake.WithLabelValues(channel).Inc()
}

// RecordTriage counts a triaged case and observes its score.
func (m *Metrics) RecordTriage(severity string, urgency int) {
	if m == nil {
		return
	}
	m.CasesTriaged.WithLabelValues(severity).Inc()
	m.UrgencyScore.Observe(float64(urgency))
}

// RecordRoute counts a routed case and the policy actions it triggered.
func (m *Metrics) RecordRoute(assignee string, actions []string) {
	if m == nil {
		return
	}
	m.CasesRouted.WithLabelValues(assignee).Inc()
	for _, a := range actions {
		m.PolicyActions.WithLabelValues(a).Inc()
	}
}

// RecordReview counts a review request.
func (m *Metrics) RecordReview(queue string) {
	if m == nil {
		return
	}
	m.ReviewRequests.WithLabelValues(queue).Inc()
}

// ObserveOperation records an operation's duration and, when code is
// non-empty, its failure.
func (m *Metrics) ObserveOperation(operation string, start time.Time, code string) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if code != "" {
		m.OperationFailures.WithLabelValues(operation, code).Inc()
	}
}

// RecordHTTP counts an HTTP request.
func (m *Metrics) RecordHTTP(method, route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
