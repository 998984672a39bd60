package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// requests per route template, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_requests_total",
			Help: "Total API requests received",
		},
		[]string{"route", "method", "status"},
	)

	// request latency in seconds per route/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// scam reports accepted from the public endpoint
	ScamReportsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_scam_reports_submitted_total",
			Help: "Total scam reports submitted",
		},
	)

	// moderation transitions, labelled by the status written
	ScamStatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_scam_status_transitions_total",
			Help: "Total scam report status transitions",
		},
		[]string{"status"},
	)

	// notifications dispatched, labelled success or failure
	NotificationsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_notifications_dispatched_total",
			Help: "Total notifications dispatched",
		},
		[]string{"outcome"},
	)

	// verification attempts by flow and result
	VerificationAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_verification_attempts_total",
			Help: "Total verification attempts",
		},
		[]string{"flow", "result"},
	)

	// swallowed failures of best effort side effects
	SideEffectFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_side_effect_failures_total",
			Help: "Total failures of best effort side effects",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		ScamReportsSubmitted,
		ScamStatusTransitions,
		NotificationsDispatched,
		VerificationAttempts,
		SideEffectFailures,
	)
}
