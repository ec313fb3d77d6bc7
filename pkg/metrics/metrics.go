// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ConversationsTotal tracks conversations started.
	ConversationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_conversations_total",
			Help: "Total loan conversations started",
		},
		[]string{"tenant_id"},
	)

	// TurnsTotal tracks processed conversation turns.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_turns_total",
			Help: "Total conversation turns processed",
		},
		[]string{"tenant_id"},
	)

	// TurnDuration tracks end-to-end turn processing duration.
	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "loan_turn_duration_seconds",
			Help:    "Turn processing duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// StageTransitionsTotal tracks state-machine stage transitions.
	StageTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_stage_transitions_total",
			Help: "Total stage transitions in loan conversations",
		},
		[]string{"from", "to"},
	)

	// DecisionsTotal tracks underwriting decisions.
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_underwriting_decisions_total",
			Help: "Total underwriting decisions by outcome",
		},
		[]string{"decision"},
	)

	// TerminalOutcomesTotal tracks terminal conversation outcomes.
	TerminalOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_terminal_outcomes_total",
			Help: "Total conversations reaching a terminal state",
		},
		[]string{"outcome"},
	)

	// CollaboratorCallsTotal tracks calls to decision units and collaborators.
	CollaboratorCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_collaborator_calls_total",
			Help: "Total collaborator and decision-unit invocations",
		},
		[]string{"collaborator", "status"},
	)

	// SafeguardTripsTotal tracks anti-loop safeguard rejections.
	SafeguardTripsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_safeguard_trips_total",
			Help: "Total anti-loop safeguard rejections",
		},
		[]string{"reason"},
	)

	// EMIAmount tracks computed EMI values.
	EMIAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "loan_emi_amount",
			Help:    "Computed EMI amounts",
			Buckets: prometheus.ExponentialBuckets(1000, 2, 10),
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordCollaboratorCall records a collaborator invocation outcome.
func RecordCollaboratorCall(collaborator, status string) {
	CollaboratorCallsTotal.WithLabelValues(collaborator, status).Inc()
}

// RecordStageTransition records a state-machine transition.
func RecordStageTransition(from, to string) {
	StageTransitionsTotal.WithLabelValues(from, to).Inc()
}
