package incidents

import (
	"github.com/bissquit/opsdesk/internal/domain"
	"github.com/bissquit/opsdesk/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	incidentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "incidents",
			Name:      "created_total",
			Help:      "Total incidents created by severity",
		},
		[]string{"severity"},
	)

	incidentTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "incidents",
			Name:      "transitions_total",
			Help:      "Total accepted status transitions",
		},
		[]string{"from", "to"},
	)

	incidentReopens = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "incidents",
			Name:      "reopened_total",
			Help:      "Total incidents reopened from resolved",
		},
	)

	incidentValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "incidents",
			Name:      "validation_failures_total",
			Help:      "Total rejected incident mutations by operation",
		},
		[]string{"operation"},
	)
)

func recordCreated(severity domain.Severity) {
	incidentsCreated.WithLabelValues(string(severity)).Inc()
}

func recordTransition(from, to domain.IncidentStatus) {
	incidentTransitions.WithLabelValues(string(from), string(to)).Inc()
}

func recordReopen() {
	incidentReopens.Inc()
}

func recordValidationFailure(operation string) {
	incidentValidationFailures.WithLabelValues(operation).Inc()
}
