// Package metrics provides Prometheus metrics definitions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric exported by the service.
const Namespace = "opsdesk"

var (
	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route", "status_code"},
	)

	// StoreIncidents tracks stored incidents by status.
	StoreIncidents = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "store",
			Name:      "incidents",
			Help:      "Number of stored incidents by status",
		},
		[]string{"status"},
	)

	// StoreRecords tracks the size of the other store collections.
	StoreRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "store",
			Name:      "records",
			Help:      "Number of stored records by collection",
		},
		[]string{"collection"},
	)

	// IncidentsBreached tracks unresolved incidents past their SLA window.
	IncidentsBreached = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "sla",
			Name:      "breached_incidents",
			Help:      "Number of unresolved incidents past their SLA window by severity",
		},
		[]string{"severity"},
	)
)
