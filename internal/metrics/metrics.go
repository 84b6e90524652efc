// Package metrics exposes Prometheus instruments for the triage pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicketsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triagedesk_tickets_processed_total",
		Help: "Tickets processed, by specialist role",
	}, []string{"role"})

	Responses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triagedesk_responses_total",
		Help: "Responses produced, by generation path",
	}, []string{"path"}) // "remote" | "fallback"

	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "triagedesk_generation_duration_seconds",
		Help:    "Latency of a single generate call, both paths",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0},
	})

	KBSearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "triagedesk_kb_search_duration_seconds",
		Help:    "Knowledge base search latency",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5},
	})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triagedesk_errors_total",
		Help: "Error counts by stage",
	}, []string{"stage"})
)
