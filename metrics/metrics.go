// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	MetricBallotsCast        = "campus_vote_ballots_cast_total"
	MetricElectionsCompleted = "campus_vote_elections_completed_total"
	MetricBallotsRejected    = "campus_vote_ballots_rejected_total"
	MetricRequestDuration    = "campus_vote_http_request_duration_seconds"
)

// Rejection reasons used as the "reason" label of MetricBallotsRejected
const (
	ReasonCompleted         = "election_completed"
	ReasonNotRemaining      = "position_not_remaining"
	ReasonCandidateMismatch = "candidate_mismatch"
	ReasonStale             = "stale_position"
)

// Metrics owns a private registry so several routers can coexist in one
// process (tests build many).
type Metrics struct {
	Registry           *prometheus.Registry
	BallotsCast        prometheus.Counter
	ElectionsCompleted prometheus.Counter
	BallotsRejected    *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		BallotsCast: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricBallotsCast,
			Help: "Ballots written by the voting state machine",
		}),
		ElectionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricElectionsCompleted,
			Help: "Completion records written (student finished an election)",
		}),
		BallotsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricBallotsRejected,
			Help: "Ballot submissions rejected before any write",
		}, []string{"reason"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricRequestDuration,
			Help:    "Duration of HTTP requests by route pattern and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "pattern", "status"}),
	}

	reg.MustRegister(
		m.BallotsCast,
		m.ElectionsCompleted,
		m.BallotsRejected,
		m.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Rejected(reason string) {
	m.BallotsRejected.WithLabelValues(reason).Inc()
}
