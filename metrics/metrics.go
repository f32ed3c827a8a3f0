// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dikshapatel15/Decentralized-Voting-System/election"
)

// Metrics holds all Prometheus collectors for the ballot service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Operations           *prometheus.CounterVec
	VotesCast            prometheus.Counter
	Phase                prometheus.Gauge
	Candidates           prometheus.Gauge
	RegisteredVoters     prometheus.Gauge
	NotificationsDropped prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry so tests can build as many
// instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ballot_operations_total",
			Help: "Election operations by outcome (ok or failure kind)",
		}, []string{"operation", "outcome"}),
		VotesCast: factory.NewCounter(prometheus.CounterOpts{
			Name: "ballot_votes_cast_total",
			Help: "Votes accepted since the process started",
		}),
		Phase: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ballot_phase",
			Help: "Current election phase (0 setup, 1 open, 2 closed)",
		}),
		Candidates: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ballot_candidates",
			Help: "Number of candidates on the ballot",
		}),
		RegisteredVoters: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ballot_registered_voters",
			Help: "Number of registered participants",
		}),
		NotificationsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "ballot_notifications_dropped_total",
			Help: "Events dropped because the notification queue was full",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ballot_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// ObserveOperation counts an operation attempt. err is classified with
// election.KindOf.
func (m *Metrics) ObserveOperation(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = election.KindOf(err)
	}
	m.Operations.WithLabelValues(op, outcome).Inc()
}

// RecordEvent updates gauges and counters for a committed event.
func (m *Metrics) RecordEvent(ev election.Event) {
	if m == nil {
		return
	}
	switch ev.Kind {
	case election.EventCandidateAdded:
		m.Candidates.Inc()
	case election.EventVoterRegistered:
		m.RegisteredVoters.Inc()
	case election.EventVoteCast:
		m.VotesCast.Inc()
	}
	m.Phase.Set(float64(ev.Phase))
}

// Sync sets the gauges from a full snapshot, used after loading from storage.
func (m *Metrics) Sync(snap election.Snapshot) {
	if m == nil {
		return
	}
	m.Phase.Set(float64(snap.Phase))
	m.Candidates.Set(float64(len(snap.Candidates)))
	m.RegisteredVoters.Set(float64(len(snap.Voters)))
}

// IncNotificationsDropped counts one dropped notification.
func (m *Metrics) IncNotificationsDropped() {
	if m == nil {
		return
	}
	m.NotificationsDropped.Inc()
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
