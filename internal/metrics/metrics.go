// Package metrics exposes game counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so several servers (tests) can coexist in one process.
type Metrics struct {
	reg *prometheus.Registry

	RoundsStarted       *prometheus.CounterVec // kind: new | retry
	Guesses             *prometheus.CounterVec // outcome: feedback | win | invalid | round_over
	RoundsFinished      *prometheus.CounterVec // result: won | lost
	PersistenceWarnings *prometheus.CounterVec // op: load | save | clear
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		RoundsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "numguess",
			Name:      "rounds_started_total",
			Help:      "Rounds started, by how they were started.",
		}, []string{"kind"}),
		Guesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "numguess",
			Name:      "guesses_total",
			Help:      "Guess submissions, by outcome.",
		}, []string{"outcome"}),
		RoundsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "numguess",
			Name:      "rounds_finished_total",
			Help:      "Rounds that reached a terminal state, by result.",
		}, []string{"result"}),
		PersistenceWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "numguess",
			Name:      "persistence_warnings_total",
			Help:      "Statistics reads/writes that failed and were downgraded to warnings.",
		}, []string{"op"}),
	}
	m.reg.MustRegister(
		m.RoundsStarted,
		m.Guesses,
		m.RoundsFinished,
		m.PersistenceWarnings,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
