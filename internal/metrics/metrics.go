// Package metrics exposes prometheus counters for the game lifecycle.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one service instance. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	GamesStarted  prometheus.Counter
	GamesFinished *prometheus.CounterVec
	PrizesPaid    prometheus.Counter
	Answers       *prometheus.CounterVec
	Lifelines     *prometheus.CounterVec
}

// New registers the collectors on a private registry.
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		GamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Games created.",
		}),
		GamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Games reaching a terminal state, by status.",
		}, []string{"status"}),
		PrizesPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prizes_paid_total",
			Help:      "Sum of prizes credited to user balances.",
		}),
		Answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Submitted answers, by correctness.",
		}, []string{"correct"}),
		Lifelines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifelines_used_total",
			Help:      "Lifelines applied, by name.",
		}, []string{"lifeline"}),
	}
	m.registry.MustRegister(m.GamesStarted, m.GamesFinished, m.PrizesPaid, m.Answers, m.Lifelines)
	return m
}

func (m *Metrics) GameStarted() {
	if m == nil {
		return
	}
	m.GamesStarted.Inc()
}

func (m *Metrics) GameFinished(status string, prize int) {
	if m == nil {
		return
	}
	m.GamesFinished.WithLabelValues(status).Inc()
	m.PrizesPaid.Add(float64(prize))
}

func (m *Metrics) AnswerSubmitted(correct bool) {
	if m == nil {
		return
	}
	m.Answers.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

func (m *Metrics) LifelineUsed(name string) {
	if m == nil {
		return
	}
	m.Lifelines.WithLabelValues(name).Inc()
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
