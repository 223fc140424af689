package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vrfRoulette/internal/model"
)

const namespace = "roulette"

var phases = []model.Phase{
	model.PhaseIdle,
	model.PhasePendingTransaction,
	model.PhaseWaitingForResult,
	model.PhaseRevealing,
}

// Session holds the collectors fed by the session coordinator.
type Session struct {
	registry *prometheus.Registry

	rounds        *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	pollFailures  prometheus.Counter
	phase         *prometheus.GaugeVec
	roundDuration prometheus.Histogram
}

// NewSession registers the session collectors on a private registry.
func NewSession() *Session {
	s := &Session{
		registry: prometheus.NewRegistry(),
		rounds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "rounds_total",
				Help:      "Finished rounds by terminal reason and result.",
			},
			[]string{"reason", "winner"},
		),
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "result_deliveries_total",
				Help:      "Result events seen by delivery path and whether they were accepted.",
			},
			[]string{"path", "accepted"},
		),
		pollFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "poll_failures_total",
				Help:      "Failed result poll queries.",
			},
		),
		phase: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "phase",
				Help:      "1 for the current round phase, 0 otherwise.",
			},
			[]string{"phase"},
		),
		roundDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "round_duration_seconds",
				Help:      "Time from spin to the round returning to idle.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~8.5m
			},
		),
	}

	s.registry.MustRegister(
		s.rounds,
		s.deliveries,
		s.pollFailures,
		s.phase,
		s.roundDuration,
		collectors.NewGoCollector(),
	)
	s.PhaseChanged(model.PhaseIdle)
	return s
}

// Handler exposes the registry for scraping.
func (s *Session) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

func (s *Session) PhaseChanged(phase model.Phase) {
	for _, p := range phases {
		value := 0.0
		if p == phase {
			value = 1
		}
		s.phase.WithLabelValues(string(p)).Set(value)
	}
}

func (s *Session) ResultDelivered(path model.DeliveryPath, accepted bool) {
	s.deliveries.WithLabelValues(string(path), strconv.FormatBool(accepted)).Inc()
}

func (s *Session) PollFailed() {
	s.pollFailures.Inc()
}

func (s *Session) RoundFinished(outcome model.RoundOutcome) {
	s.rounds.WithLabelValues(string(outcome.Reason), strconv.FormatBool(outcome.IsWinner)).Inc()
	if !outcome.StartedAt.IsZero() && outcome.FinishedAt.After(outcome.StartedAt) {
		s.roundDuration.Observe(outcome.FinishedAt.Sub(outcome.StartedAt).Seconds())
	}
}
