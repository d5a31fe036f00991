package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics is owned by a single Server so that tests can create as many
// servers as they like without colliding in the default registry.
type metrics struct {
	registry *prometheus.Registry

	simulations        prometheus.Counter
	simulationDuration prometheus.Histogram
	decisions          *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		simulations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "heliotrack_simulations_total",
				Help: "Total number of simulated days",
			},
		),
		simulationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "heliotrack_simulation_duration_seconds",
				Help:    "Time spent simulating a day",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
		),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heliotrack_move_decisions_total",
				Help: "Total number of movement decisions",
			},
			[]string{"approved"},
		),
	}

	m.registry.MustRegister(m.simulations)
	m.registry.MustRegister(m.simulationDuration)
	m.registry.MustRegister(m.decisions)

	return m
}

func (m *metrics) recordSimulation(duration time.Duration) {
	m.simulations.Inc()
	m.simulationDuration.Observe(duration.Seconds())
}

func (m *metrics) recordDecision(approved bool) {
	m.decisions.WithLabelValues(strconv.FormatBool(approved)).Inc()
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
