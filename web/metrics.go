package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "dutchctl"

type metrics struct {
	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		commandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commands_total",
			Help:      "Commands run through the HTTP API by command and status.",
		}, []string{"command", "status"}),
		commandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "command_duration_seconds",
			Help:      "Time to run a command, including master resolution.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
	}
}

func (m *metrics) observe(command string, status int, seconds float64) {
	m.commandsTotal.WithLabelValues(command, statusLabel(status)).Inc()
	m.commandDuration.WithLabelValues(command).Observe(seconds)
}

func statusLabel(status int) string {
	switch {
	case status < 300:
		return "ok"
	case status < 500:
		return "rejected"
	default:
		return "failed"
	}
}
