package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus registry and the collectors shared by the
// HTTP layer and the application services. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	voiceCommands *prometheus.CounterVec
	voiceActions  *prometheus.CounterVec
	aiCalls       *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		voiceCommands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voice_commands_total",
				Help: "Voice commands by the interpreter that produced their actions",
			},
			[]string{"route"},
		),
		voiceActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voice_actions_total",
				Help: "Materialized voice actions by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		aiCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ai_requests_total",
				Help: "Language model calls by outcome",
			},
			[]string{"outcome"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_dispatched_total",
				Help: "Notification delivery attempts by method and outcome",
			},
			[]string{"method", "outcome"},
		),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.voiceCommands,
		m.voiceActions,
		m.aiCalls,
		m.notifications,
		prometheus.NewGoCollector(),
	)

	return m
}

func (m *Metrics) VoiceCommand(route string) {
	if m == nil {
		return
	}
	m.voiceCommands.WithLabelValues(route).Inc()
}

func (m *Metrics) VoiceAction(actionType, outcome string) {
	if m == nil {
		return
	}
	m.voiceActions.WithLabelValues(actionType, outcome).Inc()
}

func (m *Metrics) AICall(outcome string) {
	if m == nil {
		return
	}
	m.aiCalls.WithLabelValues(outcome).Inc()
}

func (m *Metrics) NotificationDispatched(method, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(method, outcome).Inc()
}
