package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wippyai/fsproxy/ipc"
	"github.com/wippyai/fsproxy/result"
)

const namespace = "fsproxy"

// Metrics holds the session collectors. It implements ipc.Observer.
type Metrics struct {
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	ObjectsActive   *prometheus.GaugeVec
	SessionsActive  prometheus.Gauge
	SessionsTotal   prometheus.Counter
}

var _ ipc.Observer = (*Metrics)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Total number of dispatched commands",
			},
			[]string{"service", "command", "result"},
		),
		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Command dispatch duration in seconds",
				Buckets:   []float64{.00001, .0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"service", "command"},
		),
		ObjectsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "objects_active",
				Help:      "Number of published objects",
			},
			[]string{"service"},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Number of open sessions",
			},
		),
		SessionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_total",
				Help:      "Total number of sessions opened",
			},
		),
	}
	reg.MustRegister(
		m.CommandsTotal,
		m.CommandDuration,
		m.ObjectsActive,
		m.SessionsActive,
		m.SessionsTotal,
	)
	return m
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) SessionOpened(string) {
	m.SessionsActive.Inc()
	m.SessionsTotal.Inc()
}

func (m *Metrics) SessionClosed(string) {
	m.SessionsActive.Dec()
}

func (m *Metrics) CommandHandled(service, command string, status result.Code, elapsed time.Duration) {
	m.CommandsTotal.WithLabelValues(service, command, resultLabel(status)).Inc()
	m.CommandDuration.WithLabelValues(service, command).Observe(elapsed.Seconds())
}

func (m *Metrics) ObjectPublished(service string) {
	m.ObjectsActive.WithLabelValues(service).Inc()
}

func (m *Metrics) ObjectReleased(service string) {
	m.ObjectsActive.WithLabelValues(service).Dec()
}

// resultLabel renders a status as "success" or its module-description pair.
func resultLabel(status result.Code) string {
	if status.IsSuccess() {
		return "success"
	}
	return status.String()
}
