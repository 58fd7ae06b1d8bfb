// Package metrics holds kiosk prometheus collectors and diagnostics HTTP server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
)

type Config struct {
	Listen    string `hcl:"listen"` // empty = diagnostics server disabled
	Namespace string `hcl:"namespace"`
}

const DefaultNamespace = "kiosk"

// Metrics is nil-safe: every Record/Set method on nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	PollsTotal       *prometheus.CounterVec
	PushEventsTotal  *prometheus.CounterVec
	CommitsTotal     *prometheus.CounterVec
	NoticesTotal     *prometheus.CounterVec
	BreakerState     *prometheus.GaugeVec
	BreakerTrips     *prometheus.CounterVec
	ChannelConnected prometheus.Gauge
	DispatchActive   prometheus.Gauge
}

func New(c Config) *Metrics {
	ns := c.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}
	m.PollsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "status_polls_total",
		Help:      "Live tracking polls by result",
	}, []string{"result"})
	m.PushEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "push_events_total",
		Help:      "Push channel events received by name",
	}, []string{"event"})
	m.CommitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "gesture_commits_total",
		Help:      "Slider gestures committed by kind",
	}, []string{"kind"})
	m.NoticesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "notices_total",
		Help:      "Notifications shown by kind",
	}, []string{"kind"})
	m.BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: ns,
		Name:      "circuit_breaker_state",
		Help:      "Backend circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})
	m.BreakerTrips = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "circuit_breaker_trips_total",
		Help:      "Backend circuit breaker transitions into open state",
	}, []string{"name"})
	m.ChannelConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns,
		Name:      "channel_connected",
		Help:      "Push channel connection state",
	})
	m.DispatchActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns,
		Name:      "dispatch_active",
		Help:      "Whether a dispatch is currently in progress",
	})
	registry.MustRegister(
		m.PollsTotal, m.PushEventsTotal, m.CommitsTotal, m.NoticesTotal,
		m.BreakerState, m.BreakerTrips, m.ChannelConnected, m.DispatchActive,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) RecordPoll(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "fail"
	}
	m.PollsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordPush(event string) {
	if m == nil {
		return
	}
	m.PushEventsTotal.WithLabelValues(event).Inc()
}

func (m *Metrics) RecordCommit(kind string) {
	if m == nil {
		return
	}
	m.CommitsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordNotice(kind string) {
	if m == nil {
		return
	}
	m.NoticesTotal.WithLabelValues(kind).Inc()
}

// SetBreakerState matches backend.StateFunc signature.
func (m *Metrics) SetBreakerState(name string, state gobreaker.State) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(float64(state))
	if state == gobreaker.StateOpen {
		m.BreakerTrips.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) SetChannelConnected(connected bool) {
	if m == nil {
		return
	}
	m.ChannelConnected.Set(b2f(connected))
}

func (m *Metrics) SetDispatchActive(active bool) {
	if m == nil {
		return
	}
	m.DispatchActive.Set(b2f(active))
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
