package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects matchmaking and HTTP metrics.
//
// All methods are safe on a nil *Metrics so components can run without instrumentation.
//
// Usage:
//
//	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
//	metrics.PairFormed()
//	metrics.SessionEnded("skip", duration)
type Metrics struct {
	// Connections is the number of attached websocket connections (authenticated or not).
	Connections prometheus.Gauge

	// OnlineUsers is the size of the connection registry.
	OnlineUsers prometheus.Gauge

	// WaitingQueue is the number of connections waiting for a partner.
	WaitingQueue prometheus.Gauge

	// PairsTotal counts pairing sessions formed.
	PairsTotal prometheus.Counter

	// SessionsEnded counts pairing sessions torn down.
	// Labels: reason (end_chat|skip|disconnect|replaced|suspended)
	SessionsEnded *prometheus.CounterVec

	// SessionDuration measures pairing session lifetime in seconds.
	SessionDuration prometheus.Histogram

	// RelayedMessages counts signaling and chat messages forwarded to a partner.
	// Labels: type (offer|answer|ice-candidate|message)
	RelayedMessages *prometheus.CounterVec

	// DroppedEvents counts events discarded because a client's send buffer was full.
	DroppedEvents prometheus.Counter

	// HTTPRequestCounter counts HTTP requests.
	// Labels: method, path, status_code
	HTTPRequestCounter *prometheus.CounterVec

	// HTTPRequestDuration measures HTTP API request latency.
	// Labels: method, path
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Connections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wantok_connections",
			Help: "Number of attached websocket connections",
		}),
		OnlineUsers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wantok_online_users",
			Help: "Number of authenticated users in the connection registry",
		}),
		WaitingQueue: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wantok_waiting_queue_length",
			Help: "Number of connections waiting for a partner",
		}),
		PairsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "wantok_pairs_total",
			Help: "Total number of pairing sessions formed",
		}),
		SessionsEnded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wantok_sessions_ended_total",
			Help: "Total number of pairing sessions ended by reason",
		}, []string{"reason"}),
		SessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wantok_session_duration_seconds",
			Help:    "Pairing session lifetime in seconds",
			Buckets: []float64{5, 15, 30, 60, 300, 600, 1800, 3600},
		}),
		RelayedMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wantok_relayed_messages_total",
			Help: "Total number of messages relayed between partners by type",
		}, []string{"type"}),
		DroppedEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "wantok_dropped_events_total",
			Help: "Events dropped because a client send buffer was full",
		}),
		HTTPRequestCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wantok_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wantok_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"method", "path"}),
	}
}

func (m *Metrics) SetConnections(n int) {
	if m == nil {
		return
	}
	m.Connections.Set(float64(n))
}

func (m *Metrics) SetOnlineUsers(n int) {
	if m == nil {
		return
	}
	m.OnlineUsers.Set(float64(n))
}

func (m *Metrics) SetWaiting(n int) {
	if m == nil {
		return
	}
	m.WaitingQueue.Set(float64(n))
}

func (m *Metrics) PairFormed() {
	if m == nil {
		return
	}
	m.PairsTotal.Inc()
}

// SessionEnded records a teardown and the session's lifetime in seconds.
func (m *Metrics) SessionEnded(reason string, seconds float64) {
	if m == nil {
		return
	}
	m.SessionsEnded.WithLabelValues(reason).Inc()
	m.SessionDuration.Observe(seconds)
}

func (m *Metrics) MessageRelayed(messageType string) {
	if m == nil {
		return
	}
	m.RelayedMessages.WithLabelValues(messageType).Inc()
}

func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.DroppedEvents.Inc()
}

// HTTPRequest records one served request.
func (m *Metrics) HTTPRequest(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestCounter.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}
