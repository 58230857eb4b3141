// Package metric provides Prometheus metrics for redikv.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "redikv"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Connection metrics
	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter

	// Command metrics
	commandsTotal  *prometheus.CounterVec
	protocolErrors *prometheus.CounterVec
	rateLimited    prometheus.Counter

	// Keyspace metrics
	keysExpired prometheus.Counter

	// Replication metrics
	handshakes        *prometheus.CounterVec
	snapshotBytesSent prometheus.Counter
	replicasSynced    prometheus.Counter
}

// NewRegistry creates a registry with redikv metrics and the Go runtime collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of open client connections",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total client connections accepted",
		}),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total commands processed, by command name",
		}, []string{"command"}),
		protocolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Total request decode failures, by kind",
		}, []string{"kind"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Total commands rejected by the per-client rate limit",
		}),
		keysExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_expired_total",
			Help:      "Total keys removed on access after their deadline",
		}),
		handshakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "handshakes_total",
			Help:      "Replica-side handshake attempts, by result",
		}, []string{"result"}),
		snapshotBytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "snapshot_bytes_sent_total",
			Help:      "Total snapshot payload bytes sent to replicas",
		}),
		replicasSynced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "replicas_synced_total",
			Help:      "Total full resynchronizations served to replicas",
		}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.connectionsActive,
		r.connectionsTotal,
		r.commandsTotal,
		r.protocolErrors,
		r.rateLimited,
		r.keysExpired,
		r.handshakes,
		r.snapshotBytesSent,
		r.replicasSynced,
	)
	return r
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Gatherer(), promhttp.HandlerOpts{})
}

// MustRegister registers additional collectors.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	if r == nil {
		return
	}
	r.reg.MustRegister(cs...)
}

func (r *Registry) ConnOpened() {
	if r == nil {
		return
	}
	r.connectionsActive.Inc()
	r.connectionsTotal.Inc()
}

func (r *Registry) ConnClosed() {
	if r == nil {
		return
	}
	r.connectionsActive.Dec()
}

func (r *Registry) Command(name string) {
	if r == nil {
		return
	}
	r.commandsTotal.WithLabelValues(name).Inc()
}

func (r *Registry) ProtocolError(kind string) {
	if r == nil {
		return
	}
	r.protocolErrors.WithLabelValues(kind).Inc()
}

func (r *Registry) RateLimited() {
	if r == nil {
		return
	}
	r.rateLimited.Inc()
}

// KeyExpired satisfies memory.Observer.
func (r *Registry) KeyExpired() {
	if r == nil {
		return
	}
	r.keysExpired.Inc()
}

// Handshake records a replica-side handshake outcome ("ok" or "failed").
func (r *Registry) Handshake(result string) {
	if r == nil {
		return
	}
	r.handshakes.WithLabelValues(result).Inc()
}

func (r *Registry) SnapshotSent(n int) {
	if r == nil {
		return
	}
	r.snapshotBytesSent.Add(float64(n))
	r.replicasSynced.Inc()
}
