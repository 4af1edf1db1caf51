// Package stats exposes Prometheus collectors for connection lifecycle,
// cluster redirections, and handshake latency. Purely ambient observability
// — it emulates nothing server-side and performs no caching decisions.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import "github.com/prometheus/client_golang/prometheus"

// Registry is the set of collectors that respconn.Conn and cluster.Router
// update, registered against an external prometheus.Registerer via
// MustRegister (or left unregistered, in which case the collectors are
// simply never scraped).
type Registry struct {
	ConnectionsOpen  prometheus.Gauge
	ConnectionsTotal prometheus.Counter
	ConnectionsLost  prometheus.Counter
	Redirections     *prometheus.CounterVec // labeled "moved" | "ask"
	RedirectionLoops prometheus.Counter
	HandshakeLatency prometheus.Histogram
}

// NewRegistry builds a fresh, unregistered Registry.
func NewRegistry() *Registry {
	return &Registry{
		ConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vkclient",
			Name:      "connections_open",
			Help:      "Number of currently Ready connections.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vkclient",
			Name:      "connections_total",
			Help:      "Total connections established since process start.",
		}),
		ConnectionsLost: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vkclient",
			Name:      "connections_lost_total",
			Help:      "Total connections that transitioned to Broken.",
		}),
		Redirections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vkclient",
			Name:      "cluster_redirections_total",
			Help:      "Total MOVED/ASK redirections followed, by kind.",
		}, []string{"kind"}),
		RedirectionLoops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vkclient",
			Name:      "cluster_redirection_loops_total",
			Help:      "Total calls that exceeded max-redirects.",
		}),
		HandshakeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vkclient",
			Name:      "handshake_latency_seconds",
			Help:      "Time to complete the handshake (HELLO/AUTH/SETNAME/SELECT).",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// MustRegister registers every collector against reg, panicking on
// duplicate registration (mirrors prometheus.MustRegister's own contract).
func (r *Registry) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		r.ConnectionsOpen,
		r.ConnectionsTotal,
		r.ConnectionsLost,
		r.Redirections,
		r.RedirectionLoops,
		r.HandshakeLatency,
	)
}
