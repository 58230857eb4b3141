// Package metric provides Prometheus metrics for redikv.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: registry, counters and the /metrics HTTP handler
//   - collector.go: scrape-time collector for keyspace size
//
// Metrics include:
//
//   - Connection and command counters
//   - Protocol error counters by kind
//   - Key expiration counters and keyspace size
//   - Replication handshake and snapshot transfer counters
//
// Every method on *Registry is safe to call on a nil receiver, so
// components can be built without metrics in tests.
package metric
