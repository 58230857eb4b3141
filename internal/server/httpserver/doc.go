// Package httpserver serves the admin HTTP endpoints of redikv-server:
//
//   - GET /metrics: Prometheus exposition
//   - GET /healthz: node role and replication ids as JSON
//   - GET /version: build information
//
// It uses net/http with a small middleware chain (request id, panic
// recovery, access log).
package httpserver
