// Package main provides the entry point for redikv-server.
//
// redikv-server is an in-memory key-value store that speaks RESP2. A node
// is a primary, or a replica of another node when replication.replicaof
// is set.
//
// Usage:
//
//	redikv-server [flags]
//	redikv-server --config /etc/redikv/redikv.yaml
//	redikv-server --port 6380 --replicaof "127.0.0.1 6379"
//
// Configuration is read from the optional YAML file, then REDIKV_*
// environment variables, then command-line flags. Changes to log.level
// in the file take effect without a restart.
package main
