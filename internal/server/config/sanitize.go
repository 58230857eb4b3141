package config

import "strings"

// Sanitize returns a normalised copy of the config for logging and use:
// enum values are lowercased and replicaof whitespace is collapsed.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	sanitized.Replication.ReplicaOf = strings.Join(strings.Fields(cfg.Replication.ReplicaOf), " ")
	sanitized.Replication.SnapshotFormat = strings.ToLower(strings.TrimSpace(cfg.Replication.SnapshotFormat))
	sanitized.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	sanitized.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))

	return &sanitized
}
