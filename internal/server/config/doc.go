// Package config provides server configuration for redikv.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (port ranges, replicaof syntax, snapshot format)
//   - sanitize.go: Normalised copy for logging
//   - role.go: Conversion to the node's replication role
//
// Configuration is loaded via internal/infra/confloader from a YAML file,
// REDIKV_* environment variables and command-line flags.
package config
