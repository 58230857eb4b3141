package config

import "time"

// ServerConfig is the root configuration for redikv-server.
type ServerConfig struct {
	Server      ServerSection      `koanf:"server"`
	Replication ReplicationSection `koanf:"replication"`
	Metrics     MetricsSection     `koanf:"metrics"`
	Log         LogSection         `koanf:"log"`
}

// ServerSection configures the client-facing listener.
type ServerSection struct {
	Bind string `koanf:"bind"`
	Port int    `koanf:"port"`

	// ReadBufferSize is the size of each socket read.
	ReadBufferSize int `koanf:"read_buffer_size"`

	// MaxFrameSize bounds the bytes buffered for a single incomplete
	// request. Connections exceeding it are closed.
	MaxFrameSize int `koanf:"max_frame_size"`

	// RateLimit is the number of commands per second allowed per client
	// IP. Zero disables rate limiting.
	RateLimit int `koanf:"rate_limit"`
}

// ReplicationSection configures the node's role.
type ReplicationSection struct {
	// ReplicaOf is "<host> <port>" of the primary. Empty means this node
	// is a primary.
	ReplicaOf string `koanf:"replicaof"`

	// ReplID overrides the generated replication id of a primary.
	ReplID string `koanf:"replid"`

	// SnapshotFormat is the payload a primary sends after FULLRESYNC
	// ("rdb" or "cbor").
	SnapshotFormat string `koanf:"snapshot_format"`

	// HandshakeTimeout bounds the replica handshake. Zero waits forever.
	HandshakeTimeout time.Duration `koanf:"handshake_timeout"`
}

// MetricsSection configures the admin HTTP endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
