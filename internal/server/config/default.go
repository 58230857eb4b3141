package config

// Default configuration values.
const (
	DefaultBind           = "0.0.0.0"
	DefaultPort           = 6379
	DefaultReadBufferSize = 4096
	DefaultMaxFrameSize   = 512 * 1024

	DefaultSnapshotFormat = "rdb"

	DefaultMetricsAddr = "127.0.0.1:9121"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Bind:           DefaultBind,
			Port:           DefaultPort,
			ReadBufferSize: DefaultReadBufferSize,
			MaxFrameSize:   DefaultMaxFrameSize,
		},
		Replication: ReplicationSection{
			SnapshotFormat: DefaultSnapshotFormat,
		},
		Metrics: MetricsSection{
			Addr: DefaultMetricsAddr,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
