package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/yndnr/redikv/internal/storage/snapshot"
	"github.com/yndnr/redikv/internal/telemetry/logger"
)

// ErrInvalidConfig is wrapped by every Verify failure.
var ErrInvalidConfig = errors.New("invalid config")

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyReplication(&cfg.Replication); err != nil {
		return err
	}
	if err := verifyMetrics(&cfg.Metrics); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func invalid(key, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, key, fmt.Sprintf(format, args...))
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return invalid("server.port", "%d out of range 1-65535", cfg.Port)
	}
	if cfg.Bind != "" && net.ParseIP(cfg.Bind) == nil && cfg.Bind != "localhost" {
		return invalid("server.bind", "%q is not an IP address", cfg.Bind)
	}
	if cfg.ReadBufferSize < 64 {
		return invalid("server.read_buffer_size", "%d is below 64", cfg.ReadBufferSize)
	}
	if cfg.MaxFrameSize < cfg.ReadBufferSize {
		return invalid("server.max_frame_size", "%d is below read_buffer_size %d", cfg.MaxFrameSize, cfg.ReadBufferSize)
	}
	if cfg.RateLimit < 0 {
		return invalid("server.rate_limit", "%d is negative", cfg.RateLimit)
	}
	return nil
}

func verifyReplication(cfg *ReplicationSection) error {
	if cfg.ReplicaOf != "" {
		if _, _, err := ParseReplicaOf(cfg.ReplicaOf); err != nil {
			return invalid("replication.replicaof", "%v", err)
		}
	}
	if _, err := snapshot.ParseFormat(cfg.SnapshotFormat); err != nil {
		return invalid("replication.snapshot_format", "%v", err)
	}
	if cfg.HandshakeTimeout < 0 {
		return invalid("replication.handshake_timeout", "%s is negative", cfg.HandshakeTimeout)
	}
	if strings.ContainsAny(cfg.ReplID, " \t\r\n") {
		return invalid("replication.replid", "must not contain whitespace")
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if !cfg.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return invalid("metrics.addr", "%v", err)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return invalid("log.level", "%v", err)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "text", "console", "json":
		return nil
	default:
		return invalid("log.format", "unknown format %q", cfg.Format)
	}
}

// ParseReplicaOf splits "<host> <port>" into its parts. Surrounding and
// repeated whitespace is tolerated.
func ParseReplicaOf(s string) (string, int, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return "", 0, fmt.Errorf("want \"<host> <port>\", got %q", s)
	}
	port, err := strconv.Atoi(fields[1])
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port %q", fields[1])
	}
	return fields[0], port, nil
}
