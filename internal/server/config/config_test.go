package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/redikv/internal/core/role"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Bind != DefaultBind {
		t.Errorf("Server.Bind = %q, want %q", cfg.Server.Bind, DefaultBind)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Server.RateLimit != 0 {
		t.Error("rate limiting should be disabled by default")
	}
	if cfg.Replication.ReplicaOf != "" {
		t.Error("default node should be a primary")
	}
	if cfg.Replication.HandshakeTimeout != 0 {
		t.Error("handshake timeout should be disabled by default")
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics should be disabled by default")
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) error = %v", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServerConfig)
		key    string
	}{
		{"port zero", func(c *ServerConfig) { c.Server.Port = 0 }, "server.port"},
		{"port too large", func(c *ServerConfig) { c.Server.Port = 70000 }, "server.port"},
		{"bad bind", func(c *ServerConfig) { c.Server.Bind = "not an ip" }, "server.bind"},
		{"tiny read buffer", func(c *ServerConfig) { c.Server.ReadBufferSize = 8 }, "server.read_buffer_size"},
		{"frame below buffer", func(c *ServerConfig) { c.Server.MaxFrameSize = 100 }, "server.max_frame_size"},
		{"negative rate", func(c *ServerConfig) { c.Server.RateLimit = -1 }, "server.rate_limit"},
		{"replicaof one field", func(c *ServerConfig) { c.Replication.ReplicaOf = "localhost" }, "replication.replicaof"},
		{"replicaof colon form", func(c *ServerConfig) { c.Replication.ReplicaOf = "localhost:6379" }, "replication.replicaof"},
		{"replicaof bad port", func(c *ServerConfig) { c.Replication.ReplicaOf = "localhost 0" }, "replication.replicaof"},
		{"snapshot format", func(c *ServerConfig) { c.Replication.SnapshotFormat = "json" }, "replication.snapshot_format"},
		{"negative timeout", func(c *ServerConfig) { c.Replication.HandshakeTimeout = -time.Second }, "replication.handshake_timeout"},
		{"replid whitespace", func(c *ServerConfig) { c.Replication.ReplID = "a b" }, "replication.replid"},
		{"metrics addr", func(c *ServerConfig) { c.Metrics.Enabled = true; c.Metrics.Addr = "nope" }, "metrics.addr"},
		{"log level", func(c *ServerConfig) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *ServerConfig) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Verify(cfg)
			if err == nil {
				t.Fatal("Verify() expected error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v should wrap ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q should name key %q", err, tt.key)
			}
		})
	}
}

func TestVerify_DisabledMetricsIgnoresAddr(t *testing.T) {
	cfg := Default()
	cfg.Metrics.Addr = "nope"
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestParseReplicaOf(t *testing.T) {
	host, port, err := ParseReplicaOf("  localhost   6379 ")
	if err != nil {
		t.Fatalf("ParseReplicaOf() error = %v", err)
	}
	if host != "localhost" || port != 6379 {
		t.Errorf("ParseReplicaOf() = %q, %d", host, port)
	}

	for _, in := range []string{"", "localhost", "localhost abc", "a b c", "localhost 65536"} {
		if _, _, err := ParseReplicaOf(in); err == nil {
			t.Errorf("ParseReplicaOf(%q) expected error", in)
		}
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Replication.ReplicaOf = "  localhost \t 6379 "
	cfg.Replication.SnapshotFormat = " CBOR"
	cfg.Log.Level = "DEBUG"

	sanitized := Sanitize(cfg)

	if cfg.Replication.ReplicaOf != "  localhost \t 6379 " {
		t.Error("Original config should not be modified")
	}
	if sanitized.Replication.ReplicaOf != "localhost 6379" {
		t.Errorf("ReplicaOf = %q", sanitized.Replication.ReplicaOf)
	}
	if sanitized.Replication.SnapshotFormat != "cbor" {
		t.Errorf("SnapshotFormat = %q", sanitized.Replication.SnapshotFormat)
	}
	if sanitized.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", sanitized.Log.Level)
	}
}

func TestToRole(t *testing.T) {
	t.Run("primary with generated id", func(t *testing.T) {
		r, err := ToRole(Default())
		if err != nil {
			t.Fatalf("ToRole() error = %v", err)
		}
		p, ok := r.(role.Primary)
		if !ok {
			t.Fatalf("ToRole() = %T, want role.Primary", r)
		}
		if len(p.ReplicationID) != 40 {
			t.Errorf("ReplicationID length = %d, want 40", len(p.ReplicationID))
		}
		if p.ReplicationOffset != 0 {
			t.Errorf("ReplicationOffset = %d, want 0", p.ReplicationOffset)
		}
	})

	t.Run("primary with configured id", func(t *testing.T) {
		cfg := Default()
		cfg.Replication.ReplID = "8371b4fb1155b71f4a04d3e1bc3e18c4a990aeeb"
		r, err := ToRole(cfg)
		if err != nil {
			t.Fatalf("ToRole() error = %v", err)
		}
		if got := r.(role.Primary).ReplicationID; got != cfg.Replication.ReplID {
			t.Errorf("ReplicationID = %q", got)
		}
	})

	t.Run("replica", func(t *testing.T) {
		cfg := Default()
		cfg.Server.Port = 6380
		cfg.Replication.ReplicaOf = "localhost 6379"
		r, err := ToRole(cfg)
		if err != nil {
			t.Fatalf("ToRole() error = %v", err)
		}
		want := role.Replica{PrimaryHost: "localhost", PrimaryPort: 6379, ListeningPort: 6380}
		if r != want {
			t.Errorf("ToRole() = %+v, want %+v", r, want)
		}
	})

	t.Run("nil config", func(t *testing.T) {
		if _, err := ToRole(nil); err == nil {
			t.Error("ToRole(nil) expected error")
		}
	})
}
