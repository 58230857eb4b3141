package confloader

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Server struct {
		Port         int    `koanf:"port"`
		Bind         string `koanf:"bind"`
		MaxFrameSize int    `koanf:"max_frame_size"`
	} `koanf:"server"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func defaults() testConfig {
	var c testConfig
	c.Server.Port = 6379
	c.Server.Bind = "0.0.0.0"
	c.Server.MaxFrameSize = 1024
	c.Log.Level = "info"
	return c
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "redikv.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestNewLoader_WithOptions(t *testing.T) {
	l := NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/etc/redikv.yaml"))

	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.FilePath() != "/etc/redikv.yaml" {
		t.Errorf("FilePath() = %q", l.FilePath())
	}
	if NewLoader().envPrefix != DefaultEnvPrefix {
		t.Error("default env prefix not applied")
	}
}

func TestLoader_Load_KeepsDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 7000\n")

	cfg := defaults()
	if err := NewLoader(WithConfigFile(path), WithEnvPrefix("REDIKV_TEST_NONE_")).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7000 {
		t.Errorf("port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Server.Bind != "0.0.0.0" {
		t.Errorf("bind = %q, default should survive", cfg.Server.Bind)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log.level = %q, default should survive", cfg.Log.Level)
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	if err := NewLoader().LoadFile("/nonexistent/redikv.yaml"); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
}

func TestLoader_LoadEnv_SectionSplit(t *testing.T) {
	t.Setenv("RKVTEST_SERVER_MAX_FRAME_SIZE", "2048")
	t.Setenv("RKVTEST_LOG_LEVEL", "debug")

	cfg := defaults()
	if err := NewLoader(WithEnvPrefix("RKVTEST_")).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.MaxFrameSize != 2048 {
		t.Errorf("max_frame_size = %d, want 2048", cfg.Server.MaxFrameSize)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 7000\n  bind: 10.0.0.1\nlog:\n  level: warn\n")
	t.Setenv("RKVPRIO_SERVER_PORT", "7001")
	t.Setenv("RKVPRIO_LOG_LEVEL", "error")

	l := NewLoader(WithConfigFile(path), WithEnvPrefix("RKVPRIO_"))
	l.SetOverrides(map[string]any{"server.port": 7002})

	cfg := defaults()
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7002 {
		t.Errorf("port = %d, override should win", cfg.Server.Port)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("log.level = %q, env should beat file", cfg.Log.Level)
	}
	if cfg.Server.Bind != "10.0.0.1" {
		t.Errorf("bind = %q, file should beat default", cfg.Server.Bind)
	}
}

func TestLoader_Load_Reload(t *testing.T) {
	path := writeConfig(t, "log:\n  level: warn\n")
	l := NewLoader(WithConfigFile(path), WithEnvPrefix("RKVRELOAD_"))

	cfg := defaults()
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("log.level = %q, want warn", cfg.Log.Level)
	}

	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level after reload = %q, want debug", cfg.Log.Level)
	}
	if l.GetString("log.level") != "debug" {
		t.Errorf("GetString(log.level) = %q", l.GetString("log.level"))
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"replication.replicaof": "localhost 6379"}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}
	if got := l.GetString("replication.replicaof"); got != "localhost 6379" {
		t.Errorf("replication.replicaof = %q", got)
	}
	if _, ok := l.All()["replication.replicaof"]; !ok {
		t.Error("All() should contain the flattened key")
	}
}
