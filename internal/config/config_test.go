package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected host '127.0.0.1', got %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 4444 {
		t.Errorf("expected port 4444, got %d", cfg.Server.Port)
	}
	if cfg.Server.LogLevel != "info" {
		t.Errorf("expected log level 'info', got %q", cfg.Server.LogLevel)
	}
	if cfg.Session.MaxSessions != 0 {
		t.Errorf("expected max_sessions 0, got %d", cfg.Session.MaxSessions)
	}
	if cfg.Session.SpawnTimeout != "30s" {
		t.Errorf("expected spawn timeout '30s', got %q", cfg.Session.SpawnTimeout)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error for empty path, got %v", err)
	}
	if cfg.Server.Port != 4444 {
		t.Errorf("expected defaults to be returned, got port %d", cfg.Server.Port)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestLoadValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  host: "0.0.0.0"
  port: 9515
  log_level: "debug"

session:
  max_sessions: 4
  spawn_timeout: "10s"
  default_script_timeout_ms: 5000
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected host '0.0.0.0', got %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 9515 {
		t.Errorf("expected port 9515, got %d", cfg.Server.Port)
	}
	if cfg.Session.MaxSessions != 4 {
		t.Errorf("expected max_sessions 4, got %d", cfg.Session.MaxSessions)
	}
	if cfg.Session.DefaultScriptTimeoutMs() != 5000 {
		t.Errorf("expected default script timeout 5000, got %d", cfg.Session.DefaultScriptTimeoutMs())
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("invalid: yaml: content:"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadInvalidPort(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("server:\n  port: 0\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("expected error for out-of-range port")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"zero port", Config{Server: ServerConfig{Port: 0}}, true},
		{"negative port", Config{Server: ServerConfig{Port: -1}}, true},
		{"port too large", Config{Server: ServerConfig{Port: 70000}}, true},
		{"negative max sessions", Config{Server: ServerConfig{Port: 4444}, Session: SessionConfig{MaxSessions: -1}}, true},
		{"valid", Config{Server: ServerConfig{Port: 4444}, Session: SessionConfig{MaxSessions: 0}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error but got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSpawnTimeoutDuration(t *testing.T) {
	tests := []struct {
		name     string
		timeout  string
		expected time.Duration
	}{
		{"empty string", "", 30 * time.Second},
		{"valid duration", "45s", 45 * time.Second},
		{"invalid duration", "not-a-duration", 30 * time.Second},
		{"minutes", "2m", 2 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := SessionConfig{SpawnTimeout: tt.timeout}
			result := cfg.SpawnTimeoutDuration()
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestDefaultScriptTimeoutMs(t *testing.T) {
	t.Run("nil defaults to 30000", func(t *testing.T) {
		cfg := SessionConfig{}
		if got := cfg.DefaultScriptTimeoutMs(); got != 30000 {
			t.Errorf("expected 30000, got %d", got)
		}
	})

	t.Run("explicit value", func(t *testing.T) {
		val := int64(1500)
		cfg := SessionConfig{DefaultScriptTimeout: &val}
		if got := cfg.DefaultScriptTimeoutMs(); got != 1500 {
			t.Errorf("expected 1500, got %d", got)
		}
	})
}
