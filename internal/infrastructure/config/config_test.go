package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
api:
  host: "0.0.0.0"
  port: 9090
pairing:
  token_ttl: 30
  consume_codes: true
heartbeat:
  stale_after: 120
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if !cfg.Pairing.ConsumeCodes {
		t.Error("Pairing.ConsumeCodes = false, want true")
	}
	if got := cfg.Pairing.TokenTTLDuration(); got != 30*time.Minute {
		t.Errorf("TokenTTLDuration() = %v, want 30m", got)
	}
	if got := cfg.Heartbeat.StaleAfterDuration(); got != 120*time.Second {
		t.Errorf("StaleAfterDuration() = %v, want 2m", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.Port != 8080 {
		t.Errorf("API.Port default = %d, want 8080", cfg.API.Port)
	}
	if cfg.WebSocket.PingInterval != 30 {
		t.Errorf("WebSocket.PingInterval default = %d, want 30", cfg.WebSocket.PingInterval)
	}
	if cfg.Pairing.TokenTTL != 15 {
		t.Errorf("Pairing.TokenTTL default = %d, want 15", cfg.Pairing.TokenTTL)
	}
	if cfg.Pairing.ConsumeCodes {
		t.Error("Pairing.ConsumeCodes default = true, want false (legacy code flow)")
	}
	if cfg.Heartbeat.StaleAfter != 90 {
		t.Errorf("Heartbeat.StaleAfter default = %d, want 90", cfg.Heartbeat.StaleAfter)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "/tmp/test.db"
`)

	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for missing JWT secret, got nil")
	}
}

func TestLoad_ShortJWTSecret(t *testing.T) {
	path := writeConfig(t, `
security:
  jwt:
    secret: "short"
`)

	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for short JWT secret, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "/tmp/from-file.db"
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`)

	t.Setenv("ROOMSIGN_DATABASE_PATH", "/tmp/from-env.db")
	t.Setenv("ROOMSIGN_API_PORT", "7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/from-env.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.API.Port != 7070 {
		t.Errorf("API.Port = %d, want env override 7070", cfg.API.Port)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.JWT.Secret = "test-secret-key-at-least-32-chars!"
	cfg.API.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for port 0, got nil")
	}
}

func TestValidate_InvalidQoS(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.JWT.Secret = "test-secret-key-at-least-32-chars!"
	cfg.MQTT.QoS = 3

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for QoS 3, got nil")
	}
}
