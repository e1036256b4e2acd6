// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
server:
  http_addr: "0.0.0.0:3001"
  cors_origins:
    - "http://localhost:5173"

database:
  path: "./lukso.db"

auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
  access_token_ttl: "15m"

assistant:
  api_key: "sk-test"
  assistant_id: "asst_123"
  poll_interval: "500ms"
  max_poll_attempts: 10

logging:
  level: "debug"
  format: "json"
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, "gateway.yaml", validYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:3001" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:3001")
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "http://localhost:5173" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Database.Path != "./lukso.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./lukso.db")
	}
	if cfg.Assistant.AssistantID != "asst_123" {
		t.Errorf("Assistant.AssistantID = %q, want %q", cfg.Assistant.AssistantID, "asst_123")
	}
	if cfg.Assistant.PollInterval != 500*time.Millisecond {
		t.Errorf("Assistant.PollInterval = %v, want 500ms", cfg.Assistant.PollInterval)
	}
	if cfg.Assistant.MaxPollAttempts != 10 {
		t.Errorf("Assistant.MaxPollAttempts = %d, want 10", cfg.Assistant.MaxPollAttempts)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Errorf("Auth.AccessTokenTTL = %v, want 15m", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}
}

func TestLoad_Defaults(t *testing.T) {
	content := `
server:
  http_addr: ":3001"
database:
  path: "./lukso.db"
auth:
  jwt_secret: "0123456789abcdef0123456789abcdef"
assistant:
  api_key: "sk-test"
  assistant_id: "asst_123"
`
	cfg, err := Load(writeConfig(t, "gateway.yaml", content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Assistant.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want 1s", cfg.Assistant.PollInterval)
	}
	if cfg.Assistant.MaxPollAttempts != 30 {
		t.Errorf("MaxPollAttempts = %d, want 30", cfg.Assistant.MaxPollAttempts)
	}
	if cfg.Auth.RefreshTokenTTL != 30*24*time.Hour {
		t.Errorf("RefreshTokenTTL = %v, want 720h", cfg.Auth.RefreshTokenTTL)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v, want info/text", cfg.Logging)
	}
}

func TestLoad_TOML(t *testing.T) {
	content := `
[server]
http_addr = ":3001"

[database]
path = "./lukso.db"

[auth]
jwt_secret = "0123456789abcdef0123456789abcdef"
refresh_token_ttl = "48h"

[assistant]
api_key = "${TEST_LUKSO_OPENAI_KEY}"
assistant_id = "asst_toml"
request_timeout = "10s"
`
	t.Setenv("TEST_LUKSO_OPENAI_KEY", "sk-from-env")

	cfg, err := Load(writeConfig(t, "gateway.toml", content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Assistant.AssistantID != "asst_toml" {
		t.Errorf("AssistantID = %q, want asst_toml", cfg.Assistant.AssistantID)
	}
	if cfg.Assistant.APIKey != "sk-from-env" {
		t.Errorf("APIKey = %q, want sk-from-env", cfg.Assistant.APIKey)
	}
	if cfg.Auth.RefreshTokenTTL != 48*time.Hour {
		t.Errorf("RefreshTokenTTL = %v, want 48h", cfg.Auth.RefreshTokenTTL)
	}
	if cfg.Assistant.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.Assistant.RequestTimeout)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_LUKSO_DB_PATH", "/var/lib/lukso/gateway.db")
	t.Setenv("TEST_LUKSO_SECRET", "ffffffffffffffffffffffffffffffff")

	content := strings.NewReplacer(
		`"./lukso.db"`, `"${TEST_LUKSO_DB_PATH}"`,
		`"0123456789abcdef0123456789abcdef"`, `"${TEST_LUKSO_SECRET}"`,
	).Replace(validYAML)

	cfg, err := Load(writeConfig(t, "gateway.yaml", content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/var/lib/lukso/gateway.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Auth.JWTSecret != "ffffffffffffffffffffffffffffffff" {
		t.Errorf("Auth.JWTSecret = %q", cfg.Auth.JWTSecret)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/gateway.yaml"); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "gateway.yaml", "server:\n  http_addr: [unclosed")); err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	content := strings.Replace(validYAML, `"500ms"`, `"soon"`, 1)
	_, err := Load(writeConfig(t, "gateway.yaml", content))
	if err == nil {
		t.Fatal("Load() expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "assistant.poll_interval") {
		t.Errorf("error %q should name the field", err)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv(DatabasePathEnv, "")
	base := func() *Config {
		return &Config{
			Server:    ServerConfig{HTTPAddr: ":3001"},
			Database:  DatabaseConfig{Path: "./lukso.db"},
			Auth:      AuthConfig{JWTSecret: strings.Repeat("x", MinJWTSecretLength)},
			Assistant: AssistantConfig{APIKey: "sk", AssistantID: "asst"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no http addr", mutate: func(c *Config) { c.Server.HTTPAddr = "" }, wantErr: "server.http_addr"},
		{name: "tailscale without addr", mutate: func(c *Config) {
			c.Server.HTTPAddr = ""
			c.Tailscale = TailscaleConfig{Enabled: true, Hostname: "lukso"}
		}},
		{name: "tailscale without hostname", mutate: func(c *Config) { c.Tailscale.Enabled = true }, wantErr: "tailscale.hostname"},
		{name: "no database", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "database.path"},
		{name: "short secret", mutate: func(c *Config) { c.Auth.JWTSecret = "short" }, wantErr: "auth.jwt_secret"},
		{name: "no api key", mutate: func(c *Config) { c.Assistant.APIKey = "" }, wantErr: "assistant.api_key"},
		{name: "no assistant id", mutate: func(c *Config) { c.Assistant.AssistantID = "" }, wantErr: "assistant.assistant_id"},
		{name: "negative attempts", mutate: func(c *Config) { c.Assistant.MaxPollAttempts = -1 }, wantErr: "max_poll_attempts"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_LUKSO_A", "alpha")

	got := expandEnvVars("a=${TEST_LUKSO_A} b=${TEST_LUKSO_UNSET_VAR} c=$PLAIN")
	want := "a=alpha b= c=$PLAIN"
	if got != want {
		t.Errorf("expandEnvVars() = %q, want %q", got, want)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("LUKSO_CONFIG", "/etc/lukso/custom.toml")
	if got := DefaultPath(); got != "/etc/lukso/custom.toml" {
		t.Errorf("DefaultPath() = %q, want env override", got)
	}

	t.Setenv("LUKSO_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := DefaultPath(); got != filepath.Join("/tmp/xdg", "lukso", "gateway.yaml") {
		t.Errorf("DefaultPath() = %q", got)
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Path: "/data/config.db"}}

	t.Setenv(DatabasePathEnv, "")
	if got := cfg.DatabasePath(); got != "/data/config.db" {
		t.Errorf("DatabasePath() = %q, want config path", got)
	}

	t.Setenv(DatabasePathEnv, "/data/env.db")
	if got := cfg.DatabasePath(); got != "/data/env.db" {
		t.Errorf("DatabasePath() = %q, want env override", got)
	}
}
