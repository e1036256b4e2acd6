// ABOUTME: Configuration loading and parsing for lukso-gateway
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// MinJWTSecretLength is the shortest accepted auth.jwt_secret
const MinJWTSecretLength = 32

// Config represents the complete lukso-gateway configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale" toml:"tailscale"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth"`
	Assistant AssistantConfig `yaml:"assistant" toml:"assistant"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	HTTPAddr    string   `yaml:"http_addr" toml:"http_addr"`
	CORSOrigins []string `yaml:"cors_origins" toml:"cors_origins"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Hostname  string `yaml:"hostname" toml:"hostname"`
	AuthKey   string `yaml:"auth_key" toml:"auth_key"`
	StateDir  string `yaml:"state_dir" toml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral" toml:"ephemeral"`
	Funnel    bool   `yaml:"funnel" toml:"funnel"` // public Funnel ingress over HTTPS
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// DatabasePathEnv overrides database.path for every command when set
const DatabasePathEnv = "LUKSO_DB_PATH"

// DatabasePath returns the SQLite path, preferring $LUKSO_DB_PATH over database.path.
func (c *Config) DatabasePath() string {
	if envPath := os.Getenv(DatabasePathEnv); envPath != "" {
		return envPath
	}
	return c.Database.Path
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret" toml:"jwt_secret"`
	AccessTokenTTL  time.Duration `yaml:"-" toml:"-"`
	RefreshTokenTTL time.Duration `yaml:"-" toml:"-"`

	AccessTokenTTLRaw  string `yaml:"access_token_ttl" toml:"access_token_ttl"`
	RefreshTokenTTLRaw string `yaml:"refresh_token_ttl" toml:"refresh_token_ttl"`
}

// AssistantConfig holds the assistant runtime connection and polling settings
type AssistantConfig struct {
	APIKey          string        `yaml:"api_key" toml:"api_key"`
	BaseURL         string        `yaml:"base_url" toml:"base_url"`
	AssistantID     string        `yaml:"assistant_id" toml:"assistant_id"`
	MaxPollAttempts int           `yaml:"max_poll_attempts" toml:"max_poll_attempts"`
	PollInterval    time.Duration `yaml:"-" toml:"-"`
	RequestTimeout  time.Duration `yaml:"-" toml:"-"`

	PollIntervalRaw   string `yaml:"poll_interval" toml:"poll_interval"`
	RequestTimeoutRaw string `yaml:"request_timeout" toml:"request_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// DefaultPath returns the config file location.
// Priority: LUKSO_CONFIG env var > XDG_CONFIG_HOME/lukso/gateway.yaml > ~/.config/lukso/gateway.yaml
func DefaultPath() string {
	if envPath := os.Getenv("LUKSO_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "lukso", "gateway.yaml")
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

func (c *Config) applyDefaults() {
	if c.Assistant.PollInterval == 0 {
		c.Assistant.PollInterval = time.Second
	}
	if c.Assistant.MaxPollAttempts == 0 {
		c.Assistant.MaxPollAttempts = 30
	}
	if c.Assistant.RequestTimeout == 0 {
		c.Assistant.RequestTimeout = 30 * time.Second
	}
	if c.Auth.AccessTokenTTL == 0 {
		c.Auth.AccessTokenTTL = time.Hour
	}
	if c.Auth.RefreshTokenTTL == 0 {
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}

	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	if c.DatabasePath() == "" {
		return fmt.Errorf("database.path is required (or set %s)", DatabasePathEnv)
	}

	if len(c.Auth.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d characters", MinJWTSecretLength)
	}

	if c.Assistant.APIKey == "" {
		return fmt.Errorf("assistant.api_key is required")
	}
	if c.Assistant.AssistantID == "" {
		return fmt.Errorf("assistant.assistant_id is required")
	}
	if c.Assistant.MaxPollAttempts < 0 {
		return fmt.Errorf("assistant.max_poll_attempts must not be negative")
	}
	if c.Assistant.PollInterval < 0 {
		return fmt.Errorf("assistant.poll_interval must not be negative")
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"auth.access_token_ttl", cfg.Auth.AccessTokenTTLRaw, &cfg.Auth.AccessTokenTTL},
		{"auth.refresh_token_ttl", cfg.Auth.RefreshTokenTTLRaw, &cfg.Auth.RefreshTokenTTL},
		{"assistant.poll_interval", cfg.Assistant.PollIntervalRaw, &cfg.Assistant.PollInterval},
		{"assistant.request_timeout", cfg.Assistant.RequestTimeoutRaw, &cfg.Assistant.RequestTimeout},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return nil
}
