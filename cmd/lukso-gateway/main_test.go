// ABOUTME: Tests for the bootstrap command against a real SQLite file
// ABOUTME: The admin must land in the same database serve would open

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luksoai/lukso-gateway/internal/config"
	"github.com/luksoai/lukso-gateway/internal/store"
)

func writeTestConfig(t *testing.T, dbPath string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	content := `server:
  http_addr: "127.0.0.1:3001"
database:
  path: "` + dbPath + `"
auth:
  jwt_secret: "` + strings.Repeat("s", config.MinJWTSecretLength) + `"
assistant:
  api_key: "sk-test"
  assistant_id: "asst_1"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestRunBootstrap_HonorsDatabaseEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configDB := filepath.Join(dir, "config.db")
	envDB := filepath.Join(dir, "env.db")
	cfgPath := writeTestConfig(t, configDB)
	t.Setenv(config.DatabasePathEnv, envDB)

	ctx := context.Background()
	if err := runBootstrap(ctx, cfgPath, "root@example.com", "Root", "s3cret!"); err != nil {
		t.Fatalf("runBootstrap() error = %v", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	if cfg.DatabasePath() != envDB {
		t.Fatalf("DatabasePath() = %q, want %q", cfg.DatabasePath(), envDB)
	}

	s, err := store.NewSQLiteStore(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer s.Close()

	admin, err := s.GetProfileByEmail(ctx, "root@example.com")
	if err != nil {
		t.Fatalf("GetProfileByEmail() error = %v", err)
	}
	if admin.Role != store.RoleAdmin {
		t.Errorf("Role = %q, want admin", admin.Role)
	}

	if _, err := os.Stat(configDB); !os.IsNotExist(err) {
		t.Errorf("config database should not have been created, stat err = %v", err)
	}
}

func TestRunBootstrap_OnlyOnce(t *testing.T) {
	t.Setenv(config.DatabasePathEnv, "")
	cfgPath := writeTestConfig(t, filepath.Join(t.TempDir(), "gateway.db"))
	ctx := context.Background()

	if err := runBootstrap(ctx, cfgPath, "root@example.com", "Root", "s3cret!"); err != nil {
		t.Fatalf("first runBootstrap() error = %v", err)
	}
	err := runBootstrap(ctx, cfgPath, "other@example.com", "Other", "s3cret!")
	if err == nil || !strings.Contains(err.Error(), "already complete") {
		t.Errorf("second runBootstrap() error = %v, want already complete", err)
	}
}
