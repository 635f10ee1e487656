package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	uploads := filepath.Join(t.TempDir(), "uploads")
	dir := writeConfig(t, `
server:
  mode: debug
jwt:
  secret: short
storage:
  local_path: `+uploads+`
attempt:
  active_window_hours: 2
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Database.Driver != "mysql" {
		t.Errorf("defaults not applied: %+v %+v", cfg.Server, cfg.Database)
	}
	if cfg.JWT.ExpireTime != 72*time.Hour {
		t.Errorf("jwt expiry = %v", cfg.JWT.ExpireTime)
	}
	if cfg.Attempt.ActiveWindow() != 2*time.Hour || cfg.Attempt.LockTTL() != 30*time.Second {
		t.Errorf("attempt = %+v", cfg.Attempt)
	}
	if cfg.Attempt.RatingRetries != 3 || cfg.Events.Exchange != "victorina.events" {
		t.Errorf("attempt/events defaults = %+v %+v", cfg.Attempt, cfg.Events)
	}
	if _, err := os.Stat(uploads); err != nil {
		t.Errorf("local storage dir not created: %v", err)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := writeConfig(t, "storage:\n  local_path: "+t.TempDir()+"\n")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Driver != "postgres" || cfg.Server.Port != "9090" {
		t.Fatalf("env not applied: %+v %+v", cfg.Database, cfg.Server)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	local := t.TempDir()
	tests := []struct {
		name string
		body string
		want string
	}{
		{"short secret in release", "server:\n  mode: release\njwt:\n  secret: short\n", "JWT secret is too short"},
		{"unknown driver", "database:\n  driver: sqlite\n", "unsupported database driver"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeConfig(t, tt.body+"storage:\n  local_path: "+local+"\n")
			_, err := LoadConfig(dir)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}

	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Fatal("missing config file accepted")
	}
}

func TestAttemptConfigFallbacks(t *testing.T) {
	var c AttemptConfig
	if c.ActiveWindow() != 24*time.Hour || c.LockTTL() != 30*time.Second {
		t.Fatalf("zero config = %v, %v", c.ActiveWindow(), c.LockTTL())
	}
}
