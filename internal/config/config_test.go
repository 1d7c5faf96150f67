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
	body = strings.ReplaceAll(body, "{{uploads}}", filepath.ToSlash(filepath.Join(dir, "uploads")))
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

// TestLoadConfigDefaults verifies defaults and unit conversion on a minimal file.
func TestLoadConfigDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
jwt:
  secret: short
storage:
  local_path: {{uploads}}
`)
	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWT.ExpireTime != 24*time.Hour {
		t.Fatalf("expire = %v, want 24h", cfg.JWT.ExpireTime)
	}
	if cfg.Inference.Timeout != 5*time.Second || cfg.Inference.HealthCheckInterval != 5*time.Second {
		t.Fatalf("unexpected inference timings %+v", cfg.Inference)
	}
	if cfg.Recognition.Debounce() != 1500*time.Millisecond || cfg.Recognition.DuplicateWindow() != 3*time.Second {
		t.Fatalf("unexpected recognition timings %+v", cfg.Recognition)
	}
	if cfg.Recognition.MaxTranscript != 50 || cfg.Recognition.FrameInterval() != 50*time.Millisecond {
		t.Fatalf("unexpected recognition config %+v", cfg.Recognition)
	}
	if cfg.Admin.Name != "Administrator" {
		t.Fatalf("unexpected admin name %q", cfg.Admin.Name)
	}
	if cfg.Log.File != "logs/app.log" || cfg.Log.MaxSizeMB != 100 || cfg.Tracing.ServiceName != "signlearn-backend" || cfg.Tracing.SampleRatio != 1 {
		t.Fatalf("unexpected log/tracing defaults %+v %+v", cfg.Log, cfg.Tracing)
	}
	if cfg.ConfigPath == "" {
		t.Fatalf("expected config path to be recorded")
	}
	if _, err := os.Stat(cfg.Storage.LocalPath); err != nil {
		t.Fatalf("local storage dir not created: %v", err)
	}
}

// TestLoadConfigReleaseRequiresLongSecret verifies release mode rejects weak JWT secrets.
func TestLoadConfigReleaseRequiresLongSecret(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
jwt:
  secret: short
storage:
  local_path: {{uploads}}
`)
	if _, err := LoadConfig(dir); err == nil {
		t.Fatalf("expected error for short secret in release mode")
	}
}

// TestLoadConfigRejectsZeroTranscript verifies the transcript cap must be positive.
func TestLoadConfigRejectsZeroTranscript(t *testing.T) {
	dir := writeConfig(t, `
recognition:
  max_transcript: 0
storage:
  local_path: {{uploads}}
`)
	if _, err := LoadConfig(dir); err == nil {
		t.Fatalf("expected error for zero transcript cap")
	}
}

// TestLoadConfigMissingFile verifies a missing config file is an error.
func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(t.TempDir()); err == nil {
		t.Fatalf("expected error for missing config")
	}
}
