package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected missing file to be ok, got %v", err)
	}
	if cfg.API.BaseURL != nil {
		t.Fatalf("expected empty config")
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
base-url = "http://10.0.0.5:3002"
timeout = "15s"

[log]
level = "debug"

[download]
dir = "/tmp/exports"

[ui]
theme = "dark"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.API.BaseURL == nil || *cfg.API.BaseURL != "http://10.0.0.5:3002" {
		t.Fatalf("unexpected base url %v", cfg.API.BaseURL)
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level %v", cfg.Log.Level)
	}
	if cfg.Download.Dir == nil || *cfg.Download.Dir != "/tmp/exports" {
		t.Fatalf("unexpected download dir %v", cfg.Download.Dir)
	}
	if cfg.UI.Theme == nil || *cfg.UI.Theme != "dark" {
		t.Fatalf("unexpected theme %v", cfg.UI.Theme)
	}
	d, err := ParseTimeout(*cfg.API.Timeout)
	if err != nil || d != 15*time.Second {
		t.Fatalf("unexpected timeout %v (%v)", d, err)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api]\nbase_url = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "api.base_url") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadConfigRejectsBadTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api]\ntimeout = \"soon\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "cfg"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("XDG_DOWNLOAD_DIR", filepath.Join(dir, "dl"))

	if got := DefaultConfigPath(); got != filepath.Join(dir, "cfg", "qsurvey", "config.toml") {
		t.Fatalf("unexpected config path %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join(dir, "data", "qsurvey", "qsurvey.db") {
		t.Fatalf("unexpected db path %s", got)
	}
	if got := DefaultLogPath(); got != filepath.Join(dir, "state", "qsurvey", "qsurvey.log") {
		t.Fatalf("unexpected log path %s", got)
	}
	if got := DefaultDownloadDir(); got != filepath.Join(dir, "dl", "qsurvey") {
		t.Fatalf("unexpected download dir %s", got)
	}
}
