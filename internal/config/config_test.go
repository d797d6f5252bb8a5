package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Bind != "127.0.0.1" || cfg.Server.Port != 38880 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Memory.Language != "en" {
		t.Errorf("language = %q, want en", cfg.Memory.Language)
	}
	if cfg.Memory.AutoConnect != "sync" {
		t.Errorf("auto_connect = %q, want sync", cfg.Memory.AutoConnect)
	}
	if cfg.ListenAddr() != "127.0.0.1:38880" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr())
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 38880 {
		t.Errorf("port = %d, want default", cfg.Server.Port)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semmem.toml")
	content := `
[server]
bind = "0.0.0.0"
port = 9000

[database]
path = "/tmp/test.db"

[memory]
language = "ru"
auto_connect = "async"
retention_enabled = true
retention_hours = 6
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr() != "0.0.0.0:9000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr())
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Memory.Language != "ru" || cfg.Memory.AutoConnect != "async" {
		t.Errorf("memory = %+v", cfg.Memory)
	}
	// Unset keys keep their defaults.
	if cfg.Memory.RetentionMaxAge != 30 {
		t.Errorf("retention_max_age = %d, want default 30", cfg.Memory.RetentionMaxAge)
	}
	if cfg.RetentionInterval() != 6*time.Hour {
		t.Errorf("interval = %v, want 6h", cfg.RetentionInterval())
	}
}

func TestLoadBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	os.WriteFile(path, []byte("[server\nport="), 0644)

	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
