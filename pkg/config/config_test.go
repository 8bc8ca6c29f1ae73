package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notify.config.yaml")
	data := []byte("db:\n  user: ops\n  password: secret\n  name: dispatch\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.DB.Host != "127.0.0.1" {
		t.Errorf("DB.Host = %q, want 127.0.0.1", cfg.DB.Host)
	}
	if cfg.DB.Port != 5432 {
		t.Errorf("DB.Port = %d, want 5432", cfg.DB.Port)
	}
	if cfg.DB.SSLMode != "disable" {
		t.Errorf("DB.SSLMode = %q, want disable", cfg.DB.SSLMode)
	}
	if cfg.Notifier.TimeoutSeconds != 10 {
		t.Errorf("Notifier.TimeoutSeconds = %d, want 10", cfg.Notifier.TimeoutSeconds)
	}
	if cfg.Cache.MaxSize != 256 {
		t.Errorf("Cache.MaxSize = %d, want 256", cfg.Cache.MaxSize)
	}

	want := "user=ops password=secret dbname=dispatch sslmode=disable host=127.0.0.1 port=5432"
	if got := cfg.GetConnString(); got != want {
		t.Errorf("GetConnString() = %q, want %q", got, want)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("LoadConfig should fail for a missing file")
	}
}
