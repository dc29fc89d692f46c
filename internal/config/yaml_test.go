package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAndLoadDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spardha.yaml")
	if err := WriteDefaultConfig(path); err != nil {
		t.Fatalf("WriteDefaultConfig: %v", err)
	}

	cfg, err := LoadYAMLConfig(path)
	if err != nil {
		t.Fatalf("LoadYAMLConfig: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("got port %d, want 8080", cfg.Server.Port)
	}
	if cfg.Gate.PIN != DefaultPIN {
		t.Errorf("got pin %q, want %q", cfg.Gate.PIN, DefaultPIN)
	}
	if cfg.Auth.SessionMaxAge != "12h" {
		t.Errorf("got session max age %q, want 12h", cfg.Auth.SessionMaxAge)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("got driver %q, want %q", cfg.Database.Driver, DriverSQLite)
	}
}

func TestLoadYAMLConfigExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("SPARDHA_TEST_DSN", "postgres://festival@db/spardha")

	path := filepath.Join(t.TempDir(), "spardha.yaml")
	content := []byte("database:\n  driver: postgres\n  dsn: ${SPARDHA_TEST_DSN}\ngate:\n  pin: \"4242\"\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadYAMLConfig(path)
	if err != nil {
		t.Fatalf("LoadYAMLConfig: %v", err)
	}
	if cfg.Database.DSN != "postgres://festival@db/spardha" {
		t.Errorf("got dsn %q", cfg.Database.DSN)
	}
	if cfg.Gate.PIN != "4242" {
		t.Errorf("got pin %q, want 4242", cfg.Gate.PIN)
	}
	if cfg.Gate.Delay != "1s" {
		t.Errorf("expected default delay to survive partial file, got %q", cfg.Gate.Delay)
	}
}

func TestLoadYAMLConfigMissingFile(t *testing.T) {
	if _, err := LoadYAMLConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
