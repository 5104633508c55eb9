package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OCRINVOICES_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8000" || cfg.DataDir != "data" || cfg.TempDir != "temp_batches" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.IsProduction() {
		t.Fatalf("default environment must not be production")
	}
	if cfg.Tracing.Enabled {
		t.Fatalf("tracing must default off")
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("addr: \":9000\"\ndata_dir: /srv/ocr\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OCRINVOICES_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.DataDir != "/srv/ocr" {
		t.Fatalf("overlay not applied: %+v", cfg)
	}
	if cfg.TempDir != "temp_batches" {
		t.Fatalf("unset keys must keep defaults: %+v", cfg)
	}
}

func TestLoadEnvWinsOverYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("addr: \":9000\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OCRINVOICES_CONFIG", path)
	t.Setenv("OCRINVOICES_ADDR", ":7000")
	t.Setenv("OCRINVOICES_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7000" {
		t.Fatalf("env override not applied: %+v", cfg)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production environment")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\tnot yaml"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OCRINVOICES_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed config")
	}
}
