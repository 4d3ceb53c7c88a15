package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_HasEndpointsAndLimits(t *testing.T) {
	cfg := Default()
	if cfg.Endpoints == nil || cfg.Endpoints.Pug == "" {
		t.Fatal("default config missing endpoints")
	}
	if cfg.Limits == nil || cfg.Limits.CompoundConcurrency != 5 {
		t.Errorf("expected compound concurrency 5, got %+v", cfg.Limits)
	}
	if cfg.Limits.TranslationConcurrency != 10 {
		t.Errorf("expected translation concurrency 10, got %d", cfg.Limits.TranslationConcurrency)
	}
}

func TestLoadFrom_NotFound(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, ok := err.(*NotFoundError); !ok {
		t.Errorf("expected *NotFoundError, got %T", err)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected error for malformed file")
	}
	if _, ok := err.(*InvalidError); !ok {
		t.Errorf("expected *InvalidError, got %T", err)
	}
}

func TestLoadFrom_PartialMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"dataDir": "/tmp/chemsearch-test", "limits": {"compoundConcurrency": 2}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataDir != "/tmp/chemsearch-test" {
		t.Errorf("dataDir not taken from file: %s", cfg.DataDir)
	}
	if cfg.Limits.CompoundConcurrency != 2 {
		t.Errorf("expected compound concurrency 2, got %d", cfg.Limits.CompoundConcurrency)
	}
	// Untouched fields fall back to defaults.
	if cfg.Limits.TranslationConcurrency != 10 {
		t.Errorf("expected default translation concurrency, got %d", cfg.Limits.TranslationConcurrency)
	}
	if cfg.Endpoints == nil || cfg.Endpoints.SDQ == "" {
		t.Error("expected default endpoints to be filled in")
	}
}

func TestDataPath(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	if got := cfg.DataPath("cid_cache.json"); got != filepath.Join("/data", "cid_cache.json") {
		t.Errorf("unexpected data path: %s", got)
	}
}
