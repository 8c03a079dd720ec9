package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"keyflow/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file to report exists=false")
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.KeySystems.Preferred != "com.widevine.alpha" {
		t.Fatalf("unexpected default key system %q", cfg.KeySystems.Preferred)
	}
	if cfg.ProbeCache.Path == "" {
		t.Fatal("expected probe cache path derived from cache dir")
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := strings.Join([]string{
		"[paths]",
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		`cache_dir = "` + filepath.Join(dir, "cache") + `"`,
		"[logging]",
		`format = "JSON"`,
		`level = "DEBUG"`,
		"[keysystems]",
		`preferred = "com.example.drm"`,
		"[probe_cache]",
		"enabled = true",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be read")
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging not normalized: %+v", cfg.Logging)
	}
	if cfg.KeySystems.Preferred != "com.example.drm" {
		t.Fatalf("unexpected key system %q", cfg.KeySystems.Preferred)
	}
	if cfg.ProbeCache.Path != filepath.Join(dir, "cache", "probes.db") {
		t.Fatalf("unexpected probe cache path %q", cfg.ProbeCache.Path)
	}
}

func TestLoadRejectsBadLoggingFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[logging]\nformat = \"xml\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for bad logging format")
	}
}

func TestKeySystemIdentifierIsNotCaseFolded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[keysystems]\npreferred = \"com.Example.DRM\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.KeySystems.Preferred != "com.Example.DRM" {
		t.Fatalf("identifier was transformed: %q", cfg.KeySystems.Preferred)
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[keysystems]") {
		t.Fatal("sample missing keysystems section")
	}
	// The sample must itself be loadable.
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}
