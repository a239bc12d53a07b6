package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Depth != 1 {
		t.Errorf("expected depth 1, got %d", cfg.Depth)
	}
	if cfg.TTL != 6*time.Hour {
		t.Errorf("expected ttl 6h, got %s", cfg.TTL)
	}
	if cfg.Parallel.Threshold != 4 {
		t.Errorf("expected parallel threshold 4, got %d", cfg.Parallel.Threshold)
	}
	if cfg.Cache.Backend != BackendFile {
		t.Errorf("expected file cache backend, got %s", cfg.Cache.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "depth: 3\nttl: 30m\ncache:\n  backend: sqlite\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Depth != 3 {
		t.Errorf("expected depth 3, got %d", cfg.Depth)
	}
	if cfg.TTL != 30*time.Minute {
		t.Errorf("expected ttl 30m, got %s", cfg.TTL)
	}
	if cfg.Cache.Backend != BackendSQLite {
		t.Errorf("expected sqlite backend, got %s", cfg.Cache.Backend)
	}
	if cfg.HelpTimeout != 5*time.Second {
		t.Errorf("help_timeout should keep its default, got %s", cfg.HelpTimeout)
	}
	if cfg.Parallel.Threshold != 4 {
		t.Errorf("parallel.threshold should keep its default, got %d", cfg.Parallel.Threshold)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty", "  \n", "config file is empty"},
		{"bad duration", "ttl: soon\n", "invalid duration in config"},
		{"bad yaml", "depth: [\n", "failed to parse config"},
		{"negative depth", "depth: -1\n", "depth must not be negative"},
		{"unknown backend", "cache:\n  backend: redis\n", "cache.backend must be one of"},
		{"unknown level", "log_level: loud\n", "log_level must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.SkipMan = true
	cfg.TTL = 90 * time.Minute
	cfg.Cache.Dir = "/var/cache/helpcomp"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "ttl: 1h30m0s") {
		t.Errorf("durations should be saved as strings:\n%s", data)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("saved config is not valid YAML: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != cfg {
		t.Errorf("round trip mismatch:\nwant %+v\ngot  %+v", cfg, loaded)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}
}

func TestCacheDir(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.CacheDir("/fallback"); got != "/fallback" {
		t.Errorf("expected fallback, got %s", got)
	}
	cfg.Cache.Dir = "/custom"
	if got := cfg.CacheDir("/fallback"); got != "/custom" {
		t.Errorf("expected /custom, got %s", got)
	}
}
