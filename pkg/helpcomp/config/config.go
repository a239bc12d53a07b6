package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// ErrNotFound is returned by Load when the config file does not exist.
var ErrNotFound = errors.New("config file not found")

// CacheConfig selects where parse results are kept between runs
type CacheConfig struct {
	Backend string `yaml:"backend"` // file, sqlite, memory or none
	Dir     string `yaml:"dir"`     // empty = $XDG_CACHE_HOME/helpcomp
}

// ParallelConfig tunes the dispatcher
type ParallelConfig struct {
	Threshold int `yaml:"threshold"` // units processed sequentially up to this count
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS
}

// Config represents the helpcomp configuration
type Config struct {
	Depth                int            `yaml:"depth"`
	SkipMan              bool           `yaml:"skip_man"`
	TTL                  time.Duration  `yaml:"ttl"`
	Format               string         `yaml:"format"`
	BashCompletionCompat bool           `yaml:"bash_completion_compat"`
	HelpTimeout          time.Duration  `yaml:"help_timeout"`
	LogLevel             string         `yaml:"log_level"`
	Cache                CacheConfig    `yaml:"cache"`
	Parallel             ParallelConfig `yaml:"parallel"`
}

// UnmarshalYAML decodes over the receiver's current values, so keys missing
// from the file keep their defaults, and explains malformed durations.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type configAlias Config
	temp := configAlias(*c)

	if err := node.Decode(&temp); err != nil {
		if strings.Contains(err.Error(), "time.Duration") {
			return fmt.Errorf(
				"invalid duration in config:\n"+
					"  Expected format: ttl: 6h, help_timeout: 5s\n"+
					"  Original error: %w",
				err,
			)
		}
		return err
	}

	*c = Config(temp)
	return nil
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Depth:       1,
		SkipMan:     false,
		TTL:         6 * time.Hour,
		Format:      "bash",
		HelpTimeout: 5 * time.Second,
		LogLevel:    "warn",
		Cache: CacheConfig{
			Backend: BackendFile,
			Dir:     "", // resolved against XDG_CACHE_HOME by the caller
		},
		Parallel: ParallelConfig{
			Threshold: 4,
			Workers:   0,
		},
	}
}

// Load reads the config from the specified path. Values absent from the
// file keep their defaults.
// If the file doesn't exist or is empty, it returns an error
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return Config{}, fmt.Errorf("config file is empty")
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Save writes the config to the specified path with proper formatting
func Save(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	switch {
	case c.Depth < 0:
		return fmt.Errorf("invalid config: depth must not be negative, got %d", c.Depth)
	case c.TTL < 0:
		return fmt.Errorf("invalid config: ttl must not be negative, got %s", c.TTL)
	case c.HelpTimeout < 0:
		return fmt.Errorf("invalid config: help_timeout must not be negative, got %s", c.HelpTimeout)
	case c.Parallel.Threshold < 0:
		return fmt.Errorf("invalid config: parallel.threshold must not be negative, got %d", c.Parallel.Threshold)
	case c.Parallel.Workers < 0:
		return fmt.Errorf("invalid config: parallel.workers must not be negative, got %d", c.Parallel.Workers)
	}

	switch c.Cache.Backend {
	case BackendFile, BackendSQLite, BackendMemory, BackendNone:
	default:
		return fmt.Errorf("invalid config: cache.backend must be one of %s, got %q",
			strings.Join([]string{BackendFile, BackendSQLite, BackendMemory, BackendNone}, ", "), c.Cache.Backend)
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid config: log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

// CacheDir returns the configured cache directory, or fallback when unset.
func (c Config) CacheDir(fallback string) string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return fallback
}
