package cli

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/helpcomp/helpcomp/internal/xdg"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/cache"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/config"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/output"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/source"
)

// ResolveConfigPath returns the effective config path considering:
// 1. Explicit configPath argument (highest priority, e.g. -C flag)
// 2. HELPCOMP_CONFIG env var
// 3. XDG default path
// The warning is non-nil when configPath overrides HELPCOMP_CONFIG.
func ResolveConfigPath(configPath string) (string, *output.Warning) {
	if configPath != "" {
		if env := os.Getenv("HELPCOMP_CONFIG"); env != "" {
			return configPath, output.NewWarning(output.CodeWarnIgnoringConfig,
				"HELPCOMP_CONFIG environment variable ignored because -C flag was specified").
				WithDetail("ignored", env)
		}
		return configPath, nil
	}
	if envConfig := os.Getenv("HELPCOMP_CONFIG"); envConfig != "" {
		return envConfig, nil
	}
	xdgPaths, _ := xdg.NewPaths()
	return xdgPaths.ConfigPath(), nil
}

// Options carries the global flags. Zero values defer to the config file.
type Options struct {
	ConfigPath   string
	Silent       bool
	Strict       bool
	JSON         bool
	Verbose      int
	CacheBackend string
	CacheDir     string
	TTL          time.Duration

	Stdin  *os.File
	Stdout io.Writer
	Stderr io.Writer

	// Runner replaces process execution, for tests.
	Runner source.Runner
}

// CLI represents the command-line interface
type CLI struct {
	configPath string
	xdgPaths   xdg.Paths
	config     config.Config
	logger     *zap.Logger
	cache      ResultCache // nil when caching is disabled
	cacheDir   string
	runner     source.Runner
	stdin      *os.File
	output     *output.Handler
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) (*CLI, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	xdgPaths, err := xdg.NewPaths()
	if err != nil {
		return nil, output.Wrap(output.CodeConfigInvalid, err, "failed to get XDG paths")
	}

	explicit := opts.ConfigPath != ""
	configPath, ignored := ResolveConfigPath(opts.ConfigPath)

	cfg, err := config.Load(configPath)
	switch {
	case errors.Is(err, config.ErrNotFound) && !explicit:
		cfg = config.DefaultConfig()
	case errors.Is(err, config.ErrNotFound):
		return nil, output.NewErrorf(output.CodeConfigNotFound, "config file not found: %s", configPath)
	case err != nil:
		return nil, output.Wrap(output.CodeConfigParseError, err, "failed to load config")
	}

	if opts.CacheBackend != "" {
		cfg.Cache.Backend = opts.CacheBackend
	}
	if opts.CacheDir != "" {
		cfg.Cache.Dir = opts.CacheDir
	}
	if opts.TTL > 0 {
		cfg.TTL = opts.TTL
	}
	if err := cfg.Validate(); err != nil {
		return nil, output.Wrap(output.CodeConfigInvalid, err, "invalid settings")
	}

	level, err := ParseLogLevel(cfg.LogLevel, opts.Verbose)
	if err != nil {
		return nil, output.Wrap(output.CodeConfigInvalid, err, "invalid settings")
	}

	c := &CLI{
		configPath: configPath,
		xdgPaths:   xdgPaths,
		config:     cfg,
		logger:     NewLogger(opts.Stderr, level),
		cacheDir:   cfg.CacheDir(xdgPaths.CacheDir()),
		runner:     opts.Runner,
		stdin:      opts.Stdin,
		output: output.NewHandler(opts.Stdout, opts.Stderr,
			output.WithSilent(opts.Silent),
			output.WithStrict(opts.Strict),
			output.WithJSON(opts.JSON),
		),
	}

	if ignored != nil {
		if err := c.output.Warn(ignored); err != nil {
			return nil, err
		}
	}
	if err := c.openCache(); err != nil {
		if werr := c.output.Warnf(output.CodeWarnCacheUnavailable, "cache disabled: %v", err); werr != nil {
			return nil, werr
		}
	}
	return c, nil
}

// openCache opens the configured backend. Failing to open it is not fatal:
// the run proceeds uncached.
func (c *CLI) openCache() error {
	var store cache.Store
	switch c.config.Cache.Backend {
	case config.BackendNone:
		return nil
	case config.BackendMemory:
		store = cache.NewMemoryStore(cache.DefaultMemoryEntries)
	case config.BackendSQLite:
		if err := os.MkdirAll(c.cacheDir, 0o700); err != nil {
			return err
		}
		s, err := cache.OpenSQLStore(filepath.Join(c.cacheDir, "cache.db"))
		if err != nil {
			return err
		}
		store = s
	default:
		s, err := cache.NewFileStore(c.cacheDir)
		if err != nil {
			return err
		}
		store = s
	}

	rc, err := cache.New(store,
		cache.WithTTL(c.config.TTL),
		cache.WithLogger(c.logger.Named("cache")),
	)
	if err != nil {
		_ = store.Close()
		return err
	}
	c.cache = rc
	return nil
}

// Config returns the effective configuration, flags applied.
func (c *CLI) Config() config.Config {
	return c.config
}

// ConfigPath returns the config file path that was consulted.
func (c *CLI) ConfigPath() string {
	return c.configPath
}

// Logger returns the CLI logger.
func (c *CLI) Logger() *zap.Logger {
	return c.logger
}

// Output returns the unified output handler for this CLI instance.
func (c *CLI) Output() *output.Handler {
	return c.output
}

// Close releases the cache and flushes the logger.
func (c *CLI) Close() error {
	_ = c.logger.Sync()
	if c.cache != nil {
		return c.cache.Close()
	}
	return nil
}
