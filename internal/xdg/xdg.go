package xdg

import (
	"os"
	"os/user"
	"path/filepath"
)

const appName = "helpcomp"

// Paths holds XDG-compliant directory paths
type Paths struct {
	ConfigHome string
	DataHome   string
	CacheHome  string
}

// NewPaths returns XDG-compliant directory paths
// If XDG environment variables are set, they are used; otherwise, defaults are applied
func NewPaths() (Paths, error) {
	homeDir, err := getHomeDir()
	if err != nil {
		return Paths{}, err
	}

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(homeDir, ".config")
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(homeDir, ".local", "share")
	}

	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		cacheHome = filepath.Join(homeDir, ".cache")
	}

	return Paths{
		ConfigHome: configHome,
		DataHome:   dataHome,
		CacheHome:  cacheHome,
	}, nil
}

// getHomeDir returns the user's home directory
func getHomeDir() (string, error) {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home, nil
	}
	currentUser, err := user.Current()
	if err != nil {
		return "", err
	}
	return currentUser.HomeDir, nil
}

// ConfigPath returns the path to the config file
func (p Paths) ConfigPath() string {
	return filepath.Join(p.ConfigHome, appName, "config.yaml")
}

// CacheDir returns the directory holding cached parse results
func (p Paths) CacheDir() string {
	return filepath.Join(p.CacheHome, appName)
}

// CompletionsDir returns the directory --write stores scripts in when the
// shell has no conventional user location.
func (p Paths) CompletionsDir() string {
	return filepath.Join(p.DataHome, appName, "completions")
}

// CompletionPath returns where a completion file for the given shell is
// written. Bash, zsh and fish use the directories their completion loaders
// search; other shells use CompletionsDir.
func (p Paths) CompletionPath(shell, fileName string) string {
	switch shell {
	case "bash":
		return filepath.Join(p.DataHome, "bash-completion", "completions", fileName)
	case "zsh":
		return filepath.Join(p.DataHome, "zsh", "site-functions", fileName)
	case "fish":
		return filepath.Join(p.ConfigHome, "fish", "completions", fileName)
	}
	return filepath.Join(p.CompletionsDir(), fileName)
}

// EnsureDirs creates necessary directories with proper permissions (0700)
func (p Paths) EnsureDirs() error {
	dirs := []string{
		filepath.Join(p.ConfigHome, appName),
		p.CacheDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return nil
}
