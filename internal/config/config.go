// Package config handles sidecar configuration parsing and location resolution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adamancini/sidecar/internal/types"
	"github.com/adamancini/sidecar/internal/update"
)

// Environment variables consulted by Load and FindConfig.
const (
	EnvConfig  = "SIDECAR_CONFIG"
	EnvToken   = "GITHUB_TOKEN"
	EnvAPIURL  = "SIDECAR_API_URL"
	EnvDataDir = "SIDECAR_DATA_DIR"
)

// DefaultTimeout bounds the release feed request.
const DefaultTimeout = "30s"

// Repo identifies the upstream GitHub repository.
type Repo struct {
	Owner string `yaml:"owner" toml:"owner" json:"owner"`
	Name  string `yaml:"name" toml:"name" json:"name"`
}

// String returns owner/name.
func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// Config is the parsed configuration file merged over the defaults.
type Config struct {
	Repo       Repo              `yaml:"repo" toml:"repo" json:"repo"`
	APIURL     string            `yaml:"api_url,omitempty" toml:"api_url,omitempty" json:"api_url,omitempty"`
	Token      string            `yaml:"token,omitempty" toml:"token,omitempty" json:"token,omitempty"` // Optional, raises the GitHub rate limit
	UserAgent  string            `yaml:"user_agent,omitempty" toml:"user_agent,omitempty" json:"user_agent,omitempty"`
	DataDir    string            `yaml:"data_dir,omitempty" toml:"data_dir,omitempty" json:"data_dir,omitempty"`       // Empty means DefaultDataDir
	Executable string            `yaml:"executable,omitempty" toml:"executable,omitempty" json:"executable,omitempty"` // Base name; ".exe" is added on windows
	Manifest   string            `yaml:"manifest,omitempty" toml:"manifest,omitempty" json:"manifest,omitempty"`
	Compare    types.CompareMode `yaml:"compare,omitempty" toml:"compare,omitempty" json:"compare,omitempty"`
	Timeout    string            `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty"` // Go duration, e.g. "30s"
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Repo:       Repo{Owner: "yt-dlp", Name: "yt-dlp"},
		APIURL:     update.DefaultAPIURL,
		UserAgent:  update.DefaultUserAgent,
		Executable: update.DefaultExecutableBase,
		Manifest:   update.DefaultManifestName,
		Compare:    types.CompareLexical,
		Timeout:    DefaultTimeout,
	}
}

// TimeoutDuration returns Timeout parsed as a duration. Validate guarantees
// it parses; zero disables the timeout.
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// ResolvedDataDir returns DataDir with a leading "~" expanded, or
// DefaultDataDir when DataDir is empty.
func (c *Config) ResolvedDataDir() (string, error) {
	if c.DataDir == "" {
		return DefaultDataDir()
	}
	if c.DataDir == "~" || strings.HasPrefix(c.DataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(c.DataDir, "~")), nil
	}
	return c.DataDir, nil
}

// DefaultDataDir returns the per-user directory holding the sidecar:
// $XDG_DATA_HOME/sidecar, ~/.local/share/sidecar, or %LocalAppData%\sidecar
// on windows.
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LocalAppData"); local != "" {
			return filepath.Join(local, "sidecar"), nil
		}
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "sidecar"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "sidecar"), nil
}

// FindConfig searches for a configuration file in the standard locations.
// It returns "" without error when no file exists, since every setting has
// a default. An explicit path that does not exist is an error.
func FindConfig(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	// Check SIDECAR_CONFIG environment variable
	if envPath := os.Getenv(EnvConfig); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}

	// XDG_CONFIG_HOME or default
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	candidates := []string{
		filepath.Join(xdgConfig, "sidecar", "config.yaml"),
		filepath.Join(xdgConfig, "sidecar", "config.yml"),
		filepath.Join(xdgConfig, "sidecar", "config.toml"),
		filepath.Join(xdgConfig, "sidecar", "config.json"),
		filepath.Join(home, ".sidecar.yaml"),
		filepath.Join(home, ".sidecar.yml"),
		filepath.Join(home, ".sidecar.toml"),
		filepath.Join(home, ".sidecar.json"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", nil
}

// Load reads the configuration at path over the defaults, applies
// environment overrides and validates the result. An empty path yields the
// defaults with environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		format := detectFormat(path, content)
		if format == FormatUnknown {
			return nil, fmt.Errorf("unable to detect file format for %s", path)
		}

		if err := parse(content, format, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overlays environment settings. SIDECAR_* variables always win;
// GITHUB_TOKEN only fills an unset token.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv(EnvToken)
	}
}
