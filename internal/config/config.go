// Package config defines the engine configuration threaded through every
// component constructor.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Config describes one engine instance. A value is built once at startup by
// Load and never mutated afterwards.
type Config struct {
	Bin            string              // binary name on PATH (e.g. "cli-engine")
	Name           string              // product name used in remote URLs
	Version        string              // current semver, injected via ldflags
	Channel        string              // release channel ("stable", "beta", ...)
	Platform       string              // runtime.GOOS
	Arch           string              // runtime.GOARCH
	Windows        bool                // convenience flag for Platform == "windows"
	DataDir        string              // per-user data directory
	CacheDir       string              // per-user cache directory
	ConfigDir      string              // per-user config directory
	UpdateDisabled string              // non-empty = reason self-update is off
	S3Host         string              // release bucket base URL
	DefaultCommand string              // command run when argv is empty
	Aliases        map[string][]string // canonical command ID -> aliases
	PackageManager string              // package manager binary for user plugins
	Registry       string              // registry URL pinned into .yarnrc
}

// UserAgent returns the value sent as the User-Agent header on every remote
// request, and printed by the version command.
func (c *Config) UserAgent() string {
	return fmt.Sprintf("%s/%s (%s-%s)", c.Name, c.Version, c.Platform, c.Arch)
}

// PlatformArch returns the "<platform>-<arch>" key used in manifest build
// maps and release URLs.
func (c *Config) PlatformArch() string {
	return c.Platform + "-" + c.Arch
}

// EnvPrefix returns the uppercased binary name with dashes replaced by
// underscores, used to derive environment variable names like
// CLI_ENGINE_TIMESTAMPS.
func (c *Config) EnvPrefix() string {
	return strings.ReplaceAll(strings.ToUpper(c.Bin), "-", "_")
}

// Option mutates a Config during Load, applied after defaults and the
// config file but before env overrides.
type Option func(*Config)

// WithVersion sets the running version (normally from ldflags).
func WithVersion(version string) Option {
	return func(c *Config) { c.Version = version }
}

// WithChannel overrides the release channel.
func WithChannel(channel string) Option {
	return func(c *Config) { c.Channel = channel }
}

// Load builds the Config for this process: platform defaults, then the
// optional TOML config file, then environment overrides.
func Load(opts ...Option) (*Config, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("resolving cache dir: %w", err)
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	dataDir, err := userDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data dir: %w", err)
	}

	c := &Config{
		Bin:            "cli-engine",
		Name:           "cli-engine",
		Version:        "0.0.0",
		Channel:        "stable",
		Platform:       runtime.GOOS,
		Arch:           runtime.GOARCH,
		Windows:        runtime.GOOS == "windows",
		DataDir:        filepath.Join(dataDir, "cli-engine"),
		CacheDir:       filepath.Join(cacheDir, "cli-engine"),
		ConfigDir:      filepath.Join(configDir, "cli-engine"),
		S3Host:         "https://cli-assets.example.com",
		DefaultCommand: "help",
		Aliases: map[string][]string{
			"plugins:uninstall": {"plugins:unlink"},
		},
		PackageManager: "yarn",
		Registry:       "https://registry.yarnpkg.com",
	}

	if err := applyFile(c, filepath.Join(c.ConfigDir, "config.toml")); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(c)
	}
	applyEnv(c)
	return c, nil
}

// applyEnv applies environment overrides. These win over the config file so
// a single invocation can be redirected without editing state on disk.
func applyEnv(c *Config) {
	if v := os.Getenv("CLI_ENGINE_CHANNEL"); v != "" {
		c.Channel = v
	}
	if v := os.Getenv("CLI_ENGINE_S3_HOST"); v != "" {
		c.S3Host = v
	}
	if os.Getenv("CLI_ENGINE_SKIP_CORE_UPDATES") != "" {
		c.UpdateDisabled = "CLI_ENGINE_SKIP_CORE_UPDATES is set"
	}
}

// userDataDir resolves the per-user data directory. The stdlib has no
// equivalent of os.UserCacheDir for XDG_DATA_HOME, so the lookup mirrors it.
func userDataDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return dir, nil
		}
		return "", fmt.Errorf("%%LOCALAPPDATA%% is not defined")
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return dir, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}
