package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// fileConfig is the subset of Config a user may override from
// <configDir>/config.toml.
type fileConfig struct {
	Channel        string              `toml:"channel"`
	S3Host         string              `toml:"s3_host"`
	UpdateDisabled bool                `toml:"update_disabled"`
	DefaultCommand string              `toml:"default_command"`
	Aliases        map[string][]string `toml:"aliases"`
	PackageManager string              `toml:"package_manager"`
	Registry       string              `toml:"registry"`
}

// applyFile merges the optional TOML config file into c. A missing file is
// not an error; a malformed one is.
func applyFile(c *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if fc.Channel != "" {
		c.Channel = fc.Channel
	}
	if fc.S3Host != "" {
		c.S3Host = fc.S3Host
	}
	if fc.UpdateDisabled {
		c.UpdateDisabled = fmt.Sprintf("update_disabled is set in %s", path)
	}
	if fc.DefaultCommand != "" {
		c.DefaultCommand = fc.DefaultCommand
	}
	if fc.PackageManager != "" {
		c.PackageManager = fc.PackageManager
	}
	if fc.Registry != "" {
		c.Registry = fc.Registry
	}
	for id, aliases := range fc.Aliases {
		c.Aliases[id] = append(c.Aliases[id], aliases...)
	}
	return nil
}
