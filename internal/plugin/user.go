package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/scottdixon/cli-engine/internal/command"
	"github.com/scottdixon/cli-engine/internal/config"
	"github.com/scottdixon/cli-engine/internal/lock"
	"github.com/scottdixon/cli-engine/internal/paths"
)

// UserProvider serves plugins installed through the package manager into
// the user plugins directory. Mutations hold the writer lock on the plugin
// lockfile; the own-PID skip lets a mutation re-enter locks its own
// invocation already holds.
type UserProvider struct {
	cfg      *config.Config
	paths    *paths.Paths
	pm       PackageManager
	manifest *Manifest
	logger   *log.Logger

	plugins []*Plugin
}

// NewUserProvider creates a UserProvider.
func NewUserProvider(cfg *config.Config, p *paths.Paths, pm PackageManager, manifest *Manifest, logger *log.Logger) *UserProvider {
	return &UserProvider{cfg: cfg, paths: p, pm: pm, manifest: manifest, logger: logger}
}

// Name implements Provider.
func (u *UserProvider) Name() string { return TypeUser.String() }

// Init implements Provider: every dependency in the plugins package.json
// becomes a plugin, loaded from the manifest cache when its version still
// matches. A broken plugin is skipped with a warning.
func (u *UserProvider) Init() error {
	u.plugins = nil
	pkg, err := readPackageJSON(u.paths.UserPluginsDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	names := make([]string, 0, len(pkg.Dependencies))
	for name := range pkg.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dir := filepath.Join(u.paths.UserPluginsDir(), "node_modules", name)
		p, err := loadPlugin(TypeUser, dir, u.manifest)
		if err != nil {
			u.logger.Warn("skipping user plugin", "name", name, "err", err)
			continue
		}
		u.plugins = append(u.plugins, p)
	}
	return nil
}

// Topics implements Provider.
func (u *UserProvider) Topics() []*command.Topic {
	var out []*command.Topic
	for _, p := range u.plugins {
		out = append(out, p.topicRecords()...)
	}
	return out
}

// Commands implements Provider.
func (u *UserProvider) Commands() []*command.Command {
	var out []*command.Command
	for _, p := range u.plugins {
		out = append(out, p.commandRecords()...)
	}
	return out
}

// Plugins returns the loaded user plugins.
func (u *UserProvider) Plugins() []*Plugin { return u.plugins }

// Install adds name@tag to the plugins package.json, materializes it with
// the package manager, and probes the installed module for a usable
// command set. On probe failure the package.json edit is reverted and
// InvalidPluginError is returned.
func (u *UserProvider) Install(name, tag string) error {
	if tag == "" {
		tag = "latest"
	}
	release, err := lock.WriterAcquire(u.paths.PluginLockfile())
	if err != nil {
		return fmt.Errorf("acquiring plugin lock: %w", err)
	}
	defer release()

	if err := u.ensureWorkspace(); err != nil {
		return err
	}

	pkgPath := u.paths.UserPluginsPackageJSON()
	original, err := os.ReadFile(pkgPath)
	if err != nil {
		return err
	}
	if err := u.editDependencies(pkgPath, func(deps map[string]string) {
		deps[name] = tag
	}); err != nil {
		return err
	}

	revert := func() {
		if err := os.WriteFile(pkgPath, original, 0o644); err != nil {
			u.logger.Warn("could not revert plugins package.json", "err", err)
		}
	}

	if err := u.pm.Install(u.paths.UserPluginsDir()); err != nil {
		revert()
		return err
	}

	dir := filepath.Join(u.paths.UserPluginsDir(), "node_modules", name)
	u.manifest.Invalidate(name)
	if _, err := loadPlugin(TypeUser, dir, u.manifest); err != nil {
		revert()
		var invalid *InvalidPluginError
		if errors.As(err, &invalid) {
			return invalid
		}
		return &InvalidPluginError{Name: name, Reason: err.Error()}
	}
	return nil
}

// Remove uninstalls name via the package manager and drops it from the
// dependency map.
func (u *UserProvider) Remove(name string) error {
	release, err := lock.WriterAcquire(u.paths.PluginLockfile())
	if err != nil {
		return fmt.Errorf("acquiring plugin lock: %w", err)
	}
	defer release()

	if err := u.pm.Remove(u.paths.UserPluginsDir(), name); err != nil {
		return err
	}
	if err := u.editDependencies(u.paths.UserPluginsPackageJSON(), func(deps map[string]string) {
		delete(deps, name)
	}); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	u.manifest.Invalidate(name)
	return nil
}

// Update upgrades every installed user plugin.
func (u *UserProvider) Update() error {
	release, err := lock.WriterAcquire(u.paths.PluginLockfile())
	if err != nil {
		return fmt.Errorf("acquiring plugin lock: %w", err)
	}
	defer release()

	if _, err := os.Stat(u.paths.UserPluginsPackageJSON()); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := u.pm.Upgrade(u.paths.UserPluginsDir()); err != nil {
		return err
	}
	u.manifest.InvalidateAll()
	return nil
}

// ensureWorkspace creates the plugins directory with a private
// package.json and a registry-pinned package manager config.
func (u *UserProvider) ensureWorkspace() error {
	dir := u.paths.UserPluginsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	pkgPath := u.paths.UserPluginsPackageJSON()
	if _, err := os.Stat(pkgPath); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(pkgPath, []byte("{\n  \"private\": true\n}\n"), 0o644); err != nil {
			return err
		}
	}
	rcPath := u.paths.UserPluginsRC()
	if _, err := os.Stat(rcPath); errors.Is(err, fs.ErrNotExist) {
		rc := fmt.Sprintf("registry \"%s\"\n", u.cfg.Registry)
		if err := os.WriteFile(rcPath, []byte(rc), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// editDependencies rewrites the dependencies map of the package.json at
// path, preserving the rest of the document.
func (u *UserProvider) editDependencies(path string, edit func(map[string]string)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	deps := map[string]string{}
	if raw, ok := doc["dependencies"]; ok {
		if err := json.Unmarshal(raw, &deps); err != nil {
			return fmt.Errorf("parsing dependencies in %s: %w", path, err)
		}
	}
	edit(deps)

	raw, err := json.Marshal(deps)
	if err != nil {
		return err
	}
	doc["dependencies"] = raw
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(out, '\n'), 0o644)
}
