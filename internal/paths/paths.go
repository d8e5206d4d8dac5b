// Package paths computes every filesystem location the engine touches.
// All functions are pure: they derive absolute paths from the Config and
// perform no I/O.
package paths

import (
	"path/filepath"

	"github.com/scottdixon/cli-engine/internal/config"
)

// Paths resolves the engine's on-disk layout for one Config.
type Paths struct {
	cfg *config.Config
}

// New creates a Paths resolver for cfg.
func New(cfg *config.Config) *Paths {
	return &Paths{cfg: cfg}
}

// Autoupdatefile is the zero-byte marker whose mtime records the last
// autoupdate attempt.
func (p *Paths) Autoupdatefile() string {
	return filepath.Join(p.cfg.CacheDir, "autoupdate")
}

// Autoupdatelogfile collects stdout/stderr of spawned background updaters.
func (p *Paths) Autoupdatelogfile() string {
	return filepath.Join(p.cfg.CacheDir, "autoupdate.log")
}

// Updatelockfile is the rwlock guarding the client tree.
func (p *Paths) Updatelockfile() string {
	return filepath.Join(p.cfg.CacheDir, "update.lock")
}

// PluginLockfile guards mutations of the user plugins directory.
func (p *Paths) PluginLockfile() string {
	return filepath.Join(p.cfg.CacheDir, "plugins.lock")
}

// VersionFile is the cached Version JSON for a channel.
func (p *Paths) VersionFile(channel string) string {
	return filepath.Join(p.cfg.CacheDir, channel+".version")
}

// Errlog is the append-only error log streamed by debug:errlog.
func (p *Paths) Errlog() string {
	return filepath.Join(p.cfg.CacheDir, "error.log")
}

// ClientRoot holds one extracted release tree per version.
func (p *Paths) ClientRoot() string {
	return filepath.Join(p.cfg.DataDir, "client")
}

// ClientBin is the stable-path symlink into the current release tree. On
// Windows it is a .cmd shim instead of a symlink.
func (p *Paths) ClientBin() string {
	bin := p.cfg.Bin
	if p.cfg.Windows {
		bin += ".cmd"
	}
	return filepath.Join(p.ClientRoot(), "bin", bin)
}

// VersionedBin is the real binary inside the release tree for version.
func (p *Paths) VersionedBin(version string) string {
	bin := p.cfg.Bin
	if p.cfg.Windows {
		bin += ".exe"
	}
	return filepath.Join(p.ClientRoot(), version, "bin", bin)
}

// UserPluginsDir is the package-manager-managed plugin workspace.
func (p *Paths) UserPluginsDir() string {
	return filepath.Join(p.cfg.DataDir, "plugins")
}

// UserPluginsPackageJSON is the dependency manifest for user plugins.
func (p *Paths) UserPluginsPackageJSON() string {
	return filepath.Join(p.UserPluginsDir(), "package.json")
}

// UserPluginsRC is the registry-pinned package manager config.
func (p *Paths) UserPluginsRC() string {
	return filepath.Join(p.UserPluginsDir(), ".yarnrc")
}

// UserPluginsManifest is the on-disk cache of plugin metadata used for
// dispatch without loading plugin code.
func (p *Paths) UserPluginsManifest() string {
	return filepath.Join(p.cfg.CacheDir, "plugins.json")
}

// LinkedPluginsFile records plugins linked from local directories.
func (p *Paths) LinkedPluginsFile() string {
	return filepath.Join(p.cfg.DataDir, "linked_plugins.json")
}

// ConfigFile is the optional user-editable engine configuration.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.cfg.ConfigDir, "config.toml")
}
