package paths

import (
	"path/filepath"
	"testing"

	"github.com/scottdixon/cli-engine/internal/config"
)

func testConfig(windows bool) *config.Config {
	return &config.Config{
		Bin:      "cli-engine",
		Name:     "cli-engine",
		CacheDir: "/cache",
		DataDir:  "/data",
		Windows:  windows,
	}
}

func TestPaths(t *testing.T) {
	p := New(testConfig(false))

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"autoupdatefile", p.Autoupdatefile(), filepath.Join("/cache", "autoupdate")},
		{"autoupdatelogfile", p.Autoupdatelogfile(), filepath.Join("/cache", "autoupdate.log")},
		{"updatelockfile", p.Updatelockfile(), filepath.Join("/cache", "update.lock")},
		{"pluginlockfile", p.PluginLockfile(), filepath.Join("/cache", "plugins.lock")},
		{"versionfile", p.VersionFile("stable"), filepath.Join("/cache", "stable.version")},
		{"errlog", p.Errlog(), filepath.Join("/cache", "error.log")},
		{"clientroot", p.ClientRoot(), filepath.Join("/data", "client")},
		{"clientbin", p.ClientBin(), filepath.Join("/data", "client", "bin", "cli-engine")},
		{"versionedbin", p.VersionedBin("1.2.3"), filepath.Join("/data", "client", "1.2.3", "bin", "cli-engine")},
		{"userpluginsdir", p.UserPluginsDir(), filepath.Join("/data", "plugins")},
		{"pluginspackagejson", p.UserPluginsPackageJSON(), filepath.Join("/data", "plugins", "package.json")},
		{"pluginsrc", p.UserPluginsRC(), filepath.Join("/data", "plugins", ".yarnrc")},
		{"pluginsmanifest", p.UserPluginsManifest(), filepath.Join("/cache", "plugins.json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestPathsWindowsSuffixes(t *testing.T) {
	p := New(testConfig(true))

	if got := filepath.Base(p.ClientBin()); got != "cli-engine.cmd" {
		t.Errorf("ClientBin base = %s, want cli-engine.cmd", got)
	}
	if got := filepath.Base(p.VersionedBin("1.2.3")); got != "cli-engine.exe" {
		t.Errorf("VersionedBin base = %s, want cli-engine.exe", got)
	}
}

func TestVersionFilePerChannel(t *testing.T) {
	p := New(testConfig(false))

	stable := p.VersionFile("stable")
	beta := p.VersionFile("beta")
	if stable == beta {
		t.Error("expected distinct version files per channel")
	}
}
