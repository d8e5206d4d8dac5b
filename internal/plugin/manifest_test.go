package plugin

import (
	"path/filepath"
	"testing"
)

func TestManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugins.json")

	m := LoadManifest(path)
	m.Put("my-plugin", &manifestEntry{
		Version:    "1.0.0",
		Topics:     []TopicMeta{{Name: "my-plugin", Description: "demo"}},
		Commands:   []CommandMeta{{ID: "my-plugin:hello"}},
		Entrypoint: "/plugins/my-plugin/bin/run",
	})
	if err := m.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded := LoadManifest(path)
	e := reloaded.Get("my-plugin", "1.0.0")
	if e == nil {
		t.Fatal("entry lost in round trip")
	}
	if len(e.Commands) != 1 || e.Commands[0].ID != "my-plugin:hello" {
		t.Errorf("commands = %v", e.Commands)
	}
}

func TestManifestVersionMismatch(t *testing.T) {
	m := LoadManifest(filepath.Join(t.TempDir(), "plugins.json"))
	m.Put("p", &manifestEntry{Version: "1.0.0"})

	if m.Get("p", "2.0.0") != nil {
		t.Error("stale entry served despite version mismatch")
	}
}

func TestManifestInvalidate(t *testing.T) {
	m := LoadManifest(filepath.Join(t.TempDir(), "plugins.json"))
	m.Put("p", &manifestEntry{Version: "1.0.0"})
	m.Invalidate("p")

	if m.Get("p", "1.0.0") != nil {
		t.Error("invalidated entry still served")
	}
}

func TestLoadManifestMissing(t *testing.T) {
	m := LoadManifest(filepath.Join(t.TempDir(), "nope.json"))
	if m.Get("anything", "1.0.0") != nil {
		t.Error("missing manifest should be empty")
	}
}
