package plugin

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// manifestEntry is the cached metadata for one plugin, enough to dispatch
// and render help without loading plugin code.
type manifestEntry struct {
	Version    string        `json:"version"`
	Topics     []TopicMeta   `json:"topics"`
	Commands   []CommandMeta `json:"commands"`
	Entrypoint string        `json:"entrypoint,omitempty"`
}

// Manifest is the on-disk plugin metadata cache. An entry is trusted only
// while its version matches the plugin's own package metadata; mutations
// invalidate the affected entry.
type Manifest struct {
	path    string
	Plugins map[string]*manifestEntry `json:"plugins"`
	dirty   bool
}

// LoadManifest reads the cache at path. A missing or corrupt file yields an
// empty manifest: the cache is always re-derivable from plugin metadata.
func LoadManifest(path string) *Manifest {
	m := &Manifest{path: path, Plugins: map[string]*manifestEntry{}}
	data, err := os.ReadFile(path)
	if err != nil {
		return m
	}
	if err := json.Unmarshal(data, m); err != nil {
		m.Plugins = map[string]*manifestEntry{}
	}
	if m.Plugins == nil {
		m.Plugins = map[string]*manifestEntry{}
	}
	return m
}

// Get returns the cached entry for name when its version matches, else nil.
func (m *Manifest) Get(name, version string) *manifestEntry {
	e := m.Plugins[name]
	if e == nil || e.Version != version {
		return nil
	}
	return e
}

// Put records fresh metadata for name and marks the cache dirty.
func (m *Manifest) Put(name string, e *manifestEntry) {
	m.Plugins[name] = e
	m.dirty = true
}

// Invalidate drops the cached entry for name so the next init re-derives
// it from the plugin's own metadata.
func (m *Manifest) Invalidate(name string) {
	if _, ok := m.Plugins[name]; ok {
		delete(m.Plugins, name)
		m.dirty = true
	}
}

// InvalidateAll drops every cached entry.
func (m *Manifest) InvalidateAll() {
	if len(m.Plugins) > 0 {
		m.Plugins = map[string]*manifestEntry{}
		m.dirty = true
	}
}

// Save writes the cache back if it changed. Failures are returned but the
// cache stays usable in memory; a permission error on the final write is
// swallowed and the cache counts as saved.
func (m *Manifest) Save() error {
	if !m.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil && !errors.Is(err, fs.ErrPermission) {
		return err
	}
	m.dirty = false
	return nil
}
