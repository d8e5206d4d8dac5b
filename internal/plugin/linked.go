package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/scottdixon/cli-engine/internal/command"
	"github.com/scottdixon/cli-engine/internal/config"
	"github.com/scottdixon/cli-engine/internal/paths"
)

// linkedEntry is one record in the linked plugins file.
type linkedEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// LinkedProvider serves plugins linked from local directories. Linking
// records only a pointer to the directory; no dependencies are installed.
type LinkedProvider struct {
	cfg      *config.Config
	paths    *paths.Paths
	manifest *Manifest
	logger   *log.Logger

	plugins []*Plugin
}

// NewLinkedProvider creates a LinkedProvider.
func NewLinkedProvider(cfg *config.Config, p *paths.Paths, manifest *Manifest, logger *log.Logger) *LinkedProvider {
	return &LinkedProvider{cfg: cfg, paths: p, manifest: manifest, logger: logger}
}

// Name implements Provider.
func (l *LinkedProvider) Name() string { return TypeLinked.String() }

// Init implements Provider. A broken linked plugin is skipped with a
// warning so one bad link does not take down the CLI.
func (l *LinkedProvider) Init() error {
	l.plugins = nil
	entries, err := l.readEntries()
	if err != nil {
		return err
	}
	for _, e := range entries {
		p, err := loadPlugin(TypeLinked, e.Path, l.manifest)
		if err != nil {
			l.logger.Warn("skipping linked plugin", "name", e.Name, "path", e.Path, "err", err)
			continue
		}
		l.plugins = append(l.plugins, p)
	}
	return nil
}

// Topics implements Provider.
func (l *LinkedProvider) Topics() []*command.Topic {
	var out []*command.Topic
	for _, p := range l.plugins {
		out = append(out, p.topicRecords()...)
	}
	return out
}

// Commands implements Provider.
func (l *LinkedProvider) Commands() []*command.Command {
	var out []*command.Command
	for _, p := range l.plugins {
		out = append(out, p.commandRecords()...)
	}
	return out
}

// Plugins returns the loaded linked plugins.
func (l *LinkedProvider) Plugins() []*Plugin { return l.plugins }

// Link records dir as a linked plugin. The directory must carry a valid
// plugin package.json; relinking an already-linked name updates its path.
func (l *LinkedProvider) Link(dir string) (*Plugin, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	pkg, err := readPackageJSON(abs)
	if err != nil {
		return nil, fmt.Errorf("reading plugin at %s: %w", abs, err)
	}
	if pkg.Name == "" {
		return nil, &InvalidPluginError{Name: abs, Reason: "package.json has no name"}
	}

	entries, err := l.readEntries()
	if err != nil {
		return nil, err
	}
	replaced := false
	for i := range entries {
		if entries[i].Name == pkg.Name {
			entries[i].Path = abs
			replaced = true
		}
	}
	if !replaced {
		entries = append(entries, linkedEntry{Name: pkg.Name, Path: abs})
	}
	if err := l.writeEntries(entries); err != nil {
		return nil, err
	}
	l.manifest.Invalidate(pkg.Name)
	return &Plugin{Type: TypeLinked, Name: pkg.Name, Version: pkg.Version, Path: abs}, nil
}

// Unlink removes name from the linked plugins file. It reports whether an
// entry was removed.
func (l *LinkedProvider) Unlink(name string) (bool, error) {
	entries, err := l.readEntries()
	if err != nil {
		return false, err
	}
	kept := entries[:0]
	removed := false
	for _, e := range entries {
		if e.Name == name {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if !removed {
		return false, nil
	}
	if err := l.writeEntries(kept); err != nil {
		return false, err
	}
	l.manifest.Invalidate(name)
	return true, nil
}

func (l *LinkedProvider) readEntries() ([]linkedEntry, error) {
	data, err := os.ReadFile(l.paths.LinkedPluginsFile())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var entries []linkedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing linked plugins file: %w", err)
	}
	return entries, nil
}

func (l *LinkedProvider) writeEntries(entries []linkedEntry) error {
	path := l.paths.LinkedPluginsFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
