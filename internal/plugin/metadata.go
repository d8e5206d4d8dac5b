package plugin

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/scottdixon/cli-engine/internal/command"
)

// engineSection is the "cli-engine" block of a plugin's package.json: the
// capability surface the engine needs for dispatch and help, declared as
// data so plugin code never loads during catalog construction.
type engineSection struct {
	Bin      string        `json:"bin,omitempty"`
	Topics   []TopicMeta   `json:"topics,omitempty"`
	Commands []CommandMeta `json:"commands,omitempty"`
}

// packageJSON is the subset of package.json the engine reads.
type packageJSON struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Private      bool              `json:"private,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Engine       *engineSection    `json:"cli-engine,omitempty"`
}

// readPackageJSON loads dir/package.json.
func readPackageJSON(dir string) (*packageJSON, error) {
	path := filepath.Join(dir, "package.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &pkg, nil
}

// loadPlugin derives a Plugin from a directory holding plugin code,
// consulting the manifest cache first. The cache entry is only trusted
// while its version matches the package's own metadata.
func loadPlugin(typ Type, dir string, manifest *Manifest) (*Plugin, error) {
	pkg, err := readPackageJSON(dir)
	if err != nil {
		return nil, err
	}
	if pkg.Name == "" {
		return nil, &InvalidPluginError{Name: dir, Reason: "package.json has no name"}
	}

	p := &Plugin{Type: typ, Name: pkg.Name, Version: pkg.Version, Path: dir}
	if e := manifest.Get(pkg.Name, pkg.Version); e != nil {
		p.Topics = e.Topics
		p.Commands = e.Commands
		p.Entrypoint = e.Entrypoint
		return p, nil
	}

	if pkg.Engine == nil || len(pkg.Engine.Commands) == 0 {
		return nil, &InvalidPluginError{Name: pkg.Name, Reason: "no commands declared in the cli-engine section"}
	}
	p.Topics = pkg.Engine.Topics
	p.Commands = pkg.Engine.Commands
	if pkg.Engine.Bin != "" {
		p.Entrypoint = filepath.Join(dir, filepath.FromSlash(pkg.Engine.Bin))
	}
	manifest.Put(pkg.Name, &manifestEntry{
		Version:    pkg.Version,
		Topics:     p.Topics,
		Commands:   p.Commands,
		Entrypoint: p.Entrypoint,
	})
	return p, nil
}

// topicRecords converts the plugin's topic metadata to catalog records.
func (p *Plugin) topicRecords() []*command.Topic {
	out := make([]*command.Topic, 0, len(p.Topics))
	for _, tm := range p.Topics {
		t := command.NewTopic(tm.Name)
		t.Description = tm.Description
		t.Hidden = tm.Hidden
		out = append(out, t)
	}
	return out
}

// commandRecords converts the plugin's command metadata to catalog records.
// Running one executes the plugin's entrypoint out of process with the
// command ID and remaining argv.
func (p *Plugin) commandRecords() []*command.Command {
	out := make([]*command.Command, 0, len(p.Commands))
	for _, cm := range p.Commands {
		cm := cm
		out = append(out, &command.Command{
			ID:          cm.ID,
			Description: cm.Description,
			Hidden:      cm.Hidden,
			Aliases:     cm.Aliases,
			Run:         p.runFunc(cm.ID),
		})
	}
	return out
}

func (p *Plugin) runFunc(id string) command.RunFunc {
	return func(ctx *command.Context) error {
		if p.Entrypoint == "" {
			return &InvalidPluginError{Name: p.Name, Reason: "no entrypoint to run " + id}
		}
		args := append([]string{id}, ctx.Argv...)
		cmd := exec.CommandContext(ctx.Context, p.Entrypoint, args...)
		cmd.Dir = p.Path
		cmd.Stdout = ctx.Stdout
		cmd.Stderr = ctx.Stderr
		cmd.Stdin = os.Stdin
		return cmd.Run()
	}
}
