// Package command defines the merged command/topic model shared by the
// plugin manager, the dispatcher, and the help renderer.
package command

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/scottdixon/cli-engine/internal/config"
)

// Context carries everything a running command may need.
type Context struct {
	Context context.Context
	Config  *config.Config
	Argv    []string // args after the command ID
	Stdout  io.Writer
	Stderr  io.Writer
}

// RunFunc is the invocable behind a command.
type RunFunc func(ctx *Context) error

// Command is one dispatchable command in the merged catalog.
type Command struct {
	ID          string // colon-separated path, e.g. "plugins:install"
	Description string
	Hidden      bool
	Aliases     []string
	Usage       string // one-line usage, defaults to the ID
	Run         RunFunc
	// BuildHelp, when set, supplies the command's full help text in place
	// of the default renderer.
	BuildHelp func() string
}

// Topic returns the command's topic: the ID prefix up to the last colon,
// empty for root commands.
func (c *Command) Topic() string {
	idx := strings.LastIndex(c.ID, ":")
	if idx < 0 {
		return ""
	}
	return c.ID[:idx]
}

// Topic groups commands under a shared colon prefix.
type Topic struct {
	Name        string
	Description string
	Hidden      bool
	Commands    map[string]struct{} // command IDs in this topic
}

// NewTopic creates an empty topic record.
func NewTopic(name string) *Topic {
	return &Topic{Name: name, Commands: map[string]struct{}{}}
}

// Merge folds other into t: command IDs are unioned and the later
// provider's metadata wins on conflict.
func (t *Topic) Merge(other *Topic) {
	if other.Description != "" {
		t.Description = other.Description
	}
	t.Hidden = other.Hidden
	for id := range other.Commands {
		t.Commands[id] = struct{}{}
	}
}

// CommandIDs returns the topic's command IDs sorted.
func (t *Topic) CommandIDs() []string {
	ids := make([]string, 0, len(t.Commands))
	for id := range t.Commands {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Unalias maps id back to its canonical command ID using the config alias
// table. Aliases never chain: the result is always a canonical ID, so
// Unalias is idempotent.
func Unalias(cfg *config.Config, id string) string {
	if _, ok := cfg.Aliases[id]; ok {
		// Already canonical.
		return id
	}
	for canonical, aliases := range cfg.Aliases {
		for _, alias := range aliases {
			if alias == id {
				return canonical
			}
		}
	}
	return id
}
