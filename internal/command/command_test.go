package command

import (
	"testing"

	"github.com/scottdixon/cli-engine/internal/config"
)

func TestCommandTopic(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"version", ""},
		{"plugins:install", "plugins"},
		{"a:b:c", "a:b"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			c := &Command{ID: tt.id}
			if got := c.Topic(); got != tt.want {
				t.Errorf("Topic() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnalias(t *testing.T) {
	cfg := &config.Config{
		Aliases: map[string][]string{
			"plugins:uninstall": {"plugins:unlink", "plugins:rm"},
		},
	}

	tests := []struct {
		in   string
		want string
	}{
		{"plugins:unlink", "plugins:uninstall"},
		{"plugins:rm", "plugins:uninstall"},
		{"plugins:uninstall", "plugins:uninstall"},
		{"version", "version"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Unalias(cfg, tt.in); got != tt.want {
				t.Errorf("Unalias(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUnaliasIdempotent(t *testing.T) {
	cfg := &config.Config{
		Aliases: map[string][]string{
			"plugins:uninstall": {"plugins:unlink"},
		},
	}

	for _, id := range []string{"plugins:unlink", "plugins:uninstall", "other"} {
		once := Unalias(cfg, id)
		twice := Unalias(cfg, once)
		if once != twice {
			t.Errorf("Unalias not idempotent for %q: %q != %q", id, once, twice)
		}
	}
}

func TestTopicMerge(t *testing.T) {
	a := NewTopic("plugins")
	a.Description = "old"
	a.Commands["plugins:install"] = struct{}{}

	b := NewTopic("plugins")
	b.Description = "manage plugins"
	b.Commands["plugins:extra"] = struct{}{}

	a.Merge(b)

	if a.Description != "manage plugins" {
		t.Errorf("Description = %q, want later provider's", a.Description)
	}
	ids := a.CommandIDs()
	if len(ids) != 2 || ids[0] != "plugins:extra" || ids[1] != "plugins:install" {
		t.Errorf("CommandIDs() = %v, want sorted union", ids)
	}
}
