// Package help renders topic and command help from the merged catalog.
package help

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/term"

	"github.com/scottdixon/cli-engine/internal/command"
	"github.com/scottdixon/cli-engine/internal/config"
	"github.com/scottdixon/cli-engine/internal/plugin"
)

const defaultWidth = 80

// Renderer produces help text for the engine's merged catalog.
type Renderer struct {
	cfg     *config.Config
	manager *plugin.Manager
	out     io.Writer
	width   int
}

// New creates a Renderer writing to out. The wrap width follows the
// terminal when out is one.
func New(cfg *config.Config, manager *plugin.Manager, out io.Writer) *Renderer {
	width := defaultWidth
	if f, ok := out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
			width = w
		}
	}
	return &Renderer{cfg: cfg, manager: manager, out: out, width: width}
}

// Render writes help for subject: the usage banner for an empty subject, a
// topic listing for a topic name, or the command's own help for a command
// ID. It reports whether the subject was known.
func (r *Renderer) Render(subject string, all bool) bool {
	if subject == "" {
		r.renderRoot()
		return true
	}
	if c := r.manager.FindCommand(subject); c != nil {
		r.renderCommand(c)
		return true
	}
	if t := r.manager.FindTopic(subject); t != nil {
		r.renderTopic(t, all)
		return true
	}
	return false
}

func (r *Renderer) renderRoot() {
	fmt.Fprintf(r.out, "Usage: %s COMMAND [--all] [--help]\n\n", r.cfg.Bin)

	topics := r.manager.RootTopics()
	rows := make([][2]string, 0, len(topics))
	for _, t := range topics {
		rows = append(rows, [2]string{t.Name, t.Description})
	}
	if len(rows) > 0 {
		fmt.Fprintln(r.out, "Topics:")
		r.columns(rows)
		fmt.Fprintln(r.out)
	}

	roots := r.manager.RootCommands()
	rows = rows[:0]
	for _, c := range roots {
		rows = append(rows, [2]string{c.ID, c.Description})
	}
	if len(rows) > 0 {
		fmt.Fprintln(r.out, "Commands:")
		r.columns(rows)
		fmt.Fprintln(r.out)
	}
	fmt.Fprintf(r.out, "Run %s help TOPIC for more on a topic.\n", r.cfg.Bin)
}

func (r *Renderer) renderTopic(t *command.Topic, all bool) {
	fmt.Fprintf(r.out, "Usage: %s %s:COMMAND [--help]\n\n", r.cfg.Bin, t.Name)
	if t.Description != "" {
		fmt.Fprintln(r.out, t.Description)
		fmt.Fprintln(r.out)
	}

	var rows [][2]string
	for _, id := range t.CommandIDs() {
		c := r.manager.FindCommand(id)
		if c == nil {
			continue
		}
		if c.Hidden && !all {
			continue
		}
		// Direct commands only; deeper IDs show up under their own topic.
		if strings.Count(id, ":") != strings.Count(t.Name, ":")+1 {
			continue
		}
		rows = append(rows, [2]string{id, c.Description})
	}
	if len(rows) > 0 {
		fmt.Fprintln(r.out, "Commands:")
		r.columns(rows)
	}
}

func (r *Renderer) renderCommand(c *command.Command) {
	if c.BuildHelp != nil {
		fmt.Fprint(r.out, c.BuildHelp())
		return
	}
	usage := c.Usage
	if usage == "" {
		usage = c.ID
	}
	fmt.Fprintf(r.out, "Usage: %s %s\n", r.cfg.Bin, usage)
	if c.Description != "" {
		fmt.Fprintf(r.out, "\n%s\n", wordwrap.WrapString(c.Description, uint(r.width)))
	}
	if len(c.Aliases) > 0 {
		fmt.Fprintf(r.out, "\nAliases: %s\n", strings.Join(c.Aliases, ", "))
	}
}

// columns renders two-column rows with the first column aligned to the
// longest label and the second wrapped at the terminal width.
func (r *Renderer) columns(rows [][2]string) {
	longest := 0
	for _, row := range rows {
		if len(row[0]) > longest {
			longest = len(row[0])
		}
	}
	descWidth := r.width - longest - 5
	if descWidth < 20 {
		descWidth = 20
	}
	for _, row := range rows {
		desc := wordwrap.WrapString(row[1], uint(descWidth))
		lines := strings.Split(desc, "\n")
		fmt.Fprintf(r.out, "  %-*s  %s\n", longest, row[0], lines[0])
		for _, line := range lines[1:] {
			fmt.Fprintf(r.out, "  %-*s  %s\n", longest, "", line)
		}
	}
}
