// Package dispatch resolves an argv vector to a runnable command, topic
// help, or a not-found error with suggestions.
package dispatch

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/scottdixon/cli-engine/internal/command"
	"github.com/scottdixon/cli-engine/internal/config"
	"github.com/scottdixon/cli-engine/internal/errlog"
	"github.com/scottdixon/cli-engine/internal/help"
	"github.com/scottdixon/cli-engine/internal/plugin"
)

// Exit codes returned by Dispatch.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitNotFound = 127
)

// Dispatcher routes argv through the merged catalog.
type Dispatcher struct {
	cfg     *config.Config
	manager *plugin.Manager
	helpR   *help.Renderer
	logger  *log.Logger
	errlog  string
	stdout  io.Writer
	stderr  io.Writer
}

// New creates a Dispatcher. errlogPath receives every error returned by a
// command's Run; not-found lookups are reported on stderr only.
func New(cfg *config.Config, manager *plugin.Manager, helpR *help.Renderer, logger *log.Logger, errlogPath string, stdout, stderr io.Writer) *Dispatcher {
	return &Dispatcher{
		cfg:     cfg,
		manager: manager,
		helpR:   helpR,
		logger:  logger,
		errlog:  errlogPath,
		stdout:  stdout,
		stderr:  stderr,
	}
}

// Dispatch resolves and runs argv (the post-binary vector), returning the
// process exit code.
func (d *Dispatcher) Dispatch(ctx context.Context, argv []string) int {
	var id string
	if len(argv) > 0 {
		id = argv[0]
	}

	if helpRequested(argv) {
		subject := id
		if subject == "--help" || subject == "-h" {
			subject = ""
		}
		if !d.helpR.Render(command.Unalias(d.cfg, subject), hasFlag(argv, "--all")) {
			return d.notFound(subject)
		}
		return ExitOK
	}

	lookup := id
	if lookup == "" {
		lookup = d.cfg.DefaultCommand
	}
	if lookup == "" {
		lookup = "help"
	}

	if c := d.manager.FindCommand(lookup); c != nil {
		return d.run(ctx, c, rest(argv))
	}
	if t := d.manager.FindTopic(lookup); t != nil {
		d.helpR.Render(t.Name, hasFlag(argv, "--all"))
		return ExitOK
	}
	return d.notFound(id)
}

func (d *Dispatcher) run(ctx context.Context, c *command.Command, argv []string) int {
	err := c.Run(&command.Context{
		Context: ctx,
		Config:  d.cfg,
		Argv:    argv,
		Stdout:  d.stdout,
		Stderr:  d.stderr,
	})
	if err == nil {
		return ExitOK
	}
	fmt.Fprintf(d.stderr, "%s: %s\n", d.cfg.Bin, err)
	if logErr := errlog.Append(d.errlog, fmt.Sprintf("%s: %s", c.ID, err)); logErr != nil {
		d.logger.Debug("could not append to error log", "err", logErr)
	}
	return ExitError
}

func (d *Dispatcher) notFound(id string) int {
	fmt.Fprintf(d.stderr, "%s: %q is not a %s command.\n", d.cfg.Bin, id, d.cfg.Bin)
	for _, s := range Suggestions(d.manager.CommandIDs(), id) {
		fmt.Fprintf(d.stderr, "Perhaps you meant %s?\n", s)
	}
	fmt.Fprintf(d.stderr, "Run %s help for a list of available commands.\n", d.cfg.Bin)
	return ExitNotFound
}

// helpRequested reports whether any argument before a bare "--" asks for
// help. Help beats everything else, regardless of the command ID.
func helpRequested(argv []string) bool {
	for _, arg := range argv {
		if arg == "--" {
			return false
		}
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func hasFlag(argv []string, flag string) bool {
	for _, arg := range argv {
		if arg == "--" {
			return false
		}
		if arg == flag {
			return true
		}
	}
	return false
}

func rest(argv []string) []string {
	if len(argv) <= 1 {
		return nil
	}
	return argv[1:]
}
