// Package engine wires the core components together and runs one CLI
// invocation.
package engine

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"

	"github.com/scottdixon/cli-engine/internal/builtin"
	"github.com/scottdixon/cli-engine/internal/channel"
	"github.com/scottdixon/cli-engine/internal/config"
	"github.com/scottdixon/cli-engine/internal/dispatch"
	"github.com/scottdixon/cli-engine/internal/errlog"
	"github.com/scottdixon/cli-engine/internal/help"
	"github.com/scottdixon/cli-engine/internal/lock"
	"github.com/scottdixon/cli-engine/internal/logging"
	"github.com/scottdixon/cli-engine/internal/paths"
	"github.com/scottdixon/cli-engine/internal/plugin"
	"github.com/scottdixon/cli-engine/internal/update"
)

// Run executes one invocation of the CLI and returns the process exit
// code. argv is the post-binary argument vector.
func Run(version string, argv []string) int {
	cfg, err := config.Load(config.WithVersion(version))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return dispatch.ExitError
	}

	p := paths.New(cfg)
	logger := logging.New(cfg.Bin, cfg.EnvPrefix())
	client := channel.NewClient(cfg, p, logger)
	updater := update.New(cfg, p, client, logger, os.Stdout)
	auto := update.NewAutoupdater(cfg, p, updater, logger)

	pm := plugin.NewExecPackageManager(cfg.PackageManager)
	manager := plugin.NewManager(cfg, p, pm, logger)
	helpR := help.New(cfg, manager, os.Stdout)

	topics, commands := builtin.Catalog(&builtin.Deps{
		Config:      cfg,
		Paths:       p,
		Updater:     updater,
		Autoupdater: auto,
		Manager:     manager,
		Help:        helpR,
		Logger:      logger,
	})
	manager.SetBuiltin(topics, commands)
	if err := manager.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return dispatch.ExitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Kick the background update check unless this invocation IS the
	// updater; a failed check never affects the foreground command.
	if len(argv) == 0 || argv[0] != "update" {
		auto.Run(false)

		// Hold a reader on the update lock while the command runs so a
		// concurrent update cannot evict the tree this invocation is
		// executing out of.
		if release, lockErr := lock.ReaderAcquire(p.Updatelockfile()); lockErr == nil {
			defer release()
		} else {
			logger.Debug("could not acquire read lock", "err", lockErr)
		}
	}

	code := runDispatch(ctx, cfg, p, manager, helpR, logger, argv)
	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "ctrl-c")
		return dispatch.ExitError
	}
	return code
}

func runDispatch(ctx context.Context, cfg *config.Config, p *paths.Paths, manager *plugin.Manager, helpR *help.Renderer, logger *log.Logger, argv []string) (code int) {
	d := dispatch.New(cfg, manager, helpR, logger, p.Errlog(), os.Stdout, os.Stderr)

	// Whatever happens inside a command, the CLI reports an error instead
	// of a stack trace, and the panic lands in the error log.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "%s: internal error: %v\n", cfg.Bin, r)
			_ = errlog.Append(p.Errlog(), fmt.Sprintf("panic: %v", r))
			code = dispatch.ExitError
		}
	}()

	return d.Dispatch(ctx, argv)
}
