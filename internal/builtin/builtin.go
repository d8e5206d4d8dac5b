// Package builtin defines the engine's own commands. Each command is
// authored as a cobra.Command and adapted into the catalog's command
// model, so per-command flag parsing and usage text come from cobra while
// dispatch stays with the engine.
package builtin

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/scottdixon/cli-engine/internal/command"
	"github.com/scottdixon/cli-engine/internal/config"
	"github.com/scottdixon/cli-engine/internal/help"
	"github.com/scottdixon/cli-engine/internal/paths"
	"github.com/scottdixon/cli-engine/internal/plugin"
	"github.com/scottdixon/cli-engine/internal/update"
)

// Deps bundles everything the builtin commands reach into.
type Deps struct {
	Config      *config.Config
	Paths       *paths.Paths
	Updater     *update.Updater
	Autoupdater *update.Autoupdater
	Manager     *plugin.Manager
	Help        *help.Renderer
	Logger      *log.Logger
}

// Catalog returns the builtin topics and commands for registration with
// the plugin manager.
func Catalog(d *Deps) ([]*command.Topic, []*command.Command) {
	pluginsTopic := command.NewTopic("plugins")
	pluginsTopic.Description = "manage CLI plugins"

	debugTopic := command.NewTopic("debug")
	debugTopic.Hidden = true

	topics := []*command.Topic{pluginsTopic, debugTopic}
	commands := []*command.Command{
		record("update", false, newUpdateCmd(d)),
		record("version", false, newVersionCmd(d)),
		record("help", false, newHelpCmd(d)),
		record("plugins", false, newPluginsCmd(d)),
		record("plugins:install", false, newPluginsInstallCmd(d)),
		record("plugins:link", false, newPluginsLinkCmd(d)),
		record("plugins:uninstall", false, newPluginsUninstallCmd(d)),
		record("plugins:update", false, newPluginsUpdateCmd(d)),
		record("debug:errlog", true, newDebugErrlogCmd(d)),
	}
	return topics, commands
}

// record adapts one cobra command into a catalog command. Running it
// executes the cobra command against the remaining argv; its help is the
// cobra usage text.
func record(id string, hidden bool, c *cobra.Command) *command.Command {
	c.SilenceUsage = true
	c.SilenceErrors = true
	return &command.Command{
		ID:          id,
		Description: c.Short,
		Hidden:      hidden,
		Usage:       c.Use,
		Run: func(ctx *command.Context) error {
			c.SetArgs(ctx.Argv)
			c.SetOut(ctx.Stdout)
			c.SetErr(ctx.Stderr)
			return c.ExecuteContext(ctx.Context)
		},
		BuildHelp: c.UsageString,
	}
}
