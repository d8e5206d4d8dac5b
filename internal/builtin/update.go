package builtin

import (
	"github.com/spf13/cobra"

	"github.com/scottdixon/cli-engine/internal/update"
)

func newUpdateCmd(d *Deps) *cobra.Command {
	var autoupdate bool

	cmd := &cobra.Command{
		Use:   "update [channel]",
		Short: "update the CLI",
		Long: `Download and install the latest release for a channel.

Without an argument the configured channel is updated. The swap holds the
update lock, so concurrent invocations wait instead of tearing the tree.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch := d.Config.Channel
			if len(args) > 0 {
				ch = args[0]
			}

			if autoupdate {
				// Spawned in the background by the autoupdater: wait out
				// the debounce window, then never fail the invocation.
				d.Autoupdater.Debounce()
				if err := d.Updater.Run(update.Options{Channel: ch, Autoupdate: true}); err != nil {
					d.Logger.Warn("autoupdate failed", "err", err)
				}
				return nil
			}
			return d.Updater.Run(update.Options{Channel: ch})
		},
	}

	cmd.Flags().BoolVar(&autoupdate, "autoupdate", false, "run as the background autoupdater")
	_ = cmd.Flags().MarkHidden("autoupdate")

	return cmd
}
