package builtin

import (
	"fmt"

	"github.com/spf13/cobra"
)

// versionInfo is the structured form of the version command's output.
type versionInfo struct {
	Version  string `json:"version" yaml:"version"`
	Channel  string `json:"channel" yaml:"channel"`
	Platform string `json:"platform" yaml:"platform"`
	Arch     string `json:"arch" yaml:"arch"`
}

func newVersionCmd(d *Deps) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "print the CLI version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if textFormat(outputFormat) {
				fmt.Fprintln(cmd.OutOrStdout(), d.Config.UserAgent())
				return nil
			}
			return encodeAs(cmd.OutOrStdout(), outputFormat, versionInfo{
				Version:  d.Config.Version,
				Channel:  d.Config.Channel,
				Platform: d.Config.Platform,
				Arch:     d.Config.Arch,
			})
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json, yaml")
	return cmd
}
