package builtin

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newPluginsCmd(d *Deps) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "list installed plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			plugins := d.Manager.Plugins()
			if !textFormat(outputFormat) {
				return encodeAs(cmd.OutOrStdout(), outputFormat, plugins)
			}
			if len(plugins) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no plugins installed")
				return nil
			}
			for _, p := range plugins {
				line := fmt.Sprintf("%s %s", p.Name, p.Version)
				if p.Type != "user" {
					line += fmt.Sprintf(" (%s)", p.Type)
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json, yaml")
	return cmd
}

func newPluginsInstallCmd(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins:install <name>[@<tag>]",
		Short: "install a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, tag := splitTag(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Installing plugin %s...\n", args[0])
			if err := d.Manager.User().Install(name, tag); err != nil {
				return err
			}
			if err := d.Manager.Reinit(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed %s\n", name)
			return nil
		},
	}
}

func newPluginsLinkCmd(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins:link [path]",
		Short: "link a local plugin for development",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			p, err := d.Manager.Linked().Link(dir)
			if err != nil {
				return err
			}
			if err := d.Manager.Reinit(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Linked %s from %s\n", p.Name, p.Path)
			return nil
		},
	}
}

func newPluginsUninstallCmd(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins:uninstall <name>",
		Short: "uninstall a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			// A linked plugin of the same name is unlinked instead.
			if removed, err := d.Manager.Linked().Unlink(name); err != nil {
				return err
			} else if !removed {
				if err := d.Manager.User().Remove(name); err != nil {
					return err
				}
			}
			if err := d.Manager.Reinit(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uninstalled %s\n", name)
			return nil
		},
	}
}

func newPluginsUpdateCmd(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins:update",
		Short: "update installed plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := d.Manager.User().Update(); err != nil {
				return err
			}
			return d.Manager.Reinit()
		},
	}
}

// splitTag splits "name@tag" into its parts, defaulting the tag to latest.
// A leading @ (scoped package) is not a separator.
func splitTag(spec string) (name, tag string) {
	idx := strings.LastIndex(spec, "@")
	if idx <= 0 {
		return spec, "latest"
	}
	return spec[:idx], spec[idx+1:]
}
