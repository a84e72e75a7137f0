package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/tonhe/agtoggle/internal/config"
	"github.com/tonhe/agtoggle/tui/styles"
)

// newConfigCommand returns the config command group.
func newConfigCommand(a *app) (cmd *cobra.Command) {
	cmd = &cobra.Command{
		Use:   "config",
		Short: "Show and change the preferences",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Show the configuration and state directories",
			Args:  cobra.NoArgs,
			RunE: cliRun(a, func(_ context.Context, out io.Writer, _ []string) (err error) {
				fmt.Fprintf(out, "config: %s\nstate:  %s\n", a.paths.ConfigDir, a.paths.DataDir)

				return nil
			}),
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective preferences",
			Args:  cobra.NoArgs,
			RunE: cliRun(a, func(_ context.Context, out io.Writer, _ []string) (err error) {
				return toml.NewEncoder(out).Encode(a.conf)
			}),
		},
		&cobra.Command{
			Use:   "set KEY VALUE",
			Short: "Change a preference",
			Long:  "Keys: " + strings.Join(config.Keys(), ", ") + ".",
			Args:  cobra.MinimumNArgs(2),
			RunE:  cliRun(a, a.configSet),
		},
	)

	return cmd
}

func (a *app) configSet(_ context.Context, out io.Writer, args []string) (err error) {
	key, value := args[0], strings.Join(args[1:], " ")
	if key == "theme" && !knownTheme(value) {
		return fmt.Errorf("unknown theme %q, run 'agtoggle themes' to see available themes", value)
	}

	err = a.conf.Set(key, value)
	if err != nil {
		return err
	}

	err = config.SaveConfig(a.conf, a.paths.ConfigFile())
	if err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}

	fmt.Fprintf(out, "%s set to %q.\n", key, value)

	return nil
}

// knownTheme returns true if slug names a built-in theme.
func knownTheme(slug string) (ok bool) {
	_, ok = styles.Lookup(slug)

	return ok
}

// newThemesCommand returns the themes command.
func newThemesCommand(a *app) (cmd *cobra.Command) {
	return &cobra.Command{
		Use:   "themes",
		Short: "List the available themes",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			for _, name := range styles.Slugs() {
				fmt.Fprintln(a.out, name)
			}
		},
	}
}
