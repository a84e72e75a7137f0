// Package cmd is the agtoggle command line.  Without a subcommand it launches
// the TUI.
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// version is the program version.  It is set at build time with -ldflags.
var version = "v0.1.0"

// Execute runs the command line with args and returns the exit code.
func Execute(ctx context.Context, args []string) (code int) {
	envs, err := parseEnvironment()
	if err == nil {
		err = envs.Validate()
	}

	if err != nil {
		fmt.Fprintf(newApp(&environment{}).errOut, "Error: %v\n", err)

		return 1
	}

	a := newApp(envs)
	root := newRootCommand(a)
	root.SetArgs(args)

	err = root.ExecuteContext(ctx)
	if closeErr := a.close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		fmt.Fprintf(a.errOut, "Error: %v\n", err)

		return 1
	}

	return 0
}

// newRootCommand returns the command tree bound to a.
func newRootCommand(a *app) (root *cobra.Command) {
	var theme string

	root = &cobra.Command{
		Use:   "agtoggle",
		Short: "Toggle protection of AdGuard Home instances",
		Long: "agtoggle shows the combined protection status of one or more " +
			"AdGuard Home instances and toggles it on all of them at once.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			return runTUI(cmd.Context(), a, theme)
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.Flags().StringVar(&theme, "theme", "", "override the color theme")

	root.AddCommand(
		newStatusCommand(a),
		newToggleCommand(a),
		newEnableCommand(a),
		newDisableCommand(a),
		newListCommand(a, "allow"),
		newListCommand(a, "deny"),
		newInstanceCommand(a),
		newConfigCommand(a),
		newThemesCommand(a),
		newRunCommand(a),
		newVersionCommand(a),
	)

	return root
}

// cliRun returns a RunE that initializes a for command line use before
// calling f.
func cliRun(
	a *app,
	f func(ctx context.Context, out io.Writer, args []string) (err error),
) (run func(cmd *cobra.Command, args []string) (err error)) {
	return func(cmd *cobra.Command, args []string) (err error) {
		err = a.init(false)
		if err != nil {
			return err
		}

		return f(cmd.Context(), a.out, args)
	}
}

// newVersionCommand returns the version command.
func newVersionCommand(a *app) (cmd *cobra.Command) {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "agtoggle %s\n", version)
		},
	}
}
