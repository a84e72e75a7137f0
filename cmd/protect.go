package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tonhe/agtoggle/internal/command"
	"github.com/tonhe/agtoggle/internal/engine"
	"github.com/tonhe/agtoggle/internal/status"
)

// newStatusCommand returns the status command.  It polls all instances and
// brings the badge up to date, the same as opening the popup.
func newStatusCommand(a *app) (cmd *cobra.Command) {
	var versions bool

	cmd = &cobra.Command{
		Use:   "status",
		Short: "Show the combined and per-instance protection status",
		Args:  cobra.NoArgs,
		RunE: cliRun(a, func(ctx context.Context, out io.Writer, _ []string) (err error) {
			c, err := a.build(nil, nil)
			if err != nil {
				return err
			}

			if versions {
				return printVersions(ctx, out, c.aggregator)
			}

			snap, err := a.reconciler(c, nil).Refresh(ctx)
			if err != nil {
				return err
			}

			printSnapshot(out, snap)

			return snap.ConfigError
		}),
	}

	cmd.Flags().BoolVar(&versions, "versions", false, "show the version of every instance")

	return cmd
}

// printSnapshot writes a table of the instances in snap followed by the
// combined status.
func printSnapshot(out io.Writer, snap *engine.Snapshot) {
	if len(snap.Instances) > 0 {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSTATUS\tVERSION\tLATENCY\tERROR")
		for _, inst := range snap.Instances {
			ver, errText := "-", ""
			if inst.Info != nil {
				ver = inst.Info.Version
			}

			if inst.PollError != nil {
				errText = inst.PollError.Error()
			}

			fmt.Fprintf(
				w,
				"%s\t%s\t%s\t%s\t%s\n",
				inst.Name,
				inst.Status,
				ver,
				inst.Latency.Round(time.Millisecond),
				errText,
			)
		}

		_ = w.Flush()
	}

	fmt.Fprintf(out, "Combined: %s (badge %s)\n", snap.Combined, symbolText(snap.Indicator))
}

// printVersions writes the version of every instance.
func printVersions(ctx context.Context, out io.Writer, agg *status.Aggregator) (err error) {
	results, err := agg.Versions(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tRUNNING")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%s\t-\t%v\n", r.Name, r.Err)

			continue
		}

		fmt.Fprintf(w, "%s\t%s\t%t\n", r.Name, r.Info.Version, r.Info.Running)
	}

	return w.Flush()
}

// newToggleCommand returns the toggle command.
func newToggleCommand(a *app) (cmd *cobra.Command) {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Flip protection on every instance",
		Long: "toggle polls the instances first.  If protection is on everywhere, it " +
			"is disabled for the default duration; if it is off anywhere, it is " +
			"enabled everywhere.  An unreachable instance makes the state ambiguous " +
			"and nothing is changed.",
		Args: cobra.NoArgs,
		RunE: cliRun(a, func(ctx context.Context, out io.Writer, _ []string) (err error) {
			c, err := a.build(nil, nil)
			if err != nil {
				return err
			}

			_, err = a.reconciler(c, nil).Refresh(ctx)
			if err != nil {
				return err
			}

			err = c.dispatcher.Toggle(ctx)
			if err != nil {
				return err
			}

			return printBadge(ctx, out, c)
		}),
	}
}

// newEnableCommand returns the enable command.
func newEnableCommand(a *app) (cmd *cobra.Command) {
	return &cobra.Command{
		Use:   "enable",
		Short: "Enable protection on every instance",
		Args:  cobra.NoArgs,
		RunE: cliRun(a, func(ctx context.Context, out io.Writer, _ []string) (err error) {
			c, err := a.build(nil, nil)
			if err != nil {
				return err
			}

			err = c.dispatcher.SetProtection(ctx, true, 0)
			if err != nil {
				return err
			}

			return printBadge(ctx, out, c)
		}),
	}
}

// newDisableCommand returns the disable command.
func newDisableCommand(a *app) (cmd *cobra.Command) {
	var dur time.Duration

	cmd = &cobra.Command{
		Use:   "disable",
		Short: "Disable protection on every instance",
		Args:  cobra.NoArgs,
		RunE: cliRun(a, func(ctx context.Context, out io.Writer, _ []string) (err error) {
			if dur < 0 {
				return fmt.Errorf("--for: negative duration %s", dur)
			}

			c, err := a.build(nil, nil)
			if err != nil {
				return err
			}

			err = c.dispatcher.SetProtection(ctx, false, dur)
			if err != nil {
				return err
			}

			return printBadge(ctx, out, c)
		}),
	}

	cmd.Flags().DurationVar(&dur, "for", 0, "how long protection stays off (default from preferences)")

	return cmd
}

// newListCommand returns the allow or deny command.
func newListCommand(a *app, name string) (cmd *cobra.Command) {
	return &cobra.Command{
		Use:   name + " [DOMAIN]",
		Short: fmt.Sprintf("Move a domain to the %slist of every instance", name),
		Long: fmt.Sprintf(
			"%s removes the domain from the opposite list and adds it to the %slist. "+
				"Without DOMAIN the domain_command preference provides the current page.",
			name,
			name,
		),
		Args: cobra.MaximumNArgs(1),
		RunE: cliRun(a, func(ctx context.Context, out io.Writer, args []string) (err error) {
			tab := command.NewExecTab(a.logger, a.conf.DomainCommand, a.conf.ReloadCommand)
			if len(args) == 1 {
				tab = tab.WithDomain(args[0])
			}

			c, err := a.build(tab, nil)
			if err != nil {
				return err
			}

			if name == "allow" {
				err = c.dispatcher.Allowlist(ctx)
			} else {
				err = c.dispatcher.Denylist(ctx)
			}

			if err != nil {
				return err
			}

			return printBadge(ctx, out, c)
		}),
	}
}

// printBadge writes the displayed badge symbol.
func printBadge(ctx context.Context, out io.Writer, c *components) (err error) {
	sym, err := c.sink.Indicator(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Badge: %s\n", symbolText(sym))

	return nil
}
