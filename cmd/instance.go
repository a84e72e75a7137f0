package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tonhe/agtoggle/internal/adguard"
	"github.com/tonhe/agtoggle/internal/indicator"
	"github.com/tonhe/agtoggle/internal/vault"
)

// newInstanceCommand returns the instance command group.
func newInstanceCommand(a *app) (cmd *cobra.Command) {
	cmd = &cobra.Command{
		Use:     "instance",
		Aliases: []string{"instances"},
		Short:   "Manage the stored instances",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all instances",
			Args:  cobra.NoArgs,
			RunE:  cliRun(a, a.instanceList),
		},
		&cobra.Command{
			Use:   "add [NAME [BASE_URI [USERNAME]]]",
			Short: "Add an instance, prompting for missing fields",
			Args:  cobra.MaximumNArgs(3),
			RunE:  cliRun(a, a.instanceAdd),
		},
		&cobra.Command{
			Use:   "remove NAME",
			Short: "Remove an instance",
			Args:  cobra.ExactArgs(1),
			RunE:  cliRun(a, a.instanceRemove),
		},
		&cobra.Command{
			Use:   "test NAME",
			Short: "Query the status and version of an instance",
			Args:  cobra.ExactArgs(1),
			RunE:  cliRun(a, a.instanceTest),
		},
	)

	return cmd
}

func (a *app) instanceList(_ context.Context, out io.Writer, _ []string) (err error) {
	store, err := a.openVault()
	if err != nil {
		return err
	}

	summaries, err := store.List()
	if err != nil {
		return fmt.Errorf("listing instances: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(out, "No instances configured.")

		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBASE URI\tUSERNAME")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, s.BaseURI, s.Username)
	}

	return w.Flush()
}

func (a *app) instanceAdd(_ context.Context, out io.Writer, args []string) (err error) {
	fields := make([]string, 3)
	copy(fields, args)

	reader := bufio.NewReader(a.in)
	prompts := []string{"Instance name: ", "Base URI: ", "Username: "}
	for i, p := range prompts {
		if fields[i] != "" {
			continue
		}

		fmt.Fprint(out, p)
		line, _ := reader.ReadString('\n')
		fields[i] = strings.TrimSpace(line)
	}

	pass, err := a.readPassword("Password: ")
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	baseURI := fields[1]
	if baseURI != "" {
		baseURI = adguard.NormalizeBaseURI(baseURI)
	}

	inst := vault.Instance{
		Name:     fields[0],
		BaseURI:  baseURI,
		Username: fields[2],
		Password: string(pass),
	}

	store, err := a.openVault()
	if err != nil {
		return err
	}

	err = store.Add(inst)
	if err != nil {
		return fmt.Errorf("adding instance: %w", err)
	}

	fmt.Fprintf(out, "Instance %q added.\n", inst.Name)

	return nil
}

func (a *app) instanceRemove(_ context.Context, out io.Writer, args []string) (err error) {
	store, err := a.openVault()
	if err != nil {
		return err
	}

	err = store.Remove(args[0])
	if err != nil {
		return fmt.Errorf("removing instance: %w", err)
	}

	fmt.Fprintf(out, "Instance %q removed.\n", args[0])

	return nil
}

func (a *app) instanceTest(ctx context.Context, out io.Writer, args []string) (err error) {
	store, err := a.openVault()
	if err != nil {
		return err
	}

	inst, err := store.Get(args[0])
	if err != nil {
		return err
	}

	t := adguard.NewTransport(&adguard.TransportConfig{
		UserAgent:   "agtoggle/" + version,
		Timeout:     a.conf.RequestTimeout,
		MaxRespSize: a.conf.MaxResponseSize,
	})
	cli := adguard.NewClient(t, inst.Config(), &a.conf.ListAPI)

	fmt.Fprintf(out, "Testing %q at %s...\n", inst.Name, inst.BaseURI)

	start := time.Now()
	st, err := cli.Status(ctx)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	fmt.Fprintf(
		out,
		"Protection: %s (%s)\n",
		onOff(st.ProtectionEnabled),
		time.Since(start).Round(time.Millisecond),
	)

	ver, err := cli.Version(ctx)
	if err != nil {
		return fmt.Errorf("version: %w", err)
	}

	fmt.Fprintf(out, "Version: %s\nConnection test successful.\n", ver.Version)

	return nil
}

// onOff returns the badge text for a protection state.
func onOff(enabled bool) (s string) {
	if enabled {
		return string(indicator.On)
	}

	return string(indicator.Off)
}

// symbolText returns the printable form of sym.
func symbolText(sym indicator.Symbol) (s string) {
	if sym == indicator.Unknown {
		return "(none)"
	}

	return string(sym)
}
