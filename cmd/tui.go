package cmd

import (
	"context"
	"fmt"

	"github.com/AdguardTeam/golibs/errors"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tonhe/agtoggle/internal/command"
	"github.com/tonhe/agtoggle/tui"
)

// runTUI runs the interactive UI until the user quits or ctx is canceled.
// The engine refreshes the badge in the background while the UI is open.
func runTUI(ctx context.Context, a *app, theme string) (err error) {
	if theme != "" && !knownTheme(theme) {
		return fmt.Errorf("unknown theme %q, run 'agtoggle themes' to see available themes", theme)
	}

	err = a.init(true)
	if err != nil {
		return err
	}

	tab := command.NewExecTab(a.logger, a.conf.DomainCommand, a.conf.ReloadCommand)
	c, err := a.build(tab, nil)
	if err != nil {
		return err
	}

	mgr, err := a.manager(c, nil)
	if err != nil {
		return err
	}

	err = mgr.Start(ctx)
	if err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		err = errors.WithDeferred(err, mgr.Shutdown(shutdownCtx))
	}()

	model := tui.NewAppModel(&tui.AppConfig{
		Context:  ctx,
		Config:   a.conf,
		Engine:   mgr,
		Commands: c.dispatcher,
		Sink:     c.sink,
		Tab:      tab,
		Theme:    theme,
		Version:  version,
	})

	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}
