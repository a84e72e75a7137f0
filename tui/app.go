package tui

import (
	"context"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/agtoggle/internal/adguard"
	"github.com/tonhe/agtoggle/internal/command"
	"github.com/tonhe/agtoggle/internal/config"
	"github.com/tonhe/agtoggle/internal/engine"
	"github.com/tonhe/agtoggle/internal/indicator"
	"github.com/tonhe/agtoggle/tui/components"
	"github.com/tonhe/agtoggle/tui/keys"
	"github.com/tonhe/agtoggle/tui/styles"
	"github.com/tonhe/agtoggle/tui/views"
)

// AppState represents the current screen of the application.
type AppState int

const (
	StateStatus AppState = iota
	StateDetail
	StatePrompt
)

// Engine is the reconciliation loop shown by the UI.
type Engine interface {
	Snapshot() (snap *engine.Snapshot)
	Refresh(ctx context.Context) (snap *engine.Snapshot, err error)
}

// Commands are the protection and list commands.
type Commands interface {
	Toggle(ctx context.Context) (err error)
	SetProtection(ctx context.Context, enabled bool, dur time.Duration) (err error)
	Allowlist(ctx context.Context) (err error)
	Denylist(ctx context.Context) (err error)
	Move(ctx context.Context, l adguard.List, domain string) (added bool, err error)
}

// AppConfig is the configuration structure for AppModel.
type AppConfig struct {
	// Context is the parent of all command contexts.  It must not be nil.
	Context context.Context

	// Config is the preferences at start.  It must not be nil.
	Config *config.Config

	// Engine provides the snapshots.  It must not be nil.
	Engine Engine

	// Commands runs the commands.  It must not be nil.
	Commands Commands

	// Sink is the badge.  It must not be nil.
	Sink indicator.Sink

	// Tab provides the current page.  It must not be nil.
	Tab command.Tab

	// Theme overrides the theme of Config if not empty.
	Theme string

	// Version is shown in the header.
	Version string
}

// TickMsg triggers a periodic UI refresh to pick up new poll data.
type TickMsg struct{}

// domainMsg carries the current page host name.
type domainMsg struct {
	domain string
}

// refreshDoneMsg is sent when a manual refresh finishes.
type refreshDoneMsg struct {
	snap *engine.Snapshot
	err  error
}

// commandDoneMsg is sent when a command finishes.
type commandDoneMsg struct {
	err  error
	name string
	sym  indicator.Symbol
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	ctx      context.Context
	engine   Engine
	commands Commands
	sink     indicator.Sink
	tab      command.Tab
	config   *config.Config

	state     AppState
	theme     styles.Theme
	themeSlug string
	status    views.StatusView
	detail    views.DetailView
	prompt    views.DomainPrompt
	help      views.HelpView

	snapshot *engine.Snapshot
	badge    indicator.Symbol
	domain   string
	version  string
	message  string
	msgErr   bool
	busy     bool

	width  int
	height int
}

// NewAppModel creates a new AppModel.  c must not be nil.
func NewAppModel(c *AppConfig) AppModel {
	slug := c.Config.Theme
	if c.Theme != "" {
		slug = c.Theme
	}

	theme, ok := styles.Lookup(slug)
	if !ok {
		slug, theme = styles.DefaultSlug, styles.Current
	}

	m := AppModel{
		ctx:       c.Context,
		engine:    c.Engine,
		commands:  c.Commands,
		sink:      c.Sink,
		tab:       c.Tab,
		config:    c.Config,
		state:     StateStatus,
		themeSlug: slug,
		version:   c.Version,
		snapshot:  &engine.Snapshot{},
	}
	m.setTheme(theme)
	m.applySnapshot(c.Engine.Snapshot())

	return m
}

// setTheme rebuilds the views for theme.
func (m *AppModel) setTheme(theme styles.Theme) {
	m.theme = theme
	styles.Use(theme)

	m.status = views.NewStatusView(theme)
	m.detail = views.NewDetailView(theme)
	m.prompt = views.NewDomainPrompt(theme)
	m.help = views.NewHelpView(theme)

	m.status.SetSnapshot(m.snapshot)
	m.resize()
}

// resize propagates the window size to the views.
func (m *AppModel) resize() {
	// Body height = total - 1 (header) - 1 (message) - 2 (status bar lines)
	h := m.height - 4
	m.status.SetSize(m.width, h)
	m.detail.SetSize(m.width, h)
	m.prompt.SetSize(m.width, h)
	m.help.SetSize(m.width, h)
}

// applySnapshot shows snap.  The badge follows the snapshot only when a new
// poll happened, so that a command result is not overwritten by an older
// poll.
func (m *AppModel) applySnapshot(snap *engine.Snapshot) {
	if snap == nil {
		return
	}

	if m.snapshot == nil || !snap.LastPoll.Equal(m.snapshot.LastPoll) {
		m.badge = snap.Indicator
	}

	m.snapshot = snap
	m.status.SetSnapshot(snap)

	if m.state == StateDetail {
		for i := range snap.Instances {
			if snap.Instances[i].Name == m.detail.Name() {
				m.detail.SetInstance(&snap.Instances[i])
			}
		}
	}
}

// Init returns the initial commands: the tick loop and the current page.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.currentDomain())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// currentDomain asks the tab for the current page.
func (m AppModel) currentDomain() tea.Cmd {
	ctx, tab := m.ctx, m.tab
	return func() tea.Msg {
		return domainMsg{domain: tab.CurrentDomain(ctx)}
	}
}

// run starts a command in the background.
func (m *AppModel) run(name string, f func(ctx context.Context) error) tea.Cmd {
	if m.busy {
		return nil
	}

	m.busy = true
	m.message, m.msgErr = name+"...", false

	ctx, sink := m.ctx, m.sink
	return func() tea.Msg {
		err := f(ctx)
		sym, symErr := sink.Indicator(ctx)
		if symErr != nil {
			sym = indicator.Err
		}
		return commandDoneMsg{err: err, name: name, sym: sym}
	}
}

// refresh starts a manual poll in the background.
func (m *AppModel) refresh() tea.Cmd {
	m.message, m.msgErr = "refreshing...", false

	ctx, eng := m.ctx, m.engine
	return func() tea.Msg {
		snap, err := eng.Refresh(ctx)
		return refreshDoneMsg{snap: snap, err: err}
	}
}

// Update handles messages and dispatches to the active view.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case TickMsg:
		m.applySnapshot(m.engine.Snapshot())
		return m, tickCmd()

	case domainMsg:
		m.domain = msg.domain
		return m, nil

	case refreshDoneMsg:
		switch {
		case errors.Is(msg.err, engine.ErrThrottled):
			m.message, m.msgErr = "refresh throttled, try again in a moment", false
		case msg.err != nil:
			m.message, m.msgErr = msg.err.Error(), true
		default:
			m.message, m.msgErr = "", false
		}
		m.applySnapshot(msg.snap)
		return m, nil

	case commandDoneMsg:
		m.busy = false
		m.badge = msg.sym
		if msg.err != nil {
			m.message, m.msgErr = msg.name+": "+msg.err.Error(), true
		} else {
			m.message, m.msgErr = msg.name+": done", false
		}
		return m, nil

	case views.DomainSubmitMsg:
		m.state = StateStatus
		if msg.Domain == "" {
			m.message, m.msgErr = command.ErrNoDomain.Error(), true
			return m, nil
		}
		l, domain := msg.List, msg.Domain
		return m, m.run(l.String()+" "+domain, func(ctx context.Context) error {
			_, err := m.commands.Move(ctx, l, domain)
			return err
		})

	case views.DomainCancelMsg:
		m.state = StateStatus
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.state == StatePrompt {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey handles key presses for the active state.
func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state == StatePrompt {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}

	km := keys.DefaultKeyMap
	switch {
	case key.Matches(msg, km.Quit):
		return m, tea.Quit
	case key.Matches(msg, km.Help):
		m.help.Toggle()
		return m, nil
	case m.help.IsVisible() && key.Matches(msg, km.Escape):
		m.help.Toggle()
		return m, nil
	case key.Matches(msg, km.Toggle):
		return m, m.run("toggle", m.commands.Toggle)
	case key.Matches(msg, km.Enable):
		return m, m.run("enable", func(ctx context.Context) error {
			return m.commands.SetProtection(ctx, true, 0)
		})
	case key.Matches(msg, km.Disable):
		return m, m.run("disable", func(ctx context.Context) error {
			return m.commands.SetProtection(ctx, false, 0)
		})
	case key.Matches(msg, km.Allow):
		return m, m.run("allowlist", m.commands.Allowlist)
	case key.Matches(msg, km.Deny):
		return m, m.run("denylist", m.commands.Denylist)
	case key.Matches(msg, km.AllowDomain):
		m.state = StatePrompt
		return m, m.prompt.Open(adguard.ListAllow, m.domain)
	case key.Matches(msg, km.DenyDomain):
		m.state = StatePrompt
		return m, m.prompt.Open(adguard.ListDeny, m.domain)
	case key.Matches(msg, km.Refresh):
		return m, m.refresh()
	case key.Matches(msg, km.Theme):
		var next styles.Theme
		m.themeSlug, next = styles.Next(m.themeSlug)
		m.setTheme(next)
		m.message, m.msgErr = "theme: "+m.theme.Name, false
		return m, nil
	}

	switch m.state {
	case StateStatus:
		if key.Matches(msg, km.Enter) {
			if inst := m.status.Selected(); inst != nil {
				m.detail.SetInstance(inst)
				m.state = StateDetail
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.status, cmd = m.status.Update(msg)
		return m, cmd
	case StateDetail:
		var (
			cmd  tea.Cmd
			back bool
		)
		m.detail, cmd, back = m.detail.Update(msg)
		if back {
			m.state = StateStatus
		}
		return m, cmd
	}

	return m, nil
}

// View renders the full application UI by composing header, body, message
// line and status bar.
func (m AppModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	combined := m.snapshot.Combined
	header := components.RenderHeader(m.theme, m.badge, combined, m.domain, m.width, m.version)

	var body string
	switch {
	case m.help.IsVisible():
		body = m.help.View()
	case m.state == StatePrompt:
		body = m.prompt.View()
	case m.state == StateDetail:
		body = m.detail.View()
	default:
		body = m.status.View()
	}

	okCount := 0
	for _, inst := range m.snapshot.Instances {
		if inst.PollError == nil {
			okCount++
		}
	}
	statusBar := components.RenderStatusBar(m.theme, components.PollInfo{
		LastPoll:  m.snapshot.LastPoll,
		Interval:  m.config.PollInterval,
		Reachable: okCount,
		Total:     len(m.snapshot.Instances),
	}, m.width)

	sty := styles.NewStyles(m.theme)
	msgStyle := sty.Message
	if m.msgErr {
		msgStyle = sty.MessageError
	}
	msgLine := lipgloss.NewStyle().
		Width(m.width).
		Background(m.theme.Base00).
		Render(" " + msgStyle.Render(m.message))

	bodyStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(max(m.height-4, 1)).
		Background(m.theme.Base00).
		Foreground(m.theme.Base05)

	return lipgloss.JoinVertical(lipgloss.Left, header, bodyStyle.Render(body), msgLine, statusBar)
}
