package views

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tonhe/agtoggle/internal/adguard"
	"github.com/tonhe/agtoggle/internal/command"
	"github.com/tonhe/agtoggle/tui/keys"
	"github.com/tonhe/agtoggle/tui/styles"
)

// DomainSubmitMsg is sent when the user confirms the domain prompt.
type DomainSubmitMsg struct {
	Domain string
	List   adguard.List
}

// DomainCancelMsg is sent when the user dismisses the domain prompt.
type DomainCancelMsg struct{}

// DomainPrompt is a modal asking for the domain to move to a list.
type DomainPrompt struct {
	sty    *styles.Styles
	input  textinput.Model
	list   adguard.List
	width  int
	height int
}

// NewDomainPrompt creates a new DomainPrompt with the given theme.
func NewDomainPrompt(theme styles.Theme) DomainPrompt {
	in := textinput.New()
	in.Placeholder = "example.com"
	in.CharLimit = 253
	in.Width = 40

	sty := styles.NewStyles(theme)
	in.PromptStyle = sty.PromptLabel
	in.TextStyle = sty.PromptInput
	in.Cursor.Style = sty.PromptCursor

	return DomainPrompt{sty: sty, input: in}
}

// Open shows the prompt for list prefilled with domain.
func (p *DomainPrompt) Open(l adguard.List, domain string) tea.Cmd {
	p.list = l
	p.input.SetValue(domain)
	p.input.CursorEnd()
	return p.input.Focus()
}

// SetSize updates the available dimensions for the modal.
func (p *DomainPrompt) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Update handles input.  Enter submits the host name of the entered text.
func (p DomainPrompt) Update(msg tea.Msg) (DomainPrompt, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.DefaultKeyMap.Escape):
			p.input.Blur()
			return p, func() tea.Msg { return DomainCancelMsg{} }
		case key.Matches(msg, keys.DefaultKeyMap.Enter):
			p.input.Blur()
			submit := DomainSubmitMsg{Domain: command.HostOf(p.input.Value()), List: p.list}
			return p, func() tea.Msg { return submit }
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

// View renders the prompt as a centered modal box.
func (p DomainPrompt) View() string {
	title := p.sty.ModalTitle.Render("Move domain to the " + p.list.String() + "list")
	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		p.input.View(),
		"",
		p.sty.TableCellDim.Render("[enter] confirm  [esc] cancel"),
	)

	return lipgloss.Place(p.width, p.height, lipgloss.Center, lipgloss.Center, p.sty.ModalBorder.Render(body))
}
