// Package keys contains the key bindings of the popup.
package keys

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap is the set of key bindings.  It implements help.KeyMap.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Enter       key.Binding
	Escape      key.Binding
	Quit        key.Binding
	Toggle      key.Binding
	Enable      key.Binding
	Disable     key.Binding
	Allow       key.Binding
	Deny        key.Binding
	AllowDomain key.Binding
	DenyDomain  key.Binding
	Refresh     key.Binding
	Theme       key.Binding
	Help        key.Binding
}

// type check
var _ help.KeyMap = KeyMap{}

// DefaultKeyMap is the key map of the popup.
var DefaultKeyMap = KeyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Enter:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "instance detail")),
	Escape:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Toggle:      key.NewBinding(key.WithKeys("t", " "), key.WithHelp("t/space", "toggle")),
	Enable:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "enable")),
	Disable:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "disable")),
	Allow:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "allow page")),
	Deny:        key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "block page")),
	AllowDomain: key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "allow domain")),
	DenyDomain:  key.NewBinding(key.WithKeys("B"), key.WithHelp("B", "block domain")),
	Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Theme:       key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "next theme")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// ShortHelp implements the help.KeyMap interface for KeyMap.
func (k KeyMap) ShortHelp() (bs []key.Binding) {
	return []key.Binding{k.Toggle, k.Enable, k.Disable, k.Allow, k.Deny, k.Refresh, k.Help, k.Quit}
}

// FullHelp implements the help.KeyMap interface for KeyMap.  The columns are
// protection, lists and navigation.
func (k KeyMap) FullHelp() (cols [][]key.Binding) {
	return [][]key.Binding{
		{k.Toggle, k.Enable, k.Disable, k.Refresh},
		{k.Allow, k.Deny, k.AllowDomain, k.DenyDomain},
		{k.Up, k.Down, k.Enter, k.Escape, k.Theme, k.Help, k.Quit},
	}
}
