package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Dismiss     key.Binding
	SwitchFocus key.Binding
	Trigger     key.Binding
	Debug       key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Dismiss: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "close"),
	),
	SwitchFocus: key.NewBinding(
		key.WithKeys("tab", "shift+tab"),
		key.WithHelp("tab", "switch field"),
	),
	Trigger: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "get context"),
	),
	Debug: key.NewBinding(
		key.WithKeys("f2"),
		key.WithHelp("f2", "debug"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

// help lists the status bar hints. The trigger key only matters when
// context is not shown automatically.
func (k keyMap) help(autoDisplay bool) []key.Binding {
	if autoDisplay {
		return []key.Binding{k.SwitchFocus, k.Dismiss, k.Debug, k.Quit}
	}
	return []key.Binding{k.SwitchFocus, k.Trigger, k.Dismiss, k.Debug, k.Quit}
}
