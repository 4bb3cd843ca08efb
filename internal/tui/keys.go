package tui

import "github.com/charmbracelet/bubbles/key"

// appKeyMap holds the bindings that work regardless of which component has
// focus. Everything else is routed to the focused component.
type appKeyMap struct {
	Quit   key.Binding
	Copy   key.Binding
	Tables key.Binding
	Record key.Binding
	Find   key.Binding
	Help   key.Binding
}

func defaultAppKeyMap() appKeyMap {
	return appKeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q"),
			key.WithHelp("C-q", "quit"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "copy cell"),
		),
		Tables: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "open table"),
		),
		Record: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("C-d", "show row"),
		),
		Find: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("C-f", "find"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
	}
}

func (k appKeyMap) bindings() []key.Binding {
	return []key.Binding{k.Find, k.Tables, k.Record, k.Copy, k.Help, k.Quit}
}
