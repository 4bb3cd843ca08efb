package grid

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines the grid's key bindings. Printable characters are not
// bound; they open the editor on the current cell.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Enter and Tab move according to the grid's navigation modes.
	Enter      key.Binding
	ShiftEnter key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding

	Edit   key.Binding
	Cancel key.Binding
	Toggle key.Binding

	Insert key.Binding
	Delete key.Binding
	Reload key.Binding

	Sort    key.Binding // Sort by the current column.
	AddSort key.Binding // Add the current column to the sort.

	MoveLeft  key.Binding
	MoveRight key.Binding
	Narrow    key.Binding
	Widen     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "right"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "page down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "next"),
		),
		ShiftEnter: key.NewBinding(
			key.WithKeys("shift+enter", "alt+enter"),
			key.WithHelp("S-Enter", "previous"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "next cell"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-Tab", "previous cell"),
		),
		Edit: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("F2", "edit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancel"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "toggle"),
		),
		Insert: key.NewBinding(
			key.WithKeys("insert"),
			key.WithHelp("Ins", "insert row"),
		),
		Delete: key.NewBinding(
			key.WithKeys("delete"),
			key.WithHelp("Del", "delete row"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "reload"),
		),
		Sort: key.NewBinding(
			key.WithKeys("alt+s"),
			key.WithHelp("M-s", "sort"),
		),
		AddSort: key.NewBinding(
			key.WithKeys("alt+S"),
			key.WithHelp("M-S", "add sort"),
		),
		MoveLeft: key.NewBinding(
			key.WithKeys("alt+left"),
			key.WithHelp("M-←", "move column left"),
		),
		MoveRight: key.NewBinding(
			key.WithKeys("alt+right"),
			key.WithHelp("M-→", "move column right"),
		),
		Narrow: key.NewBinding(
			key.WithKeys("ctrl+left"),
			key.WithHelp("C-←", "narrow column"),
		),
		Widen: key.NewBinding(
			key.WithKeys("ctrl+right"),
			key.WithHelp("C-→", "widen column"),
		),
	}
}

// ShortHelp lists the bindings shown in a footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Tab, k.Edit, k.Toggle, k.Sort, k.Insert, k.Delete, k.Reload}
}

// printable is the text a key press types, empty for control keys.
func printable(msg tea.KeyMsg) string {
	if msg.Alt || msg.Paste {
		return ""
	}
	switch msg.Type {
	case tea.KeyRunes:
		return string(msg.Runes)
	case tea.KeySpace:
		return " "
	}
	return ""
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if s := m.edit.session; s != nil {
		if !s.pending {
			return m.handleEditingKey(s, msg)
		}
		if cmd, handled := m.handlePendingKey(s, msg); handled {
			return cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		return m.SelectPreviousRow(NavigationNone)
	case key.Matches(msg, m.keys.Down):
		return m.SelectNextRow(NavigationNone)
	case key.Matches(msg, m.keys.Left):
		return m.SelectPreviousCell(NavigationNone)
	case key.Matches(msg, m.keys.Right):
		return m.SelectNextCell(NavigationNone)
	case key.Matches(msg, m.keys.PageUp):
		return m.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		return m.PageDown()
	case key.Matches(msg, m.keys.Enter):
		return m.Navigate(m.enterMode, Forward)
	case key.Matches(msg, m.keys.ShiftEnter):
		return m.Navigate(m.enterMode, Backward)
	case key.Matches(msg, m.keys.Tab):
		return m.Navigate(m.tabMode, Forward)
	case key.Matches(msg, m.keys.ShiftTab):
		return m.Navigate(m.tabMode, Backward)
	case key.Matches(msg, m.keys.Edit):
		return m.BeginEdit("")
	case key.Matches(msg, m.keys.Toggle):
		return m.BeginEdit(" ")
	case key.Matches(msg, m.keys.Insert):
		return m.InsertRecord()
	case key.Matches(msg, m.keys.Delete):
		return m.DeleteRecord()
	case key.Matches(msg, m.keys.Reload):
		return m.Reload()
	case key.Matches(msg, m.keys.Sort), key.Matches(msg, m.keys.AddSort):
		if cur, ok := m.current(); ok {
			return m.ClickHeader(cur.Column, key.Matches(msg, m.keys.AddSort))
		}
		return nil
	case key.Matches(msg, m.keys.MoveLeft):
		return m.moveColumn(-1)
	case key.Matches(msg, m.keys.MoveRight):
		return m.moveColumn(1)
	case key.Matches(msg, m.keys.Narrow):
		return m.resizeColumn(-1)
	case key.Matches(msg, m.keys.Widen):
		return m.resizeColumn(1)
	}
	if text := printable(msg); text != "" {
		return m.BeginEdit(text)
	}
	return nil
}

// commitIntent maps the keys that close an editor to the navigation that
// follows the commit. It returns nil for every other key.
func (m *Model) commitIntent(msg tea.KeyMsg) func(*Model) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Enter):
		return func(m *Model) tea.Cmd { return m.Navigate(m.enterMode, Forward) }
	case key.Matches(msg, m.keys.ShiftEnter):
		return func(m *Model) tea.Cmd { return m.Navigate(m.enterMode, Backward) }
	case key.Matches(msg, m.keys.Tab):
		return func(m *Model) tea.Cmd { return m.Navigate(m.tabMode, Forward) }
	case key.Matches(msg, m.keys.ShiftTab):
		return func(m *Model) tea.Cmd { return m.Navigate(m.tabMode, Backward) }
	case key.Matches(msg, m.keys.Up):
		return func(m *Model) tea.Cmd { return m.SelectPreviousRow(NavigationNone) }
	case key.Matches(msg, m.keys.Down):
		return func(m *Model) tea.Cmd { return m.SelectNextRow(NavigationNone) }
	}
	return nil
}

func (m *Model) handleEditingKey(s *EditSession, msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Cancel) {
		m.CancelEdit()
		return nil
	}
	if then := m.commitIntent(msg); then != nil {
		return m.commitEdit(then)
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	m.updateSuggestions(s)
	return cmd
}

// handlePendingKey buffers keys until the selection round-trip confirms the
// cell. A commit key with text buffered is held on the session and replayed
// once the editor opens.
func (m *Model) handlePendingKey(s *EditSession, msg tea.KeyMsg) (tea.Cmd, bool) {
	if s.then != nil {
		if key.Matches(msg, m.keys.Cancel) {
			m.CancelEdit()
		}
		return nil, true
	}
	if text := printable(msg); text != "" {
		s.buffered += text
		return nil, true
	}
	if key.Matches(msg, m.keys.Cancel) {
		m.CancelEdit()
		return nil, true
	}
	if then := m.commitIntent(msg); then != nil && s.buffered != "" {
		s.then = then
		m.logger.Debug("commit held until selection confirms", "cell", s.Cell)
		return nil, true
	}
	m.edit.session = nil
	return nil, false
}

// moveColumn swaps the current column with its neighbour in the display order.
func (m *Model) moveColumn(delta int) tea.Cmd {
	cur, ok := m.current()
	if !ok {
		return nil
	}
	order := m.layout.Order()
	i := columnIndex(order, cur.Column)
	j := i + delta
	if i < 0 || j < 0 || j >= len(order) {
		return nil
	}
	if err := m.layout.Swap(order[i], order[j]); err != nil {
		return m.status(err)
	}
	return nil
}

func (m *Model) resizeColumn(delta int) tea.Cmd {
	cur, ok := m.current()
	if !ok {
		return nil
	}
	if err := m.layout.Resize(cur.Column, delta); err != nil {
		m.logger.Debug("resize refused", "column", cur.Column, "error", err)
	}
	return nil
}
