package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nicobailon/remotegrid/internal/grid"
	"github.com/nicobailon/remotegrid/internal/recent"
	"github.com/nicobailon/remotegrid/internal/tui/builders"
	"github.com/nicobailon/remotegrid/internal/tui/views"
)

func handleKey(m *model, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateTables:
		return handleTablePicker(m, msg)
	case stateRecord, stateHelp:
		switch msg.String() {
		case "esc", "q", "enter", "f1", "ctrl+d":
			m.state = stateMain
		case "ctrl+q":
			return *m, tea.Quit
		}
		return *m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return *m, tea.Quit
	case key.Matches(msg, m.keys.Copy):
		return *m, m.copyCell()
	case key.Matches(msg, m.keys.Tables):
		return *m, m.openTables()
	case key.Matches(msg, m.keys.Record):
		m.state = stateRecord
		return *m, nil
	case key.Matches(msg, m.keys.Help):
		m.state = stateHelp
		return *m, nil
	case key.Matches(msg, m.keys.Find):
		return *m, m.focusOn(searchID)
	}

	switch m.focus {
	case searchID:
		return handleSearchKey(m, msg)
	case actionsID:
		return handleActionKey(m, msg)
	}
	cmd := m.grid.Update(msg)
	return *m, tea.Batch(cmd, m.afterGrid())
}

// handleSearchKey drives the search input. Enter selects the next loaded cell
// containing the text and hands focus to the grid.
func handleSearchKey(m *model, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		return *m, m.focusNext(grid.Forward)
	case "shift+tab":
		return *m, m.focusNext(grid.Backward)
	case "esc":
		m.search.SetValue("")
		return *m, m.focusOn(m.grid.ID())
	case "enter":
		query := m.search.Value()
		from, ok := m.grid.Current()
		if !ok {
			from = grid.CellID{Row: -1}
		}
		cell, found := m.grid.Find(query, from)
		if !found {
			return *m, NewWarningCmd(fmt.Sprintf("No loaded row matches %q", query))
		}
		m.search.Blur()
		m.focus = m.grid.ID()
		m.grid.Focus()
		return *m, tea.Batch(m.grid.SelectCell(cell.Row, cell.Column), m.afterGrid())
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return *m, cmd
}

func handleActionKey(m *model, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		return *m, m.focusNext(grid.Forward)
	case "shift+tab":
		return *m, m.focusNext(grid.Backward)
	case "left", "h":
		m.active = max(0, m.active-1)
	case "right", "l":
		m.active = min(len(actions)-1, m.active+1)
	case "esc":
		return *m, m.focusOn(m.grid.ID())
	case "enter", " ":
		return *m, runAction(m, m.active)
	}
	return *m, nil
}

func runAction(m *model, i int) tea.Cmd {
	if i < 0 || i >= len(actions) {
		return nil
	}
	m.active = i
	cmd := actions[i].run(m)
	return tea.Batch(cmd, m.afterGrid())
}

func (m *model) setTableItems(tables []string, entries []recent.Entry) {
	current := ""
	if m.grid != nil {
		current = m.grid.DataProvider()
	}
	items := builders.BuildTableItems(tables, entries, m.deps.SourceName, current)
	m.tables.SetItems(items)
	m.tables.ResetFilter()
	if i := builders.FirstSelectable(items); i >= 0 {
		m.tables.Select(i)
	}
}

// skipNonSelectable moves past headers and separators in the direction of
// the last cursor move.
func skipNonSelectable(l *list.Model, down bool) {
	items := l.VisibleItems()
	for i := l.Index(); i >= 0 && i < len(items); {
		if li, ok := items[i].(builders.ListItem); !ok || li.Selectable() {
			return
		}
		if down {
			i++
		} else {
			i--
		}
		if i < 0 || i >= len(items) {
			return
		}
		l.Select(i)
	}
}

func handleTablePicker(m *model, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.tables.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.tables, cmd = m.tables.Update(msg)
		return *m, cmd
	}
	switch msg.String() {
	case "ctrl+q":
		return *m, tea.Quit
	case "esc":
		if m.tables.FilterState() == list.FilterApplied {
			m.tables.ResetFilter()
			return *m, nil
		}
		if m.grid == nil {
			return *m, tea.Quit
		}
		m.state = stateMain
		return *m, m.focusOn(m.grid.ID())
	case "enter":
		li, ok := m.tables.SelectedItem().(builders.ListItem)
		if !ok || !li.Selectable() {
			return *m, nil
		}
		return *m, m.openTable(li.Table)
	}
	var cmd tea.Cmd
	m.tables, cmd = m.tables.Update(msg)
	switch msg.String() {
	case "up", "k", "pgup":
		skipNonSelectable(&m.tables, false)
	case "down", "j", "pgdown":
		skipNonSelectable(&m.tables, true)
	}
	return *m, cmd
}

// handleMouse hit-tests presses against the table and the action bar. A
// second press on the same cell within doubleClickInterval is a double click.
func handleMouse(m *model, msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.state != stateMain || m.grid == nil {
		return *m, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		return *m, tea.Batch(m.grid.ScrollTo(m.grid.ScrollTop()-wheelRows), m.afterGrid())
	case tea.MouseButtonWheelDown:
		return *m, tea.Batch(m.grid.ScrollTo(m.grid.ScrollTop()+wheelRows), m.afterGrid())
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return *m, nil
	}

	barY := tableTop + 1 + m.grid.VisibleRows()
	switch {
	case msg.Y == tableTop-1:
		return *m, m.focusOn(searchID)
	case msg.Y == barY:
		i := views.ActionAt(actionLabels(), msg.X)
		if i < 0 {
			return *m, nil
		}
		focus := m.focusOn(actionsID)
		return *m, tea.Batch(focus, runAction(m, i))
	case msg.Y < tableTop || msg.Y > barY:
		return *m, nil
	}

	c := views.HitTest(m.grid, msg.X, msg.Y-tableTop)
	c.Modifier = msg.Ctrl || msg.Shift
	if c.Kind == grid.ClickCell {
		cell := grid.CellID{Row: c.Row, Column: c.Column}
		now := m.now()
		c.Double = m.click.cell == cell && now.Sub(m.click.at) <= doubleClickInterval
		m.click = clickRecord{at: now, cell: cell}
	}

	var cmds []tea.Cmd
	if c.Kind != grid.ClickOverlay && c.Kind != grid.ClickOutside && m.focus != m.grid.ID() {
		if m.focus == searchID {
			m.search.Blur()
		}
		m.focus = m.grid.ID()
		m.grid.Focus()
	}
	cmds = append(cmds, m.grid.Click(c), m.afterGrid())
	return *m, tea.Batch(cmds...)
}
