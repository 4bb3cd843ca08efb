package grid

import tea "github.com/charmbracelet/bubbletea"

type ClickKind int

const (
	ClickCell ClickKind = iota
	ClickHeader
	// ClickOverlay targets the open editor's suggestion list.
	ClickOverlay
	ClickOutside
)

// Click is a pointer press already hit-tested by the renderer.
type Click struct {
	Kind     ClickKind
	Row      int
	Column   string
	Item     int
	Modifier bool
	Double   bool
}

// Click applies a pointer press. Clicks outside the editor commit it as a
// blur would, except on the editor's own overlay.
func (m *Model) Click(c Click) tea.Cmd {
	switch c.Kind {
	case ClickOverlay:
		s := m.edit.session
		if s == nil || c.Item < 0 || c.Item >= len(s.suggestions) {
			return nil
		}
		s.input.SetValue(s.suggestions[c.Item])
		s.input.CursorEnd()
		m.updateSuggestions(s)
		return nil
	case ClickOutside:
		return m.commitEdit(nil)
	case ClickHeader:
		return tea.Batch(m.commitEdit(nil), m.ClickHeader(c.Column, c.Modifier))
	}

	m.focused = true
	cell := CellID{Row: c.Row, Column: c.Column}
	if s := m.edit.session; s != nil && s.Cell == cell {
		return nil
	}
	col, ok := m.layout.Column(c.Column)
	if !ok {
		return nil
	}
	// Clicking a selected CheckBox or Choice cell steps its value.
	if behaviorFor(col.EditorKind).cycles && m.confirmed(cell) {
		return m.cycle(cell)
	}
	open := c.Double || col.PreferredEditorMode == 1
	return m.commitEdit(func(m *Model) tea.Cmd {
		if open {
			return m.beginEdit(cell, "")
		}
		return m.SelectCell(cell.Row, cell.Column)
	})
}
