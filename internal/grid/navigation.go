package grid

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// NavigationMode is how Enter and Tab move the selection. Every mode other
// than NavigationNone hands focus to the neighbouring component at the
// grid's edge.
type NavigationMode int

const (
	NavigationNone NavigationMode = iota
	NavigationCellAndFocus
	NavigationRowAndFocus
	NavigationCellAndRowAndFocus
)

func (n NavigationMode) String() string {
	switch n {
	case NavigationCellAndFocus:
		return "cell"
	case NavigationRowAndFocus:
		return "row"
	case NavigationCellAndRowAndFocus:
		return "cell-and-row"
	default:
		return "none"
	}
}

// ParseNavigationMode accepts the names printed by String.
func ParseNavigationMode(s string) (NavigationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return NavigationNone, nil
	case "cell":
		return NavigationCellAndFocus, nil
	case "row":
		return NavigationRowAndFocus, nil
	case "cell-and-row", "cellandrow":
		return NavigationCellAndRowAndFocus, nil
	}
	return NavigationNone, fmt.Errorf("unknown navigation mode %q", s)
}

// delegates reports whether the mode hands focus outward at the edge.
func (n NavigationMode) delegates() bool {
	return n != NavigationNone
}

type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Neighbors resolves the component before or after a grid in tab order.
type Neighbors interface {
	Neighbor(id string, dir Direction) (string, bool)
}

// FocusMsg asks the host to focus To. The grid has already blurred itself.
type FocusMsg struct {
	From      string
	To        string
	Direction Direction
}

// delegate hands focus to the neighbour in dir. Without one the navigation
// is a no-op and the grid keeps focus.
func (m *Model) delegate(mode NavigationMode, dir Direction) tea.Cmd {
	if !mode.delegates() || m.neighbors == nil {
		return nil
	}
	to, ok := m.neighbors.Neighbor(m.id, dir)
	if !ok {
		return nil
	}
	m.focused = false
	from := m.id
	m.logger.Debug("focus delegated", "to", to, "direction", dir)
	return func() tea.Msg {
		return FocusMsg{From: from, To: to, Direction: dir}
	}
}

// start is the cell navigation begins from; with no selection it is the
// first cell.
func (m *Model) start() (CellID, []string, bool) {
	order := m.layout.Order()
	if len(order) == 0 || m.snapshot().Total() == 0 {
		return CellID{}, order, false
	}
	cur, ok := m.current()
	if !ok {
		return CellID{Row: -1}, order, true
	}
	return cur, order, true
}

func columnIndex(order []string, column string) int {
	for i, c := range order {
		if c == column {
			return i
		}
	}
	return -1
}

func (m *Model) SelectNextCell(mode NavigationMode) tea.Cmd {
	cur, order, ok := m.start()
	if !ok {
		return nil
	}
	if cur.Row < 0 {
		return m.SelectCell(0, order[0])
	}
	i := columnIndex(order, cur.Column)
	if i+1 >= len(order) {
		return m.delegate(mode, Forward)
	}
	return m.SelectCell(cur.Row, order[i+1])
}

func (m *Model) SelectPreviousCell(mode NavigationMode) tea.Cmd {
	cur, order, ok := m.start()
	if !ok {
		return nil
	}
	if cur.Row < 0 {
		return m.SelectCell(0, order[0])
	}
	i := columnIndex(order, cur.Column)
	if i <= 0 {
		return m.delegate(mode, Backward)
	}
	return m.SelectCell(cur.Row, order[i-1])
}

func (m *Model) SelectNextRow(mode NavigationMode) tea.Cmd {
	cur, order, ok := m.start()
	if !ok {
		return nil
	}
	if cur.Row < 0 {
		return m.SelectCell(0, order[0])
	}
	if cur.Row+1 >= m.snapshot().Total() {
		return m.delegate(mode, Forward)
	}
	return m.SelectCell(cur.Row+1, cur.Column)
}

func (m *Model) SelectPreviousRow(mode NavigationMode) tea.Cmd {
	cur, order, ok := m.start()
	if !ok {
		return nil
	}
	if cur.Row < 0 {
		return m.SelectCell(0, order[0])
	}
	if cur.Row == 0 {
		return m.delegate(mode, Backward)
	}
	return m.SelectCell(cur.Row-1, cur.Column)
}

// SelectNextCellAndRow moves right, wrapping to the first column of the next
// row. Focus leaves only from the last cell of the last row.
func (m *Model) SelectNextCellAndRow(mode NavigationMode) tea.Cmd {
	cur, order, ok := m.start()
	if !ok {
		return nil
	}
	if cur.Row < 0 {
		return m.SelectCell(0, order[0])
	}
	i := columnIndex(order, cur.Column)
	if i+1 < len(order) {
		return m.SelectCell(cur.Row, order[i+1])
	}
	if cur.Row+1 >= m.snapshot().Total() {
		return m.delegate(mode, Forward)
	}
	return m.SelectCell(cur.Row+1, order[0])
}

func (m *Model) SelectPreviousCellAndRow(mode NavigationMode) tea.Cmd {
	cur, order, ok := m.start()
	if !ok {
		return nil
	}
	if cur.Row < 0 {
		return m.SelectCell(0, order[0])
	}
	i := columnIndex(order, cur.Column)
	if i > 0 {
		return m.SelectCell(cur.Row, order[i-1])
	}
	if cur.Row == 0 {
		return m.delegate(mode, Backward)
	}
	return m.SelectCell(cur.Row-1, order[len(order)-1])
}

// PageRows is the number of rows a page key jumps: floor(height / rowHeight).
func (m *Model) PageRows() int {
	return m.VisibleRows()
}

func (m *Model) PageDown() tea.Cmd {
	return m.page(m.PageRows())
}

func (m *Model) PageUp() tea.Cmd {
	return m.page(-m.PageRows())
}

func (m *Model) page(delta int) tea.Cmd {
	cur, order, ok := m.start()
	if !ok {
		return nil
	}
	if cur.Row < 0 {
		return m.SelectCell(0, order[0])
	}
	total := m.snapshot().Total()
	row := max(0, min(cur.Row+delta, total-1))
	return m.SelectCell(row, cur.Column)
}

// Navigate applies mode in dir, as Enter and Tab do.
func (m *Model) Navigate(mode NavigationMode, dir Direction) tea.Cmd {
	switch mode {
	case NavigationCellAndFocus:
		if dir == Backward {
			return m.SelectPreviousCell(mode)
		}
		return m.SelectNextCell(mode)
	case NavigationRowAndFocus:
		if dir == Backward {
			return m.SelectPreviousRow(mode)
		}
		return m.SelectNextRow(mode)
	case NavigationCellAndRowAndFocus:
		if dir == Backward {
			return m.SelectPreviousCellAndRow(mode)
		}
		return m.SelectNextCellAndRow(mode)
	}
	return nil
}
