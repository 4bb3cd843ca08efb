package views

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/nicobailon/remotegrid/internal/data"
	"github.com/nicobailon/remotegrid/internal/grid"
	"github.com/nicobailon/remotegrid/internal/tui/theme"
)

// SepWidth is the width of the rule between two columns.
const SepWidth = 1

const columnSep = "│"

func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

func sortBadge(c grid.ColumnView) string {
	if c.Precedence == 0 {
		return ""
	}
	icon := theme.IconAscending
	if c.Direction == data.Descending {
		icon = theme.IconDesc
	}
	return icon + strconv.Itoa(c.Precedence)
}

func renderHeader(cols []grid.ColumnView) string {
	sep := theme.SeparatorStyle.Render(columnSep)
	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		badge := sortBadge(c)
		label := fit(c.Header, c.Width-runewidth.StringWidth(badge))
		style := theme.HeaderStyle
		if c.Readonly {
			style = theme.ReadonlyHeaderStyle
		}
		cell := style.Render(label)
		if badge != "" {
			cell += theme.SortBadgeStyle.Render(badge)
		}
		parts = append(parts, cell)
	}
	return strings.Join(parts, sep)
}

type rowContext struct {
	g       *grid.Model
	snap    data.Snapshot
	cols    []grid.ColumnView
	cur     grid.CellID
	hasCur  bool
	session *grid.EditSession
}

func (rc rowContext) cell(row int, rec *data.Record, c grid.ColumnView) string {
	if rec == nil {
		return theme.LoadingStyle.Render(fit(theme.IconLoading, c.Width))
	}
	if s := rc.session; s != nil && s.Cell.Row == row && s.Cell.Column == c.Name {
		return theme.EditingCellStyle.Render(fit(s.View(), c.Width))
	}
	text := fit(rc.g.CellText(row, c.Name), c.Width)
	switch {
	case rec.Deleted():
		return theme.DeletedRowStyle.Render(text)
	case rc.hasCur && rc.cur.Row == row && rc.cur.Column == c.Name:
		return theme.SelectedCellStyle.Render(text)
	case rc.snap.Echoed(row, c.Name):
		return theme.EchoedCellStyle.Render(text)
	case rc.hasCur && rc.cur.Row == row:
		return theme.CurrentRowStyle.Render(text)
	}
	return theme.CellStyle.Render(text)
}

func (rc rowContext) render(row int, rec *data.Record) string {
	sep := theme.SeparatorStyle.Render(columnSep)
	parts := make([]string, 0, len(rc.cols))
	for _, c := range rc.cols {
		parts = append(parts, rc.cell(row, rec, c))
	}
	return strings.Join(parts, sep)
}

// RenderTable draws the header and the visible rows of g, clipped to width.
// Suggestions of an open lookup editor are drawn over the last body lines.
func RenderTable(g *grid.Model, width int) string {
	win := g.Window()
	cols := g.Columns()
	cur, hasCur := g.Current()
	rc := rowContext{
		g:       g,
		snap:    g.Store().Snapshot(g.DataProvider()),
		cols:    cols,
		cur:     cur,
		hasCur:  hasCur,
		session: g.EditSession(),
	}

	lines := make([]string, 0, g.VisibleRows()+1)
	lines = append(lines, renderHeader(cols))
	for i := 0; i < g.VisibleRows(); i++ {
		row := g.ScrollTop() + i
		if row >= win.Total {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, rc.render(row, win.Row(row)))
	}

	if top, items := overlay(g); len(items) > 0 {
		indent := strings.Repeat(" ", columnOffset(g, rc.session.Cell.Column))
		w := 0
		for _, s := range items {
			w = max(w, runewidth.StringWidth(s))
		}
		current := rc.session.Text()
		for i, s := range items {
			style := theme.SuggestionStyle
			if s == current {
				style = theme.SuggestionSelectedStyle
			}
			lines[top+i] = indent + style.Render(fit(s, w))
		}
	}

	clip := lipgloss.NewStyle().MaxWidth(width)
	for i, l := range lines {
		lines[i] = clip.Render(l)
	}
	return strings.Join(lines, "\n")
}

// overlay returns the table line the suggestion list starts on and its items.
func overlay(g *grid.Model) (int, []string) {
	s := g.EditSession()
	if s == nil {
		return 0, nil
	}
	items := s.Suggestions()
	if n := g.VisibleRows(); len(items) > n {
		items = items[:n]
	}
	return g.VisibleRows() + 1 - len(items), items
}

func columnOffset(g *grid.Model, column string) int {
	x := 0
	for _, name := range g.Layout().Order() {
		if name == column {
			return x
		}
		x += g.Layout().Width(name) + SepWidth
	}
	return 0
}

// HitTest maps a position relative to the table's top-left corner, header
// line included, to a grid click.
func HitTest(g *grid.Model, x, y int) grid.Click {
	outside := grid.Click{Kind: grid.ClickOutside}
	if x < 0 || y < 0 || y > g.VisibleRows() {
		return outside
	}
	if top, items := overlay(g); len(items) > 0 && y >= top {
		return grid.Click{Kind: grid.ClickOverlay, Item: y - top}
	}
	column, ok := g.Layout().ColumnAt(x, SepWidth)
	if !ok {
		return outside
	}
	if y == 0 {
		return grid.Click{Kind: grid.ClickHeader, Column: column}
	}
	row := g.ScrollTop() + y - 1
	if row >= g.Window().Total {
		return outside
	}
	return grid.Click{Kind: grid.ClickCell, Row: row, Column: column}
}
