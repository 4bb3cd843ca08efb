package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/nicobailon/remotegrid/internal/grid"
	"github.com/nicobailon/remotegrid/internal/tui/theme"
)

func kvLine(key string, keyWidth int, value string) string {
	return theme.DimStyle.Render(runewidth.FillRight(key, keyWidth)) + " " + value
}

func renderCard(title string, content string, width int) string {
	cardWidth := width - 4
	if cardWidth < 20 {
		cardWidth = 20
	}

	titleBar := lipgloss.NewStyle().
		Foreground(theme.BaseBg).
		Background(theme.Accent).
		Bold(true).
		Width(cardWidth).
		Padding(0, 1).
		Render(title)

	cardBody := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Accent).
		BorderTop(false).
		Padding(0, 1).
		Width(cardWidth).
		Render(content)

	return titleBar + "\n" + cardBody
}

// RenderRecord shows every column of the selected row, one per line, in the
// grid's column order.
func RenderRecord(g *grid.Model, width int) string {
	cur, ok := g.Current()
	if !ok || cur.Row < 0 {
		return theme.DimStyle.Render("no row selected")
	}

	cols := g.Columns()
	keyWidth := 0
	for _, c := range cols {
		keyWidth = max(keyWidth, runewidth.StringWidth(c.Header))
	}
	valueWidth := max(10, width-keyWidth-9)

	lines := make([]string, 0, len(cols))
	for _, c := range cols {
		value := runewidth.Truncate(g.CellText(cur.Row, c.Name), valueWidth, "…")
		style := theme.TextStyle
		if c.Readonly {
			style = theme.SubTextStyle
		}
		if c.Name == cur.Column {
			style = theme.SelectedCellStyle
		}
		lines = append(lines, kvLine(c.Header, keyWidth, style.Render(value)))
	}

	title := fmt.Sprintf("%s %s #%d", theme.IconTable, g.DataProvider(), cur.Row+1)
	hint := theme.KeyStyle.Render("esc") + " " + theme.SubTextStyle.Render("close")
	return renderCard(title, strings.Join(lines, "\n"), width) + "\n\n" + hint
}
