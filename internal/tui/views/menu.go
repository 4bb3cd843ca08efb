package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/nicobailon/remotegrid/internal/tui/theme"
)

func RenderMenu(title string, m *list.Model) string {
	header := theme.TitleStyle.Render("▦ " + title)
	divider := theme.SeparatorStyle.Render("────────────────────────")
	return theme.ModalStyle.Render(header + "\n" + divider + "\n\n" + m.View())
}

func RenderTablePicker(m *list.Model) string {
	return RenderMenu("Open table", m)
}

// RenderSearch draws the search input that precedes the grid in focus order.
func RenderSearch(input string, focused bool) string {
	label := theme.DimStyle.Render("find ")
	if focused {
		label = theme.FocusedInputStyle.Render("find ")
	}
	return label + input
}

const buttonGap = " "

// RenderActionBar draws the buttons that follow the grid in focus order.
// The active button is only highlighted while the bar has focus.
func RenderActionBar(labels []string, active int, focused bool) string {
	parts := make([]string, 0, len(labels))
	for i, l := range labels {
		if focused && i == active {
			parts = append(parts, theme.ButtonActiveStyle.Render(l))
			continue
		}
		parts = append(parts, theme.ButtonStyle.Render(l))
	}
	return strings.Join(parts, buttonGap)
}

// ActionAt returns the button under x, or -1.
func ActionAt(labels []string, x int) int {
	pos := 0
	for i, l := range labels {
		w := lipgloss.Width(theme.ButtonStyle.Render(l))
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + len(buttonGap)
	}
	return -1
}
