package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/nicobailon/remotegrid/internal/grid"
	"github.com/nicobailon/remotegrid/internal/tui/theme"
)

func renderHelp(gridKeys grid.KeyMap, appKeys appKeyMap) string {
	helpLine := func(b key.Binding) string {
		k := lipgloss.NewStyle().
			Foreground(theme.BaseBg).
			Background(theme.Teal).
			Bold(true).
			Padding(0, 1).
			Width(10).
			Render(b.Help().Key)
		d := lipgloss.NewStyle().Foreground(theme.TextColor).Render("  " + b.Help().Desc)
		return k + d
	}

	sectionHeader := func(title string) string {
		return lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true).
			MarginTop(1).
			Render(" " + title + " ")
	}

	section := func(title string, bindings ...key.Binding) []string {
		lines := []string{sectionHeader(title)}
		for _, b := range bindings {
			lines = append(lines, helpLine(b))
		}
		return lines
	}

	lines := []string{theme.GridLogo + theme.DimStyle.Render(" help")}
	lines = append(lines, section("Navigation",
		gridKeys.Up, gridKeys.Down, gridKeys.Left, gridKeys.Right,
		gridKeys.PageUp, gridKeys.PageDown,
		gridKeys.Enter, gridKeys.ShiftEnter, gridKeys.Tab, gridKeys.ShiftTab)...)
	lines = append(lines, section("Editing",
		gridKeys.Edit, gridKeys.Toggle, gridKeys.Cancel,
		gridKeys.Insert, gridKeys.Delete)...)
	lines = append(lines, section("Columns",
		gridKeys.Sort, gridKeys.AddSort,
		gridKeys.MoveLeft, gridKeys.MoveRight, gridKeys.Narrow, gridKeys.Widen, gridKeys.Reload)...)
	lines = append(lines, section("Other", appKeys.bindings()...)...)
	lines = append(lines, "", theme.DimStyle.Render("Typing on a cell starts editing it. Click a header to sort; ctrl+click adds to the sort."))
	return theme.ModalStyle.Render(strings.Join(lines, "\n"))
}

// renderShortHelp is the footer line shown when no toast is up.
func renderShortHelp(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, theme.KeyStyle.Render(b.Help().Key)+theme.DimStyle.Render(" "+b.Help().Desc))
	}
	return strings.Join(parts, "  ")
}
