package tui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nicobailon/remotegrid/internal/recent"
	"github.com/nicobailon/remotegrid/internal/remote"
)

type tablesLoadedMsg struct {
	tables []string
	err    error
}

type recentSavedMsg struct {
	err error
}

const catalogTimeout = 5 * time.Second

func loadTablesCmd(src remote.Source) tea.Cmd {
	cat, ok := src.(remote.Catalog)
	if !ok {
		return func() tea.Msg {
			return tablesLoadedMsg{}
		}
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), catalogTimeout)
		defer cancel()
		tables, err := cat.DataProviders(ctx)
		return tablesLoadedMsg{tables: tables, err: err}
	}
}

func copyCellCmd(write func(string) error, text string) tea.Cmd {
	if write == nil {
		write = clipboard.WriteAll
	}
	return func() tea.Msg {
		if err := write(text); err != nil {
			return ErrorMsg{Err: err, Context: "copy"}
		}
		return SuccessMsg{Message: "Copied " + text}
	}
}

func saveRecentCmd(store *recent.Store, source, table string, rows int) tea.Cmd {
	if store == nil || source == "" || table == "" {
		return nil
	}
	return func() tea.Msg {
		store.Add(source, table, rows)
		return recentSavedMsg{err: store.Save()}
	}
}
