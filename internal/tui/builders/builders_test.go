package builders

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/stretchr/testify/require"

	"github.com/nicobailon/remotegrid/internal/recent"
)

func titles(items []list.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.(ListItem).ItemTitle)
	}
	return out
}

func TestBuildTableItems(t *testing.T) {
	at := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	recents := []recent.Entry{
		{Source: "/tmp/shop.db", Table: "orders", Rows: 120, LastAccess: at},
		{Source: "/tmp/other.db", Table: "orders", LastAccess: at},
		{Source: "/tmp/shop.db", Table: "dropped", LastAccess: at},
	}

	items := BuildTableItems([]string{"orders", "customers"}, recents, "/tmp/shop.db", "orders")

	require.Equal(t, []string{"RECENT", "orders", "", "TABLES", "customers", "orders"}, titles(items))
	require.Equal(t, "120 rows, opened Mar 4 09:30", items[1].(ListItem).ItemDesc)
	require.True(t, items[5].(ListItem).IsCurrent)
	require.Equal(t, 1, FirstSelectable(items))
}

func TestBuildTableItemsWithoutRecents(t *testing.T) {
	items := BuildTableItems([]string{"b", "a"}, nil, "addr", "")

	require.Equal(t, []string{"TABLES", "a", "b"}, titles(items))
	require.Equal(t, 1, FirstSelectable(items))
	require.Equal(t, -1, FirstSelectable(BuildTableItems(nil, nil, "addr", "")))
}
