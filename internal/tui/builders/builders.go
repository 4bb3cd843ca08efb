package builders

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/list"

	"github.com/nicobailon/remotegrid/internal/recent"
)

type ItemKind int

const (
	KindTable ItemKind = iota
	KindRecent
	KindHeader
	KindSeparator
)

type ListItem struct {
	ItemTitle string
	ItemDesc  string
	Kind      ItemKind
	Table     string
	IsCurrent bool
}

func (i ListItem) Title() string       { return i.ItemTitle }
func (i ListItem) Description() string { return i.ItemDesc }
func (i ListItem) FilterValue() string { return i.ItemTitle }

// Selectable reports whether the item opens a table.
func (i ListItem) Selectable() bool {
	return i.Kind == KindTable || i.Kind == KindRecent
}

// BuildTableItems lists the recently opened tables of source first, then every
// table it has. Recent entries for tables that no longer exist are skipped.
func BuildTableItems(tables []string, recents []recent.Entry, source, current string) []list.Item {
	sorted := append([]string(nil), tables...)
	sort.Strings(sorted)
	exists := make(map[string]bool, len(sorted))
	for _, t := range sorted {
		exists[t] = true
	}

	items := []list.Item{}
	var recentItems []list.Item
	for _, r := range recents {
		if r.Source != source || !exists[r.Table] {
			continue
		}
		desc := "opened " + r.LastAccess.Format("Jan 2 15:04")
		if r.Rows > 0 {
			desc = fmt.Sprintf("%d rows, %s", r.Rows, desc)
		}
		recentItems = append(recentItems, ListItem{
			ItemTitle: r.Table,
			ItemDesc:  desc,
			Kind:      KindRecent,
			Table:     r.Table,
			IsCurrent: r.Table == current,
		})
	}
	if len(recentItems) > 0 {
		items = append(items, ListItem{ItemTitle: "RECENT", Kind: KindHeader})
		items = append(items, recentItems...)
		items = append(items, ListItem{Kind: KindSeparator})
	}

	if len(sorted) > 0 {
		items = append(items, ListItem{ItemTitle: "TABLES", Kind: KindHeader})
		for _, t := range sorted {
			items = append(items, ListItem{
				ItemTitle: t,
				Kind:      KindTable,
				Table:     t,
				IsCurrent: t == current,
			})
		}
	}
	return items
}

// FirstSelectable returns the index of the first item that opens a table,
// preferring the current one, or -1.
func FirstSelectable(items []list.Item) int {
	first := -1
	for i, it := range items {
		li, ok := it.(ListItem)
		if !ok || !li.Selectable() {
			continue
		}
		if li.IsCurrent {
			return i
		}
		if first < 0 {
			first = i
		}
	}
	return first
}
