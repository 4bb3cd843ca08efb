package grid

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicobailon/remotegrid/internal/remote"
)

func selectCalls(src *remote.MemorySource) int {
	return src.Calls(remote.ActionSelectRow) + src.Calls(remote.ActionSelectColumn)
}

func navGrid(t *testing.T, src *remote.MemorySource) *Model {
	t.Helper()
	return newTestGrid(t, src, remote.DemoOrders, func(o *Options) {
		o.Neighbors = fixedNeighbors{before: "filter", after: "actions"}
		o.EnterNavigation = NavigationRowAndFocus
		o.TabNavigation = NavigationCellAndRowAndFocus
	})
}

func TestParseNavigationMode(t *testing.T) {
	for _, mode := range []NavigationMode{NavigationNone, NavigationCellAndFocus, NavigationRowAndFocus, NavigationCellAndRowAndFocus} {
		got, err := ParseNavigationMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}
	_, err := ParseNavigationMode("sideways")
	assert.Error(t, err)
}

func TestBoundaryNavigationDelegatesFocus(t *testing.T) {
	tests := []struct {
		name  string
		start CellID
		key   tea.KeyMsg
		want  FocusMsg
	}{
		{
			name:  "tab past the last cell",
			start: CellID{Row: 2, Column: "PHOTO"},
			key:   tea.KeyMsg{Type: tea.KeyTab},
			want:  FocusMsg{From: "grid-1", To: "actions", Direction: Forward},
		},
		{
			name:  "shift+tab before the first cell",
			start: CellID{Row: 0, Column: "ID"},
			key:   tea.KeyMsg{Type: tea.KeyShiftTab},
			want:  FocusMsg{From: "grid-1", To: "filter", Direction: Backward},
		},
		{
			name:  "enter past the last row",
			start: CellID{Row: 2, Column: "PRODUCT"},
			key:   tea.KeyMsg{Type: tea.KeyEnter},
			want:  FocusMsg{From: "grid-1", To: "actions", Direction: Forward},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := remote.NewDemoSource(3)
			g := navGrid(t, src)
			drive(t, g.SelectCell(tt.start.Row, tt.start.Column), g)

			calls := selectCalls(src)
			before := g.Selection()

			msgs := press(t, g, tt.key)

			assert.Equal(t, []FocusMsg{tt.want}, focusMsgs(msgs))
			assert.Equal(t, calls, selectCalls(src), "no select request at the boundary")
			assert.Equal(t, before, g.Selection())
			assert.False(t, g.Focused())
		})
	}
}

func TestBoundaryWithoutNeighbourKeepsFocus(t *testing.T) {
	src := remote.NewDemoSource(3)
	g := newTestGrid(t, src, remote.DemoOrders, func(o *Options) {
		o.TabNavigation = NavigationCellAndFocus
	})
	drive(t, g.SelectCell(0, "PHOTO"), g)
	calls := selectCalls(src)

	msgs := press(t, g, tea.KeyMsg{Type: tea.KeyTab})
	assert.Empty(t, focusMsgs(msgs))
	assert.True(t, g.Focused())
	assert.Equal(t, calls, selectCalls(src))

	// Arrow keys never leave the grid.
	msgs = press(t, g, tea.KeyMsg{Type: tea.KeyRight})
	assert.Empty(t, focusMsgs(msgs))
	assert.Equal(t, calls, selectCalls(src))
}

func TestTabWrapsToNextRow(t *testing.T) {
	src := remote.NewDemoSource(3)
	g := navGrid(t, src)
	drive(t, g.SelectCell(0, "PHOTO"), g)

	press(t, g, tea.KeyMsg{Type: tea.KeyTab})
	cur, ok := g.Current()
	require.True(t, ok)
	assert.Equal(t, CellID{Row: 1, Column: "ID"}, cur)
	assert.Equal(t, 1, g.Selection().RowIndex)

	press(t, g, tea.KeyMsg{Type: tea.KeyShiftTab})
	cur, _ = g.Current()
	assert.Equal(t, CellID{Row: 0, Column: "PHOTO"}, cur)
}

func TestArrowsAndPages(t *testing.T) {
	src := remote.NewDemoSource(100)
	g := navGrid(t, src)

	press(t, g, tea.KeyMsg{Type: tea.KeyDown})
	cur, ok := g.Current()
	require.True(t, ok)
	assert.Equal(t, CellID{Row: 0, Column: "ID"}, cur, "the first move selects the first cell")

	press(t, g, tea.KeyMsg{Type: tea.KeyRight})
	press(t, g, tea.KeyMsg{Type: tea.KeyDown})
	cur, _ = g.Current()
	assert.Equal(t, CellID{Row: 1, Column: "PRODUCT"}, cur)
	assert.Equal(t, 1, src.Calls(remote.ActionSelectColumn), "same-row moves only change the column")

	press(t, g, tea.KeyMsg{Type: tea.KeyPgDown})
	cur, _ = g.Current()
	assert.Equal(t, 1+g.PageRows(), cur.Row)
	assert.Equal(t, 20, g.PageRows())

	press(t, g, tea.KeyMsg{Type: tea.KeyPgUp})
	press(t, g, tea.KeyMsg{Type: tea.KeyPgUp})
	cur, _ = g.Current()
	assert.Equal(t, 0, cur.Row)
	assert.Equal(t, 0, g.ScrollTop())
}

func TestUnfocusedGridIgnoresKeys(t *testing.T) {
	src := remote.NewDemoSource(3)
	g := navGrid(t, src)
	drive(t, g.Blur(), g)
	assert.Nil(t, g.Update(tea.KeyMsg{Type: tea.KeyDown}))
	assert.Zero(t, selectCalls(src))
}
