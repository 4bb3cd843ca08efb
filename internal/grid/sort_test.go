package grid

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicobailon/remotegrid/internal/data"
	"github.com/nicobailon/remotegrid/internal/remote"
)

func TestNextSort(t *testing.T) {
	asc := func(c string) data.SortEntry { return data.SortEntry{ColumnName: c, Direction: data.Ascending} }
	desc := func(c string) data.SortEntry { return data.SortEntry{ColumnName: c, Direction: data.Descending} }

	tests := []struct {
		name     string
		current  data.SortDefinition
		column   string
		modifier bool
		want     data.SortDefinition
	}{
		{name: "none to ascending", column: "A", want: data.SortDefinition{asc("A")}},
		{name: "ascending to descending", current: data.SortDefinition{asc("A")}, column: "A", want: data.SortDefinition{desc("A")}},
		{name: "descending to none", current: data.SortDefinition{desc("A")}, column: "A", want: data.SortDefinition{}},
		{name: "plain click replaces", current: data.SortDefinition{asc("A"), desc("B")}, column: "C", want: data.SortDefinition{asc("C")}},
		{name: "plain click keeps own direction cycle", current: data.SortDefinition{asc("A"), desc("B")}, column: "B", want: data.SortDefinition{}},
		{name: "modifier appends", current: data.SortDefinition{asc("A")}, column: "B", modifier: true, want: data.SortDefinition{asc("A"), asc("B")}},
		{name: "modifier updates in place", current: data.SortDefinition{asc("A"), asc("B")}, column: "A", modifier: true, want: data.SortDefinition{desc("A"), asc("B")}},
		{name: "modifier removes", current: data.SortDefinition{desc("A"), asc("B")}, column: "A", modifier: true, want: data.SortDefinition{asc("B")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextSort(tt.current, tt.column, tt.modifier)
			if diff := cmp.Diff(tt.want, got, cmp.Comparer(func(a, b data.SortDefinition) bool { return a.Equal(b) })); diff != "" {
				t.Errorf("NextSort() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHeaderClicksCycleSort(t *testing.T) {
	src := remote.NewDemoSource(5)
	g := newTestGrid(t, src, remote.DemoOrders)

	cmd := g.ClickHeader("QUANTITY", false)
	require.NotNil(t, cmd)
	assert.True(t, g.SortPending())
	assert.Empty(t, g.SortDefinition(), "nothing changes before the source confirms")
	assert.Equal(t, int64(1), g.CellValue(0, "ID"))
	drive(t, cmd, g)

	assert.False(t, g.SortPending())
	assert.Equal(t, 1, g.Precedence("QUANTITY"))
	assert.Equal(t, data.Ascending, g.SortDefinition().Direction("QUANTITY"))

	drive(t, g.ClickHeader("QUANTITY", false), g)
	assert.Equal(t, data.Descending, g.SortDefinition().Direction("QUANTITY"))
	assert.Equal(t, int64(5), g.CellValue(0, "ID"), "rows are refetched in the confirmed order")

	drive(t, g.ClickHeader("QUANTITY", false), g)
	assert.Empty(t, g.SortDefinition())
	assert.Zero(t, g.Precedence("QUANTITY"))
	assert.Equal(t, int64(1), g.CellValue(0, "ID"))
	assert.Equal(t, 3, src.Calls(remote.ActionSort))
}

func TestModifierClickBuildsOnPendingSort(t *testing.T) {
	src := remote.NewDemoSource(5)
	g := newTestGrid(t, src, remote.DemoOrders)

	first := g.ClickHeader("STATUS", false)
	second := g.ClickHeader("QUANTITY", true)
	drive(t, first, g)
	assert.True(t, g.SortPending(), "the older response is superseded")
	drive(t, second, g)

	want := data.SortDefinition{
		{ColumnName: "STATUS", Direction: data.Ascending},
		{ColumnName: "QUANTITY", Direction: data.Ascending},
	}
	assert.True(t, want.Equal(g.SortDefinition()), "got %v", g.SortDefinition())
	assert.Equal(t, 2, g.Precedence("QUANTITY"))
}

func TestSortFailureDropsPending(t *testing.T) {
	src := remote.NewDemoSource(5)
	g := newTestGrid(t, src, remote.DemoOrders)
	src.FailNext(remote.ActionSort, errors.New("connection reset"))

	msgs := drive(t, g.ClickHeader("QUANTITY", false), g)
	require.Len(t, statuses(msgs), 1)
	assert.False(t, g.SortPending())
	assert.Empty(t, g.SortDefinition())

	drive(t, g.ClickHeader("QUANTITY", false), g)
	assert.Equal(t, data.Ascending, g.SortDefinition().Direction("QUANTITY"), "next click starts from the confirmed sort")
}

func TestUnsortableColumnIgnoresClicks(t *testing.T) {
	g := newTestGrid(t, remote.NewDemoSource(5), remote.DemoOrders)
	assert.Nil(t, g.ClickHeader("PHOTO", false))
}

func TestSortKeepsSelectedRow(t *testing.T) {
	src := remote.NewDemoSource(5)
	g := newTestGrid(t, src, remote.DemoOrders)
	drive(t, g.SelectCell(0, "QUANTITY"), g)
	require.Equal(t, int64(1), g.Selection().Data.Get("ID"))

	drive(t, g.ClickHeader("QUANTITY", false), g)
	drive(t, g.ClickHeader("QUANTITY", false), g)

	sel := g.Selection()
	assert.Equal(t, int64(1), sel.Data.Get("ID"))
	assert.Equal(t, 4, sel.RowIndex)
	assert.Equal(t, "QUANTITY", sel.SelectedColumn)
}
