package grid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicobailon/remotegrid/internal/data"
	gerr "github.com/nicobailon/remotegrid/internal/err"
	"github.com/nicobailon/remotegrid/internal/remote"
)

func TestSelectionQueueKeepsNewestTarget(t *testing.T) {
	src := remote.NewDemoSource(10)
	g := newTestGrid(t, src, remote.DemoOrders)

	first := g.SelectCell(1, "ID")
	second := g.SelectCell(2, "ID")
	third := g.SelectCell(3, "PRODUCT")

	cur, ok := g.Current()
	require.True(t, ok)
	assert.Equal(t, CellID{Row: 3, Column: "PRODUCT"}, cur, "navigation starts from the latest request")
	assert.Equal(t, data.Unselected, g.SelectionState())

	drive(t, first, g)
	drive(t, second, g)
	drive(t, third, g)

	assert.Equal(t, 2, src.Calls(remote.ActionSelectRow), "the middle request was replaced while queued")
	sel := g.Selection()
	assert.Equal(t, 3, sel.RowIndex)
	assert.Equal(t, "PRODUCT", sel.SelectedColumn)
	assert.Equal(t, data.CellSelected, g.SelectionState())
	assert.Equal(t, int64(4), sel.Data.Get("ID"))
}

func TestSelectingVanishedRowClearsSelection(t *testing.T) {
	src := remote.NewDemoSource(10)
	g := newTestGrid(t, src, remote.DemoOrders)
	drive(t, g.SelectCell(0, "ID"), g)

	_, err := src.DeleteRecord(context.Background(), remote.DeleteRecordRequest{
		DataProvider: remote.DemoOrders,
		Filter:       data.Filter{ColumnNames: []string{"ID"}, Values: []any{int64(3)}},
	})
	require.NoError(t, err)

	msgs := drive(t, g.SelectCell(2, "ID"), g)
	st := statuses(msgs)
	require.Len(t, st, 1)
	var ce *gerr.ConsistencyError
	assert.ErrorAs(t, st[0].Err, &ce)
	assert.Equal(t, data.Unselected, g.SelectionState())
	_, ok := g.Current()
	assert.False(t, ok)
}

func TestSelectBeyondKnownRowsDefersUntilFetched(t *testing.T) {
	src := remote.NewDemoSource(500, remote.WithTotals())
	g := newTestGrid(t, src, remote.DemoOrders)
	known := g.Store().Snapshot(remote.DemoOrders).Known()
	require.Less(t, known, 300)

	drive(t, g.SelectCell(300, "PRODUCT"), g)

	sel := g.Selection()
	assert.Equal(t, 300, sel.RowIndex)
	assert.Equal(t, int64(301), sel.Data.Get("ID"))
	assert.LessOrEqual(t, g.ScrollTop(), 300)
	assert.Greater(t, g.ScrollTop()+g.VisibleRows(), 300)
}

func TestSelectUnknownColumnFallsBackToFirst(t *testing.T) {
	g := newTestGrid(t, remote.NewDemoSource(3), remote.DemoOrders)
	drive(t, g.SelectCell(1, "NOPE"), g)
	assert.Equal(t, "ID", g.Selection().SelectedColumn)
}
