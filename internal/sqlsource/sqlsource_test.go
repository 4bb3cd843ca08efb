package sqlsource

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicobailon/remotegrid/internal/data"
	gerr "github.com/nicobailon/remotegrid/internal/err"
	"github.com/nicobailon/remotegrid/internal/log"
	"github.com/nicobailon/remotegrid/internal/remote"
)

func seeded(t *testing.T) *Source {
	t.Helper()
	ctx := context.Background()
	src, err := Open(ctx, filepath.Join(t.TempDir(), "grid.db"), log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	require.NoError(t, Seed(ctx, src, 50, 5))
	return src
}

func TestDataProviders(t *testing.T) {
	names, err := seeded(t).DataProviders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "orders"}, names)
}

func TestMetaDataFromSchema(t *testing.T) {
	resp, err := seeded(t).Fetch(context.Background(), remote.FetchRequest{DataProvider: "orders", RowCount: 1, IncludeMetaData: true})
	require.NoError(t, err)
	meta := resp.MetaData
	require.NotNil(t, meta)
	assert.Equal(t, []string{"ID"}, meta.PrimaryKeys)

	kinds := map[string]data.CellEditorKind{}
	for _, c := range meta.Columns {
		kinds[c.Name] = c.EditorKind
	}
	assert.Equal(t, map[string]data.CellEditorKind{
		"ID":          data.EditorNumber,
		"PRODUCT":     data.EditorText,
		"QUANTITY":    data.EditorNumber,
		"ORDERED":     data.EditorDate,
		"STATUS":      data.EditorText,
		"PAID":        data.EditorCheckBox,
		"CUSTOMER_ID": data.EditorLinked,
		"PHOTO":       data.EditorImage,
	}, kinds)

	id, _ := meta.Column("ID")
	assert.True(t, id.Readonly)
	cust, _ := meta.Column("CUSTOMER_ID")
	require.NotNil(t, cust.Editor.Link)
	assert.Equal(t, "customers", cust.Editor.Link.DataProvider)
	assert.Equal(t, []string{"ID"}, cust.Editor.Link.ReferencedColumns)
	assert.Equal(t, "NAME", cust.Editor.Link.DisplayColumn)
}

func TestFetchPagesAndTotals(t *testing.T) {
	src := seeded(t)
	ctx := context.Background()

	resp, err := src.Fetch(ctx, remote.FetchRequest{DataProvider: "orders", FromRow: 0, RowCount: 20})
	require.NoError(t, err)
	assert.Len(t, resp.Records, 20)
	assert.False(t, resp.AllFetched)
	assert.Equal(t, 50, resp.TotalRows)

	resp, err = src.Fetch(ctx, remote.FetchRequest{DataProvider: "orders", FromRow: 40, RowCount: 20})
	require.NoError(t, err)
	assert.Len(t, resp.Records, 10)
	assert.True(t, resp.AllFetched)
	assert.Equal(t, int64(41), resp.Records[0].Get("ID"))
}

func TestSortAndSelect(t *testing.T) {
	src := seeded(t)
	ctx := context.Background()

	_, err := src.Sort(ctx, remote.SortRequest{DataProvider: "orders", SortDefinition: data.SortDefinition{{ColumnName: "ID", Direction: data.Descending}}})
	require.NoError(t, err)

	resp, err := src.Fetch(ctx, remote.FetchRequest{DataProvider: "orders", RowCount: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(50), resp.Records[0].Get("ID"))

	sel, err := src.SelectRow(ctx, remote.SelectRowRequest{
		DataProvider:   "orders",
		Filter:         data.Filter{ColumnNames: []string{"ID"}, Values: []any{int64(48)}},
		SelectedColumn: "PRODUCT",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, sel.Selection.RowIndex)

	_, err = src.SelectRow(ctx, remote.SelectRowRequest{
		DataProvider: "orders",
		Filter:       data.Filter{ColumnNames: []string{"ID"}, Values: []any{int64(999)}},
	})
	var ce *gerr.ConsistencyError
	assert.ErrorAs(t, err, &ce)
}

func TestSetValues(t *testing.T) {
	src := seeded(t)
	ctx := context.Background()
	filter := data.Filter{ColumnNames: []string{"ID"}, Values: []any{int64(3)}}

	resp, err := src.SetValues(ctx, remote.SetValuesRequest{DataProvider: "orders", Filter: filter, ColumnNames: []string{"PRODUCT"}, Values: []any{"abc"}})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.RowIndex)
	assert.Equal(t, "abc", resp.Record.Get("PRODUCT"))

	_, err = src.SetValues(ctx, remote.SetValuesRequest{DataProvider: "orders", Filter: filter, ColumnNames: []string{"ID"}, Values: []any{int64(7)}})
	assert.True(t, gerr.IsValidation(err))
}

func TestInsertDelete(t *testing.T) {
	src := seeded(t)
	ctx := context.Background()

	ins, err := src.InsertRecord(ctx, remote.InsertRecordRequest{DataProvider: "customers"})
	require.NoError(t, err)
	assert.Equal(t, 5, ins.RowIndex)
	assert.Equal(t, int64(6), ins.Record.Get("ID"))

	del, err := src.DeleteRecord(ctx, remote.DeleteRecordRequest{
		DataProvider: "customers",
		Filter:       data.Filter{ColumnNames: []string{"ID"}, Values: []any{int64(6)}},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, del.RowIndex)
}
