package grid

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicobailon/remotegrid/internal/data"
)

func numberedSnapshot(t *testing.T, known int, allFetched bool, total int) data.Snapshot {
	t.Helper()
	store := data.NewStore()
	meta := data.MetaData{
		DataProvider: "p",
		PrimaryKeys:  []string{"ID"},
		Columns:      []data.ColumnMetaData{{Name: "ID", EditorKind: data.EditorNumber}},
	}
	store.ApplyMetaData("p", meta)
	recs := make([]data.Record, known)
	for i := range recs {
		recs[i] = data.NewRecord(map[string]any{"ID": int64(i)})
	}
	require.NoError(t, store.ApplyFetch("p", 0, recs, allFetched, total))
	return store.Snapshot("p")
}

func TestWindowBounds(t *testing.T) {
	snap := numberedSnapshot(t, 100, true, 0)
	tests := []struct {
		first, last int
		wantFirst   int
		wantSize    int
	}{
		{first: 0, last: 9, wantFirst: 0, wantSize: 40},
		{first: 30, last: 49, wantFirst: 30, wantSize: 40},
		{first: 90, last: 109, wantFirst: 90, wantSize: 10},
		{first: 99, last: 99, wantFirst: 99, wantSize: 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d-%d", tt.first, tt.last), func(t *testing.T) {
			w := NewWindowManager(40).Compute(tt.first, tt.last, snap)
			assert.Equal(t, tt.wantFirst, w.FirstRow)
			assert.Equal(t, tt.wantSize, w.Size)
			assert.LessOrEqual(t, w.FirstRow, tt.first)
			assert.GreaterOrEqual(t, w.LastRow(), min(tt.last, w.Total-1))
			assert.Less(t, w.LastRow(), w.Total)
			assert.Len(t, w.Slice, 100)
			for i := w.FirstRow; i <= w.LastRow(); i++ {
				require.NotNil(t, w.Row(i))
				assert.Equal(t, int64(i), w.Row(i).Get("ID"))
			}
		})
	}
}

func TestWindowUnfetchedRowsAreNil(t *testing.T) {
	snap := numberedSnapshot(t, 50, false, 200)
	w := NewWindowManager(40).Compute(30, 60, snap)
	assert.Equal(t, 200, w.Total)
	assert.NotNil(t, w.Row(49))
	assert.Nil(t, w.Row(50))
	assert.Nil(t, w.Row(500))
}

func TestWindowIdempotent(t *testing.T) {
	snap := numberedSnapshot(t, 100, true, 0)
	wm := NewWindowManager(40)

	a := wm.Compute(10, 29, snap)
	b := wm.Compute(10, 29, snap)
	require.NotEmpty(t, a.Slice)
	assert.Same(t, &a.Slice[0], &b.Slice[0], "same inputs must yield the same slice")
	assert.Equal(t, a.FirstRow, b.FirstRow)

	c := wm.Compute(11, 30, snap)
	assert.NotSame(t, &a.Slice[0], &c.Slice[0])

	wm.Invalidate()
	d := wm.Compute(11, 30, snap)
	assert.NotSame(t, &c.Slice[0], &d.Slice[0])
	assert.Equal(t, c.Row(20), d.Row(20))
}

func TestWindowNeedsFetch(t *testing.T) {
	wm := NewWindowManager(40)

	from, count, ok := wm.NeedsFetch(19, numberedSnapshot(t, 0, false, 0))
	require.True(t, ok)
	assert.Equal(t, 0, from)
	assert.Equal(t, 99, count)

	_, _, ok = wm.NeedsFetch(19, numberedSnapshot(t, 99, false, 0))
	assert.False(t, ok)

	from, count, ok = wm.NeedsFetch(479, numberedSnapshot(t, 99, false, 500))
	require.True(t, ok)
	assert.Equal(t, 99, from)
	assert.Equal(t, 460, count)

	_, _, ok = wm.NeedsFetch(479, numberedSnapshot(t, 10, true, 0))
	assert.False(t, ok, "nothing left to fetch")
}
