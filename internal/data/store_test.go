package data

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func rows(ids ...int) []Record {
	out := make([]Record, len(ids))
	for i, id := range ids {
		out[i] = NewRecord(map[string]any{"ID": id, "NAME": string(rune('A' + id%26))})
	}
	return out
}

func TestStoreApplyFetchAppendsAndPublishes(t *testing.T) {
	s := NewStore()
	var events []Event
	unsubscribe := s.Subscribe("orders", TopicRowChanged, func(ev Event) {
		events = append(events, ev)
	})

	require.NoError(t, s.ApplyFetch("orders", 0, rows(0, 1, 2), false, 0))
	require.NoError(t, s.ApplyFetch("orders", 3, rows(3, 4), true, 0))

	snap := s.Snapshot("orders")
	require.Equal(t, 5, snap.Known())
	require.True(t, snap.AllFetched)
	require.Len(t, events, 2)
	require.Equal(t, 3, events[1].FromRow)

	unsubscribe()
	require.NoError(t, s.ApplyFetch("orders", 5, rows(5), true, 0))
	require.Len(t, events, 2)
}

func TestStoreApplyFetchRejectsGap(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.ApplyFetch("orders", 0, rows(0, 1), false, 0))
	require.Error(t, s.ApplyFetch("orders", 5, rows(5), false, 0))
	require.Equal(t, 2, s.Snapshot("orders").Known())
}

func TestStoreSnapshotsAreStable(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.ApplyFetch("orders", 0, rows(0, 1), false, 0))
	before := s.Snapshot("orders")

	require.NoError(t, s.ApplyRecord("orders", 1, NewRecord(map[string]any{"ID": 1, "NAME": "changed"})))

	require.Equal(t, "B", before.Records[1].Get("NAME"))
	require.Equal(t, "changed", s.Snapshot("orders").Records[1].Get("NAME"))
	require.Greater(t, s.Snapshot("orders").Generation, before.Generation)
}

func TestStoreEchoClearedByAuthoritativeUpdate(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.ApplyFetch("orders", 0, rows(0, 1), false, 0))

	s.Echo("orders", 0, "NAME", "echo")
	snap := s.Snapshot("orders")
	require.Equal(t, "echo", snap.Value(0, "NAME"))
	require.True(t, snap.Echoed(0, "NAME"))
	rec, ok := snap.Record(0)
	require.True(t, ok)
	require.Equal(t, "echo", rec.Get("NAME"))

	require.NoError(t, s.ApplyRecord("orders", 0, NewRecord(map[string]any{"ID": 0, "NAME": "server"})))
	require.Equal(t, "server", s.Snapshot("orders").Value(0, "NAME"))

	s.Echo("orders", 1, "NAME", "again")
	s.ClearEcho("orders", 1, "NAME")
	require.Equal(t, "B", s.Snapshot("orders").Value(1, "NAME"))
}

func TestStoreSortResetsRows(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.ApplyFetch("orders", 0, rows(0, 1), true, 0))
	epoch := s.Snapshot("orders").Epoch

	var topics []Topic
	s.Subscribe("", TopicSortChanged, func(ev Event) { topics = append(topics, ev.Topic) })
	s.Subscribe("orders", TopicRowChanged, func(ev Event) {
		require.True(t, ev.Reset)
		topics = append(topics, ev.Topic)
	})

	s.ApplySort("orders", SortDefinition{{ColumnName: "NAME", Direction: Descending}})

	snap := s.Snapshot("orders")
	require.Equal(t, 0, snap.Known())
	require.False(t, snap.AllFetched)
	require.Equal(t, epoch+1, snap.Epoch)
	require.Equal(t, 1, snap.Sort.Index("NAME"))
	require.Equal(t, []Topic{TopicSortChanged, TopicRowChanged}, topics)
}

func TestStoreInsertAndDelete(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.ApplyFetch("orders", 0, rows(0, 1, 2), true, 0))

	s.ApplyInsert("orders", 1, NewRecord(map[string]any{"ID": 9}))
	snap := s.Snapshot("orders")
	require.Equal(t, 4, snap.Known())
	require.Equal(t, 9, snap.Records[1].Get("ID"))

	s.ApplyDelete("orders", 0)
	snap = s.Snapshot("orders")
	require.Equal(t, 3, snap.Known())
	require.Equal(t, 9, snap.Records[0].Get("ID"))
}

func TestStoreFetchRegistry(t *testing.T) {
	s := NewStore()
	require.True(t, s.BeginFetch("orders"))
	require.False(t, s.BeginFetch("orders"))
	require.True(t, s.FetchInFlight("orders"))
	require.True(t, s.BeginFetch("customers"))
	s.EndFetch("orders")
	require.False(t, s.FetchInFlight("orders"))
	require.True(t, s.BeginFetch("orders"))
}

func TestSnapshotIndexOf(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.ApplyFetch("orders", 0, rows(0, 1, 2), true, 0))
	snap := s.Snapshot("orders")
	require.Equal(t, 2, snap.IndexOf(Filter{ColumnNames: []string{"ID"}, Values: []any{int64(2)}}))
	require.Equal(t, -1, snap.IndexOf(Filter{ColumnNames: []string{"ID"}, Values: []any{42}}))
}
