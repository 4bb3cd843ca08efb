package recent

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestAddSaveLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(dir)
	require.NoError(t, err)
	s.now = clock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	s.Add("/data/shop.db", "orders", 500)
	s.Add("/data/shop.db", "customers", 25)
	s.Add("unix:/tmp/grid.sock", "orders", 0)
	s.Add("/data/shop.db", "orders", 0)
	require.NoError(t, s.Save())

	loaded, err := Load(dir)
	require.NoError(t, err)
	recent := loaded.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "shop.db:orders", recent[0].Name())
	assert.Equal(t, 500, recent[0].Rows, "a zero count keeps the last known one")
	assert.Equal(t, "orders", recent[1].Table)
	assert.Equal(t, "unix:/tmp/grid.sock", recent[1].Source)

	others := loaded.Others("/data/shop.db", 5)
	require.Len(t, others, 1)
	assert.Equal(t, "unix:/tmp/grid.sock", others[0].Source)
}

func TestRemove(t *testing.T) {
	s, err := Load(t.TempDir())
	require.NoError(t, err)
	s.Add("a.db", "t1", 1)
	s.Add("a.db", "t2", 1)
	s.Remove("a.db", "t1")
	require.Len(t, s.Entries, 1)
	assert.Equal(t, "t2", s.Entries[0].Table)
}

func TestPruneKeepsNewest(t *testing.T) {
	s, err := Load(t.TempDir())
	require.NoError(t, err)
	s.now = clock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	for i := 0; i < maxRecent*3+5; i++ {
		s.Add("a.db", string(rune('a'+i%26))+string(rune('a'+i/26)), 0)
	}
	assert.Len(t, s.Entries, maxRecent*3)
	assert.Equal(t, 3, len(s.Recent(3)))
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "recent.json"), []byte("{nope"), 0o644))
	s, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, s.Entries)
}
