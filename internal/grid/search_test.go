package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicobailon/remotegrid/internal/remote"
)

func TestFindWalksForwardAndWraps(t *testing.T) {
	g := newTestGrid(t, remote.NewDemoSource(12), remote.DemoOrders)

	cell, ok := g.Find("webcam", CellID{Row: -1})
	require.True(t, ok)
	assert.Equal(t, CellID{Row: 5, Column: "PRODUCT"}, cell)

	cell, ok = g.Find("WEBCAM", cell)
	require.True(t, ok)
	assert.Equal(t, CellID{Row: 11, Column: "PRODUCT"}, cell)

	cell, ok = g.Find("webcam", cell)
	require.True(t, ok)
	assert.Equal(t, CellID{Row: 5, Column: "PRODUCT"}, cell)
}

func TestFindWithoutMatch(t *testing.T) {
	g := newTestGrid(t, remote.NewDemoSource(12), remote.DemoOrders)

	_, ok := g.Find("tablet", CellID{Row: -1})
	assert.False(t, ok)
	_, ok = g.Find("  ", CellID{Row: -1})
	assert.False(t, ok)
}
