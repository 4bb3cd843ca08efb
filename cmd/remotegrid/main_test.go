package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicobailon/remotegrid/internal/config"
	"github.com/nicobailon/remotegrid/internal/log"
	"github.com/nicobailon/remotegrid/internal/remote"
	"github.com/nicobailon/remotegrid/internal/sqlsource"
)

func TestOpenSourceNeedsOne(t *testing.T) {
	_, _, _, err := openSource(context.Background(), config.Default(), false, log.Discard())
	require.Error(t, err)
}

func TestOpenSourceDemo(t *testing.T) {
	src, name, closer, err := openSource(context.Background(), config.Default(), true, log.Discard())
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, "demo", name)

	tables, err := src.(remote.Catalog).DataProviders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{remote.DemoCustomers, remote.DemoOrders}, tables)
}

func TestOpenSourcePrefersAddr(t *testing.T) {
	cfg := config.Default()
	cfg.Addr = "unix:/tmp/grid.sock"
	cfg.DBPath = "ignored.db"
	src, name, _, err := openSource(context.Background(), cfg, false, log.Discard())
	require.NoError(t, err)
	assert.Equal(t, cfg.Addr, name)
	assert.IsType(t, &remote.Client{}, src)
}

func TestOpenSourceDatabase(t *testing.T) {
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "grid.db")
	src, name, closer, err := openSource(context.Background(), cfg, false, log.Discard())
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, cfg.DBPath, name)

	db := src.(*sqlsource.Source)
	require.NoError(t, sqlsource.Seed(context.Background(), db, 5, 2))
	tables, err := db.DataProviders(context.Background())
	require.NoError(t, err)
	assert.Contains(t, tables, "orders")
}
