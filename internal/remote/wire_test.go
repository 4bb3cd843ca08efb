package remote

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicobailon/remotegrid/internal/data"
	gerr "github.com/nicobailon/remotegrid/internal/err"
	"github.com/nicobailon/remotegrid/internal/log"
)

func startServer(t *testing.T, src Source) *Client {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = NewServer(src, log.Discard()).Serve(ctx, listener)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return NewClient(listener.Addr().String(), log.Discard())
}

func TestWireFetchKeepsValueTypes(t *testing.T) {
	client := startServer(t, NewDemoSource(3, WithTotals()))

	resp, err := client.Fetch(context.Background(), FetchRequest{DataProvider: DemoOrders, RowCount: 10, IncludeMetaData: true})
	require.NoError(t, err)
	require.Len(t, resp.Records, 3)
	assert.True(t, resp.AllFetched)
	assert.Equal(t, 3, resp.TotalRows)

	first := resp.Records[0]
	assert.Equal(t, int64(1), first.Get("ID"))
	assert.Equal(t, "Keyboard", first.Get("PRODUCT"))
	ordered, ok := first.Get("ORDERED").(time.Time)
	require.True(t, ok, "ORDERED decoded as %T", first.Get("ORDERED"))
	assert.True(t, ordered.Equal(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))

	require.NotNil(t, resp.MetaData)
	status, ok := resp.MetaData.Column("STATUS")
	require.True(t, ok)
	assert.Equal(t, data.EditorChoice, status.EditorKind)
	assert.Len(t, status.Editor.AllowedValues, 3)
	link := resp.MetaData.Columns[6].Editor.Link
	require.NotNil(t, link)
	assert.Equal(t, DemoCustomers, link.DataProvider)
}

func TestWireSortRoundTrip(t *testing.T) {
	client := startServer(t, NewDemoSource(3))
	def := data.SortDefinition{{ColumnName: "PRODUCT", Direction: data.Descending}}

	resp, err := client.Sort(context.Background(), SortRequest{DataProvider: DemoOrders, SortDefinition: def})
	require.NoError(t, err)
	assert.True(t, def.Equal(resp.SortDefinition))
}

func TestWireTypedErrors(t *testing.T) {
	client := startServer(t, NewDemoSource(3))
	ctx := context.Background()

	_, err := client.SetValues(ctx, SetValuesRequest{
		DataProvider: DemoOrders,
		Filter:       idFilter(1),
		ColumnNames:  []string{"ID"},
		Values:       []any{int64(5)},
	})
	var ve *gerr.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Equal(t, "ID", ve.Column)

	_, err = client.SelectRow(ctx, SelectRowRequest{DataProvider: DemoOrders, Filter: idFilter(42)})
	var ce *gerr.ConsistencyError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, []string{"ID"}, ce.Columns)

	_, err = client.Fetch(ctx, FetchRequest{DataProvider: "missing"})
	assert.ErrorIs(t, err, gerr.ErrNotFound)
}

func TestWireDataProviders(t *testing.T) {
	client := startServer(t, NewDemoSource(1))
	names, err := client.DataProviders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{DemoCustomers, DemoOrders}, names)
}

func TestWireTransportError(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	client := NewClient(addr, slog.New(slog.DiscardHandler))
	_, err = client.Fetch(context.Background(), FetchRequest{DataProvider: DemoOrders})
	require.Error(t, err)
	assert.True(t, gerr.IsTransport(err))
}

func TestNewClientAddress(t *testing.T) {
	c := NewClient("unix:///tmp/grid.sock", log.Discard())
	assert.Equal(t, "unix", c.network)
	assert.Equal(t, "/tmp/grid.sock", c.address)

	c = NewClient("localhost:7070", log.Discard())
	assert.Equal(t, "tcp", c.network)
}
