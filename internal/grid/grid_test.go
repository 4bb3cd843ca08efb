package grid

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicobailon/remotegrid/internal/data"
	"github.com/nicobailon/remotegrid/internal/remote"
)

// drive runs cmd and everything it leads to, the way the bubbletea loop
// would, and returns the messages no grid consumed.
func drive(t *testing.T, cmd tea.Cmd, grids ...*Model) []tea.Msg {
	t.Helper()
	var out []tea.Msg
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 10000, "commands did not settle")
		current := queue[0]
		queue = queue[1:]
		if current == nil {
			continue
		}
		msg := current()
		switch m := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, []tea.Cmd(m)...)
			continue
		case StatusMsg, FocusMsg:
			out = append(out, msg)
			continue
		}
		for _, g := range grids {
			if next := g.Update(msg); next != nil {
				queue = append(queue, next)
			}
		}
	}
	return out
}

func statuses(msgs []tea.Msg) []StatusMsg {
	var out []StatusMsg
	for _, m := range msgs {
		if s, ok := m.(StatusMsg); ok {
			out = append(out, s)
		}
	}
	return out
}

func focusMsgs(msgs []tea.Msg) []FocusMsg {
	var out []FocusMsg
	for _, m := range msgs {
		if f, ok := m.(FocusMsg); ok {
			out = append(out, f)
		}
	}
	return out
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, g *Model, msg tea.KeyMsg) []tea.Msg {
	t.Helper()
	return drive(t, g.Update(msg), g)
}

func typeText(t *testing.T, g *Model, s string) {
	t.Helper()
	for _, r := range s {
		press(t, g, keyRunes(string(r)))
	}
}

// recordingSource remembers every fetch request.
type recordingSource struct {
	remote.Source
	fetches []remote.FetchRequest
}

func (r *recordingSource) Fetch(ctx context.Context, req remote.FetchRequest) (remote.FetchResponse, error) {
	r.fetches = append(r.fetches, req)
	return r.Source.Fetch(ctx, req)
}

type fixedNeighbors struct {
	before string
	after  string
}

func (n fixedNeighbors) Neighbor(_ string, dir Direction) (string, bool) {
	if dir == Backward {
		return n.before, n.before != ""
	}
	return n.after, n.after != ""
}

func newTestGrid(t *testing.T, src remote.Source, provider string, configure ...func(*Options)) *Model {
	t.Helper()
	opts := Options{ComponentID: "grid-1", DataProvider: provider, Source: src, PageSize: 40}
	for _, fn := range configure {
		fn(&opts)
	}
	g := New(opts)
	t.Cleanup(g.Close)
	g.Focus()
	drive(t, g.SetSize(200, 20), g)
	return g
}

func TestGridInitialFetch(t *testing.T) {
	src := &recordingSource{Source: remote.NewDemoSource(10)}
	g := newTestGrid(t, src, remote.DemoOrders)

	require.Len(t, src.fetches, 1)
	assert.True(t, src.fetches[0].IncludeMetaData)
	assert.Equal(t, 0, src.fetches[0].FromRow)

	snap := g.Store().Snapshot(remote.DemoOrders)
	assert.True(t, snap.AllFetched)
	assert.Equal(t, 10, snap.Known())
	assert.Equal(t, []string{"ID", "PRODUCT", "QUANTITY", "ORDERED", "STATUS", "PAID", "CUSTOMER_NAME", "CUSTOMER_ID", "PHOTO"}, g.Layout().Order())
	assert.Equal(t, "Keyboard", g.CellText(0, "PRODUCT"))
	assert.Equal(t, "[x]", g.CellText(0, "PAID"))
	assert.False(t, g.Busy())
}

func TestGridScrollFetchesOnceFromKnownCount(t *testing.T) {
	src := &recordingSource{Source: remote.NewDemoSource(500, remote.WithTotals())}
	g := newTestGrid(t, src, remote.DemoOrders)

	require.Len(t, src.fetches, 1)
	known := g.Store().Snapshot(remote.DemoOrders).Known()
	require.Less(t, known, 460)

	drive(t, g.ScrollTo(460), g)

	require.Len(t, src.fetches, 2)
	assert.Equal(t, known, src.fetches[1].FromRow)
	assert.Equal(t, 460, g.ScrollTop())

	w := g.Window()
	assert.Equal(t, 460, w.FirstRow)
	assert.GreaterOrEqual(t, w.LastRow(), g.ScrollTop()+g.VisibleRows()-1)
	assert.Less(t, w.LastRow(), w.Total)
	for i := w.FirstRow; i <= w.LastRow(); i++ {
		require.NotNil(t, w.Row(i), "row %d", i)
	}
}

func TestGridScrollClampsToTotal(t *testing.T) {
	g := newTestGrid(t, remote.NewDemoSource(30), remote.DemoOrders)
	drive(t, g.ScrollTo(1000), g)
	assert.Equal(t, 10, g.ScrollTop())
}

func TestGridsShareProviderRows(t *testing.T) {
	src := &recordingSource{Source: remote.NewDemoSource(10)}
	store := data.NewStore()
	a := newTestGrid(t, src, remote.DemoOrders, func(o *Options) { o.Store = store })
	b := newTestGrid(t, src, remote.DemoOrders, func(o *Options) {
		o.Store = store
		o.ComponentID = "grid-2"
	})

	assert.Len(t, src.fetches, 1, "second grid reuses the cached rows")
	assert.Equal(t, a.CellValue(3, "PRODUCT"), b.CellValue(3, "PRODUCT"))
	assert.Equal(t, a.Layout().Order(), b.Layout().Order())
}

func TestGridFetchFailureReportsStatus(t *testing.T) {
	src := remote.NewDemoSource(10)
	src.FailNext(remote.ActionFetch, context.DeadlineExceeded)
	g := New(Options{ComponentID: "grid-1", DataProvider: remote.DemoOrders, Source: src})
	t.Cleanup(g.Close)

	msgs := drive(t, g.SetSize(80, 10), g)
	st := statuses(msgs)
	require.Len(t, st, 1)
	assert.ErrorIs(t, st[0].Err, context.DeadlineExceeded)
	assert.False(t, g.Busy())

	drive(t, g.Reload(), g)
	assert.Equal(t, 10, g.Store().Snapshot(remote.DemoOrders).Known())
}

func TestGridIgnoresOtherGridsResponses(t *testing.T) {
	src := remote.NewDemoSource(5)
	g := newTestGrid(t, src, remote.DemoOrders)
	cmd := g.Update(sortedMsg{grid: "someone-else"})
	assert.Nil(t, cmd)
	assert.Empty(t, g.SortDefinition())
}

func TestColumnKeys(t *testing.T) {
	g := newTestGrid(t, remote.NewDemoSource(5), remote.DemoOrders)
	drive(t, g.SelectCell(0, "PRODUCT"), g)
	g.Window()

	press(t, g, tea.KeyMsg{Type: tea.KeyRight, Alt: true})
	assert.Equal(t, []string{"ID", "QUANTITY", "PRODUCT"}, g.Layout().Order()[:3])
	cur, _ := g.Current()
	assert.Equal(t, "PRODUCT", cur.Column, "the selection moves with its column")

	width := g.Layout().Width("PRODUCT")
	press(t, g, tea.KeyMsg{Type: tea.KeyCtrlRight})
	assert.Equal(t, width+1, g.Layout().Width("PRODUCT"))

	press(t, g, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s"), Alt: true})
	assert.Equal(t, data.Ascending, g.SortDefinition().Direction("PRODUCT"))
	assert.Nil(t, g.EditSession(), "alt+s is not typing")
}
