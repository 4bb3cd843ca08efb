package grid

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nicobailon/remotegrid/internal/data"
	gerr "github.com/nicobailon/remotegrid/internal/err"
	"github.com/nicobailon/remotegrid/internal/log"
	"github.com/nicobailon/remotegrid/internal/remote"
)

// StatusMsg reports a non-fatal failure or notice from a grid.
type StatusMsg struct {
	Grid    string
	Err     error
	Message string
}

type fetchedMsg struct {
	grid     string
	provider string
	epoch    uint64
	req      remote.FetchRequest
	resp     remote.FetchResponse
	err      error
}

type selectedMsg struct {
	grid   string
	seq    uint64
	target CellID
	resp   remote.SelectionResponse
	err    error
}

type sortedMsg struct {
	grid string
	def  data.SortDefinition
	resp remote.SortResponse
	err  error
}

type insertedMsg struct {
	grid string
	resp remote.RecordResponse
	err  error
}

type deletedMsg struct {
	grid   string
	filter data.Filter
	resp   remote.DeleteResponse
	err    error
}

// contextFactory captures what commands need to build their request
// context, since commands run off the event loop.
func (m *Model) contextFactory() func() (context.Context, context.CancelFunc) {
	logger, timeout := m.logger, m.timeout
	return func() (context.Context, context.CancelFunc) {
		ctx := log.WithLogger(context.Background(), logger)
		if timeout > 0 {
			return context.WithTimeout(ctx, timeout)
		}
		return context.WithCancel(ctx)
	}
}

// transportError wraps failures that are not already typed.
func transportError(op, provider string, err error) error {
	var c *gerr.ConsistencyError
	if err == nil || gerr.IsTransport(err) || gerr.IsValidation(err) || errors.As(err, &c) {
		return err
	}
	return &gerr.TransportError{Op: op, DataProvider: provider, Err: err}
}

func (m *Model) status(err error) tea.Cmd {
	return func() tea.Msg {
		return StatusMsg{Grid: m.id, Err: err}
	}
}

func (m *Model) notice(message string) tea.Cmd {
	return func() tea.Msg {
		return StatusMsg{Grid: m.id, Message: message}
	}
}

func (m *Model) fetchCmd(req remote.FetchRequest, epoch uint64) tea.Cmd {
	m.busy++
	m.logger.Debug("fetch issued", "provider", req.DataProvider, "from", req.FromRow, "count", req.RowCount)
	src, id, newCtx := m.src, m.id, m.contextFactory()
	return func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()
		resp, err := src.Fetch(ctx, req)
		return fetchedMsg{grid: id, provider: req.DataProvider, epoch: epoch, req: req, resp: resp, err: err}
	}
}

// ensureRows requests more rows when the viewport nears the end of the known
// rows. At most one fetch per provider is in flight.
func (m *Model) ensureRows() tea.Cmd {
	return m.ensureRowsUpTo(m.scrollTop + m.VisibleRows() - 1)
}

func (m *Model) ensureRowsUpTo(last int) tea.Cmd {
	if m.src == nil {
		return nil
	}
	snap := m.snapshot()
	from, count, ok := m.window.NeedsFetch(last, snap)
	if !ok {
		return nil
	}
	if !m.store.BeginFetch(m.provider) {
		return nil
	}
	return m.fetchCmd(remote.FetchRequest{
		DataProvider:    m.provider,
		FromRow:         from,
		RowCount:        count,
		IncludeMetaData: !snap.HasMetaData,
	}, snap.Epoch)
}

// fetchAll loads every row of another provider, e.g. for a lookup editor.
func (m *Model) fetchAll(provider string) tea.Cmd {
	if m.src == nil || !m.store.BeginFetch(provider) {
		return nil
	}
	snap := m.store.Snapshot(provider)
	return m.fetchCmd(remote.FetchRequest{
		DataProvider:    provider,
		FromRow:         snap.Known(),
		RowCount:        -1,
		IncludeMetaData: !snap.HasMetaData,
	}, snap.Epoch)
}

func (m *Model) applyFetched(msg fetchedMsg) tea.Cmd {
	m.busy--
	m.store.EndFetch(msg.provider)
	if msg.err != nil {
		err := transportError("fetch", msg.provider, msg.err)
		m.logger.Warn("fetch failed", "provider", msg.provider, "error", err)
		if msg.provider != m.provider {
			m.edit.linkWait = nil
		}
		return m.status(err)
	}
	snap := m.store.Snapshot(msg.provider)
	if snap.Epoch != msg.epoch {
		m.logger.Debug("fetch discarded", "provider", msg.provider, "epoch", msg.epoch, "current", snap.Epoch)
		if msg.provider == m.provider {
			return m.ensureRows()
		}
		return nil
	}
	if msg.resp.MetaData != nil {
		m.store.ApplyMetaData(msg.provider, *msg.resp.MetaData)
	}
	if err := m.store.ApplyFetch(msg.provider, msg.resp.FromRow, msg.resp.Records, msg.resp.AllFetched, msg.resp.TotalRows); err != nil {
		m.logger.Warn("fetch not applied", "provider", msg.provider, "error", err)
		return m.status(err)
	}
	m.logger.Debug("fetch applied", "provider", msg.provider, "from", msg.resp.FromRow, "count", len(msg.resp.Records), "allFetched", msg.resp.AllFetched)

	if msg.provider != m.provider {
		return m.resumeLink(msg.provider)
	}
	var cmds []tea.Cmd
	if d := m.sel.deferred; d != nil {
		if _, ok := m.snapshot().Record(d.Row); ok {
			m.sel.deferred = nil
			cmds = append(cmds, m.SelectCell(d.Row, d.Column))
		}
	}
	cmds = append(cmds, m.ensureRows())
	return tea.Batch(cmds...)
}

// ClickHeader sorts by column; modifier adds it to the existing sort.
func (m *Model) ClickHeader(column string, modifier bool) tea.Cmd {
	c, ok := m.layout.Column(column)
	if !ok || !c.Sortable || m.src == nil {
		return nil
	}
	def := NextSort(m.sorter.base(m.snapshot().Sort), column, modifier)
	m.sorter.begin(def)
	m.busy++
	m.logger.Debug("sort issued", "sort", def)
	src, id, provider, newCtx := m.src, m.id, m.provider, m.contextFactory()
	return func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()
		resp, err := src.Sort(ctx, remote.SortRequest{DataProvider: provider, SortDefinition: def})
		return sortedMsg{grid: id, def: def, resp: resp, err: err}
	}
}

// SortPending reports whether a sort awaits confirmation.
func (m *Model) SortPending() bool {
	return m.sorter.inFlight
}

func (m *Model) applySorted(msg sortedMsg) tea.Cmd {
	m.busy--
	if !msg.def.Equal(m.sorter.pending) {
		// A newer click is in flight; its response decides.
		m.logger.Debug("sort response superseded", "sort", msg.def)
		return nil
	}
	m.sorter.done()
	if msg.err != nil {
		err := transportError("sort", m.provider, msg.err)
		m.logger.Warn("sort failed", "error", err)
		return m.status(err)
	}
	confirmed := m.snapshot().Selection
	m.store.ApplySort(m.provider, msg.resp.SortDefinition)
	m.window.Invalidate()
	m.scrollTop = 0
	cmds := []tea.Cmd{m.ensureRows()}
	// Row indexes changed; re-derive the selection from its keys.
	if confirmed.RowIndex >= 0 {
		cmds = append(cmds, m.reselect(confirmed))
	}
	return tea.Batch(cmds...)
}

// Reload discards the provider's rows and fetches them again.
func (m *Model) Reload() tea.Cmd {
	m.store.Reset(m.provider)
	m.window.Invalidate()
	m.scrollTop = 0
	cmds := []tea.Cmd{m.ensureRows()}
	if confirmed := m.snapshot().Selection; confirmed.RowIndex >= 0 {
		cmds = append(cmds, m.reselect(confirmed))
	}
	return tea.Batch(cmds...)
}

// InsertRecord asks the source for a new row and selects it.
func (m *Model) InsertRecord() tea.Cmd {
	meta := m.MetaData()
	if m.src == nil || meta.Readonly || !meta.InsertEnabled {
		return nil
	}
	cmd := m.commitEdit(nil)
	m.busy++
	src, id, provider, newCtx := m.src, m.id, m.provider, m.contextFactory()
	return tea.Batch(cmd, func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()
		resp, err := src.InsertRecord(ctx, remote.InsertRecordRequest{DataProvider: provider, ComponentID: id})
		return insertedMsg{grid: id, resp: resp, err: err}
	})
}

func (m *Model) applyInserted(msg insertedMsg) tea.Cmd {
	m.busy--
	if msg.err != nil {
		return m.status(transportError("insertRecord", m.provider, msg.err))
	}
	m.store.ApplyInsert(m.provider, msg.resp.RowIndex, msg.resp.Record)
	m.window.Invalidate()
	m.sel.hasTarget = false
	column, _ := m.current()
	col := column.Column
	if col == "" {
		if order := m.layout.Order(); len(order) > 0 {
			col = order[0]
		}
	}
	return m.SelectCell(msg.resp.RowIndex, col)
}

// DeleteRecord deletes the current row.
func (m *Model) DeleteRecord() tea.Cmd {
	meta := m.MetaData()
	cur, ok := m.current()
	if m.src == nil || !ok || meta.Readonly || !meta.DeleteEnabled {
		return nil
	}
	rec, ok := m.snapshot().Record(cur.Row)
	if !ok {
		return nil
	}
	m.edit.drop()
	filter := data.FilterFor(meta, rec)
	m.busy++
	src, id, provider, newCtx := m.src, m.id, m.provider, m.contextFactory()
	return func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()
		resp, err := src.DeleteRecord(ctx, remote.DeleteRecordRequest{DataProvider: provider, ComponentID: id, Filter: filter})
		return deletedMsg{grid: id, filter: filter, resp: resp, err: err}
	}
}

func (m *Model) applyDeleted(msg deletedMsg) tea.Cmd {
	m.busy--
	if msg.err != nil {
		return m.status(transportError("deleteRecord", m.provider, msg.err))
	}
	snap := m.snapshot()
	row := snap.IndexOf(msg.filter)
	if row < 0 {
		row = msg.resp.RowIndex
	}
	m.store.ApplyDelete(m.provider, row)
	m.window.Invalidate()

	cur, _ := m.current()
	total := m.snapshot().Total()
	m.sel.hasTarget = false
	if total == 0 {
		m.store.ApplySelection(m.provider, data.NoSelection())
		return nil
	}
	m.store.ApplySelection(m.provider, data.NoSelection())
	return tea.Batch(m.SelectCell(min(row, total-1), cur.Column), m.ensureRows())
}
