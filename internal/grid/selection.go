package grid

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nicobailon/remotegrid/internal/data"
	gerr "github.com/nicobailon/remotegrid/internal/err"
	"github.com/nicobailon/remotegrid/internal/remote"
)

// CellID addresses a cell by row position and column name.
type CellID struct {
	Row    int
	Column string
}

func (c CellID) String() string {
	return fmt.Sprintf("%d:%s", c.Row, c.Column)
}

type selectRequest struct {
	seq       uint64
	target    CellID
	rowChange bool
	filter    data.Filter
}

// selector serializes selection requests. One request is outstanding at a
// time; the newest request issued meanwhile waits in queued, replacing any
// older one. Navigation always starts from target, the latest request.
type selector struct {
	seq         uint64
	target      CellID
	hasTarget   bool
	outstanding *selectRequest
	queued      *selectRequest
	// deferred is a target whose row is not fetched yet.
	deferred *CellID
}

// idle reports whether no selection request is outstanding or queued.
func (s *selector) idle() bool {
	return s.outstanding == nil && s.queued == nil
}

// current is the cell navigation starts from: the latest requested target,
// else the confirmed selection.
func (m *Model) current() (CellID, bool) {
	if m.sel.hasTarget {
		return m.sel.target, true
	}
	sel := m.snapshot().Selection
	if sel.RowIndex < 0 {
		return CellID{Row: -1}, false
	}
	return CellID{Row: sel.RowIndex, Column: sel.SelectedColumn}, true
}

// Current is the selected cell as far as navigation is concerned.
func (m *Model) Current() (CellID, bool) {
	return m.current()
}

// Selection is the last selection confirmed by the source.
func (m *Model) Selection() data.Selection {
	return m.snapshot().Selection
}

// SelectionState of the confirmed selection.
func (m *Model) SelectionState() data.SelectionState {
	return m.Selection().State()
}

// confirmed reports whether cell is the confirmed selection and nothing newer
// is on its way.
func (m *Model) confirmed(cell CellID) bool {
	sel := m.snapshot().Selection
	return m.sel.idle() && sel.RowIndex == cell.Row && sel.SelectedColumn == cell.Column
}

// SelectCell requests the selection of a cell. A changed row is selected by
// its key values; a column change on the same row sends the lighter
// selectColumn request.
func (m *Model) SelectCell(row int, column string) tea.Cmd {
	snap := m.snapshot()
	total := snap.Total()
	if total == 0 {
		return nil
	}
	row = max(0, min(row, total-1))
	if _, ok := m.layout.Column(column); !ok {
		order := m.layout.Order()
		if len(order) == 0 {
			return nil
		}
		column = order[0]
	}
	target := CellID{Row: row, Column: column}
	cur, has := m.current()
	if has && cur == target {
		return nil
	}

	rec, ok := snap.Record(row)
	if !ok {
		m.sel.deferred = &target
		m.scrollIntoView(row)
		return m.ensureRowsUpTo(row)
	}
	m.sel.deferred = nil

	m.sel.seq++
	req := selectRequest{seq: m.sel.seq, target: target, rowChange: !has || cur.Row != row}
	if req.rowChange {
		req.filter = data.FilterFor(snap.MetaData, rec)
	}
	m.sel.target = target
	m.sel.hasTarget = true
	m.scrollIntoView(row)
	return tea.Batch(m.sendSelect(req), m.ensureRows())
}

// reselect re-derives a confirmed selection whose row index went stale.
func (m *Model) reselect(sel data.Selection) tea.Cmd {
	meta := m.MetaData()
	m.sel.seq++
	req := selectRequest{
		seq:       m.sel.seq,
		target:    CellID{Row: sel.RowIndex, Column: sel.SelectedColumn},
		rowChange: true,
		filter:    data.FilterFor(meta, sel.Data),
	}
	m.sel.target = req.target
	m.sel.hasTarget = true
	return m.sendSelect(req)
}

func (m *Model) sendSelect(req selectRequest) tea.Cmd {
	if m.src == nil {
		return nil
	}
	if m.sel.outstanding != nil {
		m.logger.Debug("select queued", "cell", req.target, "seq", req.seq)
		m.sel.queued = &req
		return nil
	}
	m.sel.outstanding = &req
	m.busy++
	m.logger.Debug("select issued", "cell", req.target, "seq", req.seq, "row", req.rowChange)
	src, id, provider, newCtx := m.src, m.id, m.provider, m.contextFactory()
	return func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()
		var resp remote.SelectionResponse
		var err error
		if req.rowChange {
			resp, err = src.SelectRow(ctx, remote.SelectRowRequest{
				DataProvider:   provider,
				ComponentID:    id,
				Filter:         req.filter,
				SelectedColumn: req.target.Column,
			})
		} else {
			resp, err = src.SelectColumn(ctx, remote.SelectColumnRequest{
				DataProvider:   provider,
				ComponentID:    id,
				SelectedColumn: req.target.Column,
			})
		}
		return selectedMsg{grid: id, seq: req.seq, target: req.target, resp: resp, err: err}
	}
}

func (m *Model) applySelected(msg selectedMsg) tea.Cmd {
	m.busy--
	if m.sel.outstanding == nil || m.sel.outstanding.seq != msg.seq {
		m.logger.Debug("select response discarded", "seq", msg.seq)
		return nil
	}
	m.sel.outstanding = nil

	var cmds []tea.Cmd
	if msg.err != nil {
		var ce *gerr.ConsistencyError
		if errors.As(msg.err, &ce) {
			m.logger.Info("selected row vanished", "cell", msg.target, "error", msg.err)
			m.store.ApplySelection(m.provider, data.NoSelection())
		} else {
			m.logger.Warn("select failed", "cell", msg.target, "error", msg.err)
		}
		cmds = append(cmds, m.status(transportError("select", m.provider, msg.err)))
		if m.sel.queued == nil {
			m.sel.hasTarget = false
			m.edit.dropPending()
		}
	} else {
		sel := m.consistent(msg.resp.Selection)
		m.store.ApplySelection(m.provider, sel)
		m.logger.Debug("select confirmed", "row", sel.RowIndex, "column", sel.SelectedColumn, "seq", msg.seq)
	}

	if q := m.sel.queued; q != nil {
		m.sel.queued = nil
		if q.rowChange && q.filter.Empty() {
			if rec, ok := m.snapshot().Record(q.target.Row); ok {
				q.filter = data.FilterFor(m.MetaData(), rec)
			}
		}
		cmds = append(cmds, m.sendSelect(*q))
		return tea.Batch(cmds...)
	}

	sel := m.snapshot().Selection
	if sel.RowIndex >= 0 {
		m.sel.target = CellID{Row: sel.RowIndex, Column: sel.SelectedColumn}
		m.sel.hasTarget = true
		m.scrollIntoView(sel.RowIndex)
	} else {
		m.sel.hasTarget = false
	}
	cmds = append(cmds, m.resumePending(), m.ensureRows())
	return tea.Batch(cmds...)
}

// consistent re-derives the row index of a confirmed selection from its key
// values when the known rows disagree with the source's index.
func (m *Model) consistent(sel data.Selection) data.Selection {
	if sel.RowIndex < 0 || len(sel.Data.Values) == 0 {
		return sel
	}
	snap := m.snapshot()
	filter := data.FilterFor(snap.MetaData, sel.Data)
	if rec, ok := snap.Record(sel.RowIndex); ok && filter.Matches(rec) {
		return sel
	}
	if idx := snap.IndexOf(filter); idx >= 0 {
		sel.RowIndex = idx
	}
	return sel
}
