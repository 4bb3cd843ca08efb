package grid

import (
	"fmt"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nicobailon/remotegrid/internal/data"
	"github.com/nicobailon/remotegrid/internal/remote"
)

type EditState int

const (
	EditIdle EditState = iota
	// EditPending waits for the source to confirm the edited cell's selection.
	EditPending
	EditEditing
	EditCommitting
	EditCancelled
)

func (s EditState) String() string {
	switch s {
	case EditPending:
		return "pending"
	case EditEditing:
		return "editing"
	case EditCommitting:
		return "committing"
	case EditCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

const maxSuggestions = 8

// EditSession is the open in-place editor. There is at most one per grid.
type EditSession struct {
	Cell         CellID
	Kind         data.CellEditorKind
	Column       data.ColumnMetaData
	PriorValue   any
	PendingValue any

	filter   data.Filter
	input    textinput.Model
	pending  bool
	buffered string
	// then is a commit requested while pending, run once the editor opens.
	then        func(*Model) tea.Cmd
	suggestions []string
}

// View renders the input.
func (s *EditSession) View() string {
	return s.input.View()
}

// Text is the current input.
func (s *EditSession) Text() string {
	if s.pending {
		return s.buffered
	}
	return s.input.Value()
}

// Suggestions are the lookup candidates shown under a Linked editor.
func (s *EditSession) Suggestions() []string {
	return s.suggestions
}

type linkWait struct {
	session *EditSession
	text    string
	then    func(*Model) tea.Cmd
}

type editController struct {
	session *EditSession
	// display holds committed values of textual editors until the source
	// confirms them, so the grid shows what was typed.
	display    map[CellID]any
	committing int
	linkWait   *linkWait
	last       EditState
}

func newEditController() editController {
	return editController{display: make(map[CellID]any)}
}

func (e *editController) clearDisplay() {
	clear(e.display)
}

// drop tears the session down without committing.
func (e *editController) drop() {
	if e.session != nil {
		e.session.input.Blur()
	}
	e.session = nil
}

func (e *editController) dropPending() {
	if e.session != nil && e.session.pending {
		e.session = nil
	}
}

// EditState reports the edit lifecycle state.
func (m *Model) EditState() EditState {
	if s := m.edit.session; s != nil {
		if s.pending {
			return EditPending
		}
		return EditEditing
	}
	if m.edit.committing > 0 || m.edit.linkWait != nil {
		return EditCommitting
	}
	return m.edit.last
}

// EditSession is the open editor, nil when none is open.
func (m *Model) EditSession() *EditSession {
	return m.edit.session
}

// editable reports whether cell may enter editing: read-only columns,
// read-only providers and deleted rows never do.
func (m *Model) editable(cell CellID) (data.ColumnMetaData, data.Record, bool) {
	snap := m.snapshot()
	col, ok := m.layout.Column(cell.Column)
	if !ok || snap.MetaData.Readonly || col.Readonly {
		return col, data.Record{}, false
	}
	rec, ok := snap.Record(cell.Row)
	if !ok || rec.Deleted() {
		return col, data.Record{}, false
	}
	return col, rec, true
}

// BeginEdit opens the editor on the current cell, seeded with initial.
func (m *Model) BeginEdit(initial string) tea.Cmd {
	cur, ok := m.current()
	if !ok {
		return nil
	}
	return m.beginEdit(cur, initial)
}

func (m *Model) beginEdit(cell CellID, initial string) tea.Cmd {
	col, rec, ok := m.editable(cell)
	if !ok {
		return nil
	}
	b := behaviorFor(col.EditorKind)
	if b.cycles {
		if initial != "" && initial != " " {
			return nil
		}
		return tea.Batch(m.SelectCell(cell.Row, cell.Column), m.cycle(cell))
	}
	if s := m.edit.session; s != nil && s.Cell == cell {
		if s.pending {
			s.buffered += initial
		}
		return nil
	}

	closing := m.commitEdit(nil)
	input := textinput.New()
	input.Prompt = ""
	input.Cursor.SetMode(cursor.CursorStatic)
	s := &EditSession{
		Cell:       cell,
		Kind:       col.EditorKind,
		Column:     col,
		PriorValue: m.CellValue(cell.Row, cell.Column),
		filter:     data.FilterFor(m.MetaData(), rec),
		input:      input,
	}
	s.PendingValue = s.PriorValue
	m.edit.session = s
	m.edit.last = EditIdle

	if m.confirmed(cell) {
		return tea.Batch(closing, m.openSession(s, initial))
	}
	s.pending = true
	s.buffered = initial
	m.logger.Debug("edit pending", "cell", cell)
	return tea.Batch(closing, m.SelectCell(cell.Row, cell.Column))
}

// openSession moves a session to Editing. Typed text replaces the value.
func (m *Model) openSession(s *EditSession, typed string) tea.Cmd {
	s.pending = false
	if typed != "" {
		s.input.SetValue(typed)
	} else {
		s.input.SetValue(m.format.EditText(s.Column, s.PriorValue))
	}
	s.input.CursorEnd()
	m.updateSuggestions(s)
	m.logger.Debug("edit opened", "cell", s.Cell, "kind", s.Kind)
	cmds := []tea.Cmd{s.input.Focus()}
	if link := s.Column.Editor.Link; s.Kind == data.EditorLinked && link != nil {
		if !m.store.Snapshot(link.DataProvider).AllFetched {
			cmds = append(cmds, m.fetchAll(link.DataProvider))
		}
	}
	return tea.Batch(cmds...)
}

// resumePending opens a pending session once its cell is confirmed, or drops
// it when the selection went elsewhere.
func (m *Model) resumePending() tea.Cmd {
	s := m.edit.session
	if s == nil || !s.pending {
		return nil
	}
	if !m.confirmed(s.Cell) {
		m.logger.Debug("pending edit dropped", "cell", s.Cell)
		m.edit.session = nil
		return nil
	}
	_, rec, ok := m.editable(s.Cell)
	if !ok {
		m.edit.session = nil
		return nil
	}
	s.PriorValue = m.CellValue(s.Cell.Row, s.Cell.Column)
	s.PendingValue = s.PriorValue
	s.filter = data.FilterFor(m.MetaData(), rec)
	opening := m.openSession(s, s.buffered)
	if then := s.then; then != nil {
		s.then = nil
		return tea.Batch(opening, m.commitEdit(then))
	}
	return opening
}

func (m *Model) updateSuggestions(s *EditSession) {
	link := s.Column.Editor.Link
	if s.Kind != data.EditorLinked || link == nil {
		return
	}
	s.suggestions = suggestions(link, m.store.Snapshot(link.DataProvider), s.input.Value(), maxSuggestions)
}

// CancelEdit closes the editor without writing; the cell shows its prior
// value again.
func (m *Model) CancelEdit() {
	if s := m.edit.session; s != nil {
		m.logger.Debug("edit cancelled", "cell", s.Cell)
		s.input.Blur()
		m.edit.session = nil
		m.edit.last = EditCancelled
	}
}

// commitEdit closes the editor, writing its value when it changed, and runs
// then once the write has been applied.
func (m *Model) commitEdit(then func(*Model) tea.Cmd) tea.Cmd {
	s := m.edit.session
	if s == nil {
		return run(m, then)
	}
	m.edit.session = nil
	m.edit.last = EditIdle
	s.input.Blur()
	if s.pending {
		m.logger.Debug("pending edit dropped", "cell", s.Cell)
		return run(m, then)
	}
	return m.finishCommit(s, s.input.Value(), then, true)
}

// CommitEdit closes the editor as a blur would.
func (m *Model) CommitEdit() tea.Cmd {
	return m.commitEdit(nil)
}

func run(m *Model, then func(*Model) tea.Cmd) tea.Cmd {
	if then == nil {
		return nil
	}
	return then(m)
}

func (m *Model) finishCommit(s *EditSession, text string, then func(*Model) tea.Cmd, mayFetch bool) tea.Cmd {
	var columns []string
	var values []any

	if s.Kind == data.EditorLinked {
		link := s.Column.Editor.Link
		switch {
		case link == nil:
			return run(m, then)
		case text == "" && s.Column.Nullable:
			columns = append([]string(nil), link.ColumnNames...)
			values = make([]any, len(columns))
		default:
			ref := m.store.Snapshot(link.DataProvider)
			cols, vals, n := linkMatch(link, ref, text)
			if n != 1 && !ref.AllFetched && mayFetch {
				m.edit.linkWait = &linkWait{session: s, text: text, then: then}
				return m.fetchAll(link.DataProvider)
			}
			if n != 1 {
				m.logger.Debug("lookup reverted", "cell", s.Cell, "input", text, "matches", n)
				return tea.Batch(m.notice(fmt.Sprintf("%q matches %d rows of %s", text, n, link.DataProvider)), run(m, then))
			}
			columns, values = cols, vals
		}
	} else {
		v, err := behaviorFor(s.Kind).parse(m.format, s.Column, text)
		if err != nil {
			m.logger.Debug("edit reverted", "cell", s.Cell, "error", err)
			return tea.Batch(m.status(err), run(m, then))
		}
		columns, values = []string{s.Cell.Column}, []any{v}
	}

	previous := make([]any, len(columns))
	changed := false
	for i, c := range columns {
		previous[i] = m.CellValue(s.Cell.Row, c)
		if !data.ValuesEqual(previous[i], values[i]) {
			changed = true
		}
	}
	if !changed {
		return run(m, then)
	}
	s.PendingValue = values[0]
	return m.write(s.Cell, s.filter, columns, values, previous, behaviorFor(s.Kind).optimistic, then)
}

// resumeLink finishes a lookup commit that waited for its referenced rows.
func (m *Model) resumeLink(provider string) tea.Cmd {
	w := m.edit.linkWait
	if w == nil || w.session.Column.Editor.Link == nil || w.session.Column.Editor.Link.DataProvider != provider {
		if s := m.edit.session; s != nil {
			m.updateSuggestions(s)
		}
		return nil
	}
	m.edit.linkWait = nil
	return m.finishCommit(w.session, w.text, w.then, false)
}

// cycle steps a CheckBox or Choice cell to its next value.
func (m *Model) cycle(cell CellID) tea.Cmd {
	col, rec, ok := m.editable(cell)
	if !ok {
		return nil
	}
	b := behaviorFor(col.EditorKind)
	if !b.cycles {
		return nil
	}
	closing := m.commitEdit(nil)
	prior := m.CellValue(cell.Row, cell.Column)
	next := b.next(col, prior)
	filter := data.FilterFor(m.MetaData(), rec)
	return tea.Batch(closing, m.write(cell, filter, []string{cell.Column}, []any{next}, []any{prior}, true, nil))
}

type committedMsg struct {
	grid       string
	cell       CellID
	filter     data.Filter
	columns    []string
	values     []any
	optimistic bool
	resp       remote.SetValuesResponse
	err        error
	then       func(*Model) tea.Cmd
}

// write echoes the new values and sends them. Optimistic kinds echo into the
// shared store, the rest into this grid's display overlay.
func (m *Model) write(cell CellID, filter data.Filter, columns []string, values, previous []any, optimistic bool, then func(*Model) tea.Cmd) tea.Cmd {
	if m.src == nil {
		return nil
	}
	for i, c := range columns {
		if optimistic {
			m.store.Echo(m.provider, cell.Row, c, values[i])
		} else {
			m.edit.display[CellID{Row: cell.Row, Column: c}] = values[i]
		}
	}
	m.edit.committing++
	m.busy++
	m.logger.Debug("setValues issued", "cell", cell, "columns", columns)

	req := remote.SetValuesRequest{
		DataProvider:   m.provider,
		ComponentID:    m.id,
		Filter:         filter,
		ColumnNames:    columns,
		Values:         values,
		PreviousValues: previous,
	}
	src, id, newCtx := m.src, m.id, m.contextFactory()
	return func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()
		resp, err := src.SetValues(ctx, req)
		return committedMsg{
			grid: id, cell: cell, filter: filter, columns: columns, values: values,
			optimistic: optimistic, resp: resp, err: err, then: then,
		}
	}
}

func (m *Model) applyCommitted(msg committedMsg) tea.Cmd {
	m.busy--
	m.edit.committing--
	settle := func() {
		for i, c := range msg.columns {
			id := CellID{Row: msg.cell.Row, Column: c}
			if msg.optimistic {
				m.store.ClearEcho(m.provider, msg.cell.Row, c)
			} else if v, ok := m.edit.display[id]; ok && data.ValuesEqual(v, msg.values[i]) {
				delete(m.edit.display, id)
			}
		}
	}
	if msg.err != nil {
		settle()
		err := transportError("setValues", m.provider, msg.err)
		m.logger.Warn("setValues failed", "cell", msg.cell, "error", err)
		return m.status(err)
	}

	snap := m.snapshot()
	row := msg.resp.RowIndex
	if rec, ok := snap.Record(row); !ok || !msg.filter.Matches(rec) {
		row = snap.IndexOf(msg.filter)
	}
	if row >= 0 {
		if err := m.store.ApplyRecord(m.provider, row, msg.resp.Record); err != nil {
			m.logger.Warn("setValues not applied", "row", row, "error", err)
		}
	}
	settle()
	m.logger.Debug("setValues confirmed", "cell", msg.cell, "row", row)
	return run(m, msg.then)
}
