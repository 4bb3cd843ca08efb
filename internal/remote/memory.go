package remote

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nicobailon/remotegrid/internal/data"
	gerr "github.com/nicobailon/remotegrid/internal/err"
)

type memTable struct {
	meta      data.MetaData
	base      []data.Record
	order     []int
	sort      data.SortDefinition
	selection data.Selection
}

func (t *memTable) rebuild() {
	t.order = make([]int, len(t.base))
	for i := range t.base {
		t.order[i] = i
	}
	if len(t.sort) == 0 {
		return
	}
	sort.SliceStable(t.order, func(i, j int) bool {
		a, b := t.base[t.order[i]], t.base[t.order[j]]
		for _, e := range t.sort {
			c := data.CompareValues(a.Get(e.ColumnName), b.Get(e.ColumnName))
			if c == 0 {
				continue
			}
			if e.Direction == data.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func (t *memTable) at(i int) data.Record {
	return t.base[t.order[i]]
}

func (t *memTable) find(f data.Filter) int {
	for i := range t.order {
		if f.Matches(t.at(i)) {
			return i
		}
	}
	return -1
}

// MemorySource keeps providers in memory. It backs tests and the --demo mode.
type MemorySource struct {
	mu           sync.Mutex
	tables       map[string]*memTable
	reportTotals bool
	failures     map[string]error
	calls        map[string]int
}

type MemoryOption func(*MemorySource)

// WithTotals makes fetch responses carry the total row count.
func WithTotals() MemoryOption {
	return func(m *MemorySource) { m.reportTotals = true }
}

func NewMemorySource(opts ...MemoryOption) *MemorySource {
	m := &MemorySource{
		tables:   make(map[string]*memTable),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// AddTable registers a provider with its rows in natural order.
func (m *MemorySource) AddTable(meta data.MetaData, records []data.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &memTable{meta: meta, base: append([]data.Record(nil), records...), selection: data.NoSelection()}
	t.rebuild()
	m.tables[meta.DataProvider] = t
}

// FailNext makes the next call of op ("fetch", "selectRow", ...) return err.
func (m *MemorySource) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

// Calls returns how often op was invoked.
func (m *MemorySource) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// begin records the call and returns the table. Callers hold m.mu.
func (m *MemorySource) begin(ctx context.Context, op, provider string) (*memTable, error) {
	m.calls[op]++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.failures[op]; ok {
		delete(m.failures, op)
		return nil, err
	}
	t, ok := m.tables[provider]
	if !ok {
		return nil, fmt.Errorf("data provider %s: %w", provider, gerr.ErrNotFound)
	}
	return t, nil
}

func (m *MemorySource) DataProviders(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.tables))
	for n := range m.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemorySource) Fetch(ctx context.Context, req FetchRequest) (FetchResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.begin(ctx, "fetch", req.DataProvider)
	if err != nil {
		return FetchResponse{}, err
	}
	from := max(req.FromRow, 0)
	from = min(from, len(t.order))
	to := len(t.order)
	if req.RowCount >= 0 && from+req.RowCount < to {
		to = from + req.RowCount
	}
	out := make([]data.Record, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, t.at(i))
	}
	resp := FetchResponse{
		DataProvider: req.DataProvider,
		FromRow:      from,
		Records:      out,
		AllFetched:   to >= len(t.order),
	}
	if m.reportTotals {
		resp.TotalRows = len(t.order)
	}
	if req.IncludeMetaData {
		meta := t.meta
		resp.MetaData = &meta
	}
	return resp, nil
}

func (m *MemorySource) SelectRow(ctx context.Context, req SelectRowRequest) (SelectionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.begin(ctx, "selectRow", req.DataProvider)
	if err != nil {
		return SelectionResponse{}, err
	}
	idx := t.find(req.Filter)
	if idx < 0 {
		t.selection = data.NoSelection()
		return SelectionResponse{DataProvider: req.DataProvider, Selection: t.selection},
			&gerr.ConsistencyError{DataProvider: req.DataProvider, Columns: req.Filter.ColumnNames, Values: req.Filter.Values}
	}
	t.selection = data.Selection{RowIndex: idx, Data: t.at(idx), SelectedColumn: req.SelectedColumn}
	return SelectionResponse{DataProvider: req.DataProvider, Selection: t.selection}, nil
}

func (m *MemorySource) SelectColumn(ctx context.Context, req SelectColumnRequest) (SelectionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.begin(ctx, "selectColumn", req.DataProvider)
	if err != nil {
		return SelectionResponse{}, err
	}
	if _, ok := t.meta.Column(req.SelectedColumn); !ok {
		return SelectionResponse{}, fmt.Errorf("column %s: %w", req.SelectedColumn, gerr.ErrNotFound)
	}
	t.selection.SelectedColumn = req.SelectedColumn
	return SelectionResponse{DataProvider: req.DataProvider, Selection: t.selection}, nil
}

func (m *MemorySource) Sort(ctx context.Context, req SortRequest) (SortResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.begin(ctx, "sort", req.DataProvider)
	if err != nil {
		return SortResponse{}, err
	}
	if err := req.SortDefinition.Validate(); err != nil {
		return SortResponse{}, err
	}
	for _, e := range req.SortDefinition {
		if _, ok := t.meta.Column(e.ColumnName); !ok {
			return SortResponse{}, fmt.Errorf("sort column %s: %w", e.ColumnName, gerr.ErrNotFound)
		}
	}
	t.sort = req.SortDefinition.Clone()
	t.rebuild()
	if t.selection.RowIndex >= 0 {
		t.selection.RowIndex = t.find(data.FilterFor(t.meta, t.selection.Data))
	}
	return SortResponse{DataProvider: req.DataProvider, SortDefinition: t.sort.Clone()}, nil
}

func (m *MemorySource) SetValues(ctx context.Context, req SetValuesRequest) (SetValuesResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.begin(ctx, "setValues", req.DataProvider)
	if err != nil {
		return SetValuesResponse{}, err
	}
	idx := t.find(req.Filter)
	if idx < 0 {
		return SetValuesResponse{}, &gerr.ConsistencyError{DataProvider: req.DataProvider, Columns: req.Filter.ColumnNames, Values: req.Filter.Values}
	}
	if len(req.ColumnNames) != len(req.Values) {
		return SetValuesResponse{}, fmt.Errorf("%d columns but %d values", len(req.ColumnNames), len(req.Values))
	}
	rec := t.at(idx)
	linked := linkedColumns(t.meta, req.ColumnNames)
	for i, name := range req.ColumnNames {
		col, ok := t.meta.Column(name)
		if !ok {
			return SetValuesResponse{}, fmt.Errorf("column %s: %w", name, gerr.ErrNotFound)
		}
		if t.meta.Readonly || (col.Readonly && !linked[name]) {
			return SetValuesResponse{}, &gerr.ValidationError{Column: name, Reason: gerr.ErrReadonly.Error()}
		}
		if req.Values[i] == nil && !col.Nullable {
			return SetValuesResponse{}, &gerr.ValidationError{Column: name, Reason: "value required"}
		}
		rec = rec.With(name, req.Values[i])
	}
	t.base[t.order[idx]] = rec
	if t.selection.RowIndex == idx {
		t.selection.Data = rec
	}
	return SetValuesResponse{DataProvider: req.DataProvider, RowIndex: idx, Record: rec}, nil
}

// linkedColumns are the columns a lookup among names writes together with its
// display column. They may be read-only for direct editing.
func linkedColumns(meta data.MetaData, names []string) map[string]bool {
	out := make(map[string]bool)
	for _, name := range names {
		c, ok := meta.Column(name)
		if !ok || c.EditorKind != data.EditorLinked || c.Editor.Link == nil {
			continue
		}
		for _, n := range c.Editor.Link.ColumnNames {
			out[n] = true
		}
	}
	return out
}

func (m *MemorySource) InsertRecord(ctx context.Context, req InsertRecordRequest) (RecordResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.begin(ctx, "insertRecord", req.DataProvider)
	if err != nil {
		return RecordResponse{}, err
	}
	if t.meta.Readonly || !t.meta.InsertEnabled {
		return RecordResponse{}, fmt.Errorf("insert into %s: %w", req.DataProvider, gerr.ErrReadonly)
	}
	values := make(map[string]any, len(t.meta.Columns))
	for _, c := range t.meta.Columns {
		values[c.Name] = nil
	}
	for _, k := range t.meta.KeyColumns() {
		if c, ok := t.meta.Column(k); ok && c.EditorKind == data.EditorNumber {
			values[k] = t.nextKey(k)
		}
	}
	rec := data.NewRecord(values)
	t.base = append(t.base, rec)
	t.order = append(t.order, len(t.base)-1)
	idx := len(t.order) - 1
	t.selection = data.Selection{RowIndex: idx, Data: rec, SelectedColumn: t.selection.SelectedColumn}
	return RecordResponse{DataProvider: req.DataProvider, RowIndex: idx, Record: rec}, nil
}

func (t *memTable) nextKey(column string) int64 {
	var next int64 = 1
	for _, r := range t.base {
		v := r.Get(column)
		if v == nil {
			continue
		}
		if n, ok := v.(int64); ok && n >= next {
			next = n + 1
		} else if n, ok := v.(int); ok && int64(n) >= next {
			next = int64(n) + 1
		}
	}
	return next
}

func (m *MemorySource) DeleteRecord(ctx context.Context, req DeleteRecordRequest) (DeleteResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.begin(ctx, "deleteRecord", req.DataProvider)
	if err != nil {
		return DeleteResponse{}, err
	}
	if t.meta.Readonly || !t.meta.DeleteEnabled {
		return DeleteResponse{}, fmt.Errorf("delete from %s: %w", req.DataProvider, gerr.ErrReadonly)
	}
	idx := t.find(req.Filter)
	if idx < 0 {
		return DeleteResponse{}, &gerr.ConsistencyError{DataProvider: req.DataProvider, Columns: req.Filter.ColumnNames, Values: req.Filter.Values}
	}
	baseIdx := t.order[idx]
	t.base = append(t.base[:baseIdx:baseIdx], t.base[baseIdx+1:]...)
	t.rebuild()
	if t.selection.RowIndex == idx {
		t.selection = data.NoSelection()
	} else if t.selection.RowIndex > idx {
		t.selection.RowIndex--
	}
	return DeleteResponse{DataProvider: req.DataProvider, RowIndex: idx}, nil
}
