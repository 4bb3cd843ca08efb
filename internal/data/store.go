package data

import (
	"fmt"
	"sort"
	"sync"

	gerr "github.com/nicobailon/remotegrid/internal/err"
)

type Topic int

const (
	TopicRowChanged Topic = iota
	TopicMetaDataChanged
	TopicSortChanged
	TopicSelectionChanged
)

func (t Topic) String() string {
	switch t {
	case TopicRowChanged:
		return "rowChanged"
	case TopicMetaDataChanged:
		return "metaDataChanged"
	case TopicSortChanged:
		return "sortChanged"
	case TopicSelectionChanged:
		return "selectionChanged"
	}
	return fmt.Sprintf("Topic(%d)", int(t))
}

// Event is delivered to subscribers after a mutation has been committed.
type Event struct {
	Topic        Topic
	DataProvider string
	// FromRow is the first row touched by a row change, -1 when unknown.
	FromRow int
	// Reset is set when the row sequence was discarded or restructured.
	Reset bool
}

type cellKey struct {
	row    int
	column string
}

type providerEntry struct {
	name        string
	meta        MetaData
	hasMeta     bool
	records     []Record
	allFetched  bool
	totalRows   int
	selection   Selection
	sort        SortDefinition
	epoch       uint64
	generation  uint64
	echoes      map[cellKey]any
	fetchActive bool
}

// Snapshot is a point-in-time view of one provider. Records is shared with the
// store and must be treated as read-only.
type Snapshot struct {
	DataProvider string
	MetaData     MetaData
	HasMetaData  bool
	Records      []Record
	AllFetched   bool
	TotalRows    int
	Selection    Selection
	Sort         SortDefinition
	// Epoch changes whenever the row sequence is discarded or restructured.
	Epoch uint64
	// Generation changes on every mutation of this provider.
	Generation uint64
	echoes     map[cellKey]any
}

// Known is the number of fetched rows.
func (s Snapshot) Known() int {
	return len(s.Records)
}

// Total is the number of rows the grid should make room for.
func (s Snapshot) Total() int {
	if s.TotalRows > len(s.Records) {
		return s.TotalRows
	}
	return len(s.Records)
}

// Record returns row i with optimistic echoes applied.
func (s Snapshot) Record(i int) (Record, bool) {
	if i < 0 || i >= len(s.Records) {
		return Record{}, false
	}
	r := s.Records[i]
	for k, v := range s.echoes {
		if k.row == i {
			r = r.With(k.column, v)
		}
	}
	return r, true
}

// Value returns a single cell with optimistic echoes applied.
func (s Snapshot) Value(row int, column string) any {
	if v, ok := s.echoes[cellKey{row: row, column: column}]; ok {
		return v
	}
	if row < 0 || row >= len(s.Records) {
		return nil
	}
	return s.Records[row].Get(column)
}

// Echoed reports whether the cell currently shows an unconfirmed value.
func (s Snapshot) Echoed(row int, column string) bool {
	_, ok := s.echoes[cellKey{row: row, column: column}]
	return ok
}

// IndexOf returns the first known row matching f, or -1.
func (s Snapshot) IndexOf(f Filter) int {
	for i, r := range s.Records {
		if f.Matches(r) {
			return i
		}
	}
	return -1
}

type subKey struct {
	provider string
	topic    Topic
}

// Store is the shared row cache. Responses from the remote source are the
// only writers; every consumer reads snapshots and reacts to notifications.
type Store struct {
	mu        sync.RWMutex
	providers map[string]*providerEntry
	subs      map[subKey]map[int]func(Event)
	nextSub   int
}

func NewStore() *Store {
	return &Store{
		providers: make(map[string]*providerEntry),
		subs:      make(map[subKey]map[int]func(Event)),
	}
}

// Subscribe registers fn for topic on provider. An empty provider subscribes
// to every provider. The returned func removes the subscription.
func (s *Store) Subscribe(provider string, topic Topic, fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := subKey{provider: provider, topic: topic}
	if s.subs[key] == nil {
		s.subs[key] = make(map[int]func(Event))
	}
	id := s.nextSub
	s.nextSub++
	s.subs[key][id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[key], id)
	}
}

// listeners returns subscribers in registration order. Callers hold s.mu.
func (s *Store) listeners(provider string, topic Topic) []func(Event) {
	var ids []int
	fns := make(map[int]func(Event))
	for _, key := range []subKey{{provider, topic}, {"", topic}} {
		for id, fn := range s.subs[key] {
			ids = append(ids, id)
			fns[id] = fn
		}
	}
	sort.Ints(ids)
	out := make([]func(Event), len(ids))
	for i, id := range ids {
		out[i] = fns[id]
	}
	return out
}

func (s *Store) publish(events ...Event) {
	s.mu.RLock()
	type delivery struct {
		fns []func(Event)
		ev  Event
	}
	deliveries := make([]delivery, 0, len(events))
	for _, ev := range events {
		deliveries = append(deliveries, delivery{fns: s.listeners(ev.DataProvider, ev.Topic), ev: ev})
	}
	s.mu.RUnlock()
	for _, d := range deliveries {
		for _, fn := range d.fns {
			fn(d.ev)
		}
	}
}

func (s *Store) entry(provider string) *providerEntry {
	e, ok := s.providers[provider]
	if !ok {
		e = &providerEntry{name: provider, selection: NoSelection(), echoes: make(map[cellKey]any)}
		s.providers[provider] = e
	}
	return e
}

// Snapshot returns the current state of provider. Unknown providers yield an
// empty snapshot.
func (s *Store) Snapshot(provider string) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.providers[provider]
	if !ok {
		return Snapshot{DataProvider: provider, Selection: NoSelection()}
	}
	echoes := make(map[cellKey]any, len(e.echoes))
	for k, v := range e.echoes {
		echoes[k] = v
	}
	return Snapshot{
		DataProvider: e.name,
		MetaData:     e.meta,
		HasMetaData:  e.hasMeta,
		Records:      e.records,
		AllFetched:   e.allFetched,
		TotalRows:    e.totalRows,
		Selection:    e.selection,
		Sort:         e.sort.Clone(),
		Epoch:        e.epoch,
		Generation:   e.generation,
		echoes:       echoes,
	}
}

// Providers lists the provider names currently cached.
func (s *Store) Providers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.providers))
	for n := range s.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Remove drops a provider when its screen closes.
func (s *Store) Remove(provider string) {
	s.mu.Lock()
	delete(s.providers, provider)
	s.mu.Unlock()
}

func (s *Store) ApplyMetaData(provider string, meta MetaData) {
	s.mu.Lock()
	e := s.entry(provider)
	e.meta = meta
	e.hasMeta = true
	e.generation++
	s.mu.Unlock()
	s.publish(Event{Topic: TopicMetaDataChanged, DataProvider: provider, FromRow: -1})
}

// ApplyFetch splices fetched rows at fromRow. Known rows are always a
// contiguous prefix, so fromRow may not exceed the known count.
func (s *Store) ApplyFetch(provider string, fromRow int, records []Record, allFetched bool, totalRows int) error {
	s.mu.Lock()
	e := s.entry(provider)
	if fromRow < 0 || fromRow > len(e.records) {
		known := len(e.records)
		s.mu.Unlock()
		return fmt.Errorf("fetch at row %d leaves a gap after %d known rows: %w", fromRow, known, gerr.ErrNotFound)
	}
	end := fromRow + len(records)
	next := make([]Record, 0, max(len(e.records), end))
	next = append(next, e.records[:fromRow]...)
	next = append(next, records...)
	if end < len(e.records) && !allFetched {
		next = append(next, e.records[end:]...)
	}
	e.records = next
	e.allFetched = allFetched
	e.totalRows = totalRows
	for k := range e.echoes {
		if k.row >= fromRow && k.row < end {
			delete(e.echoes, k)
		}
	}
	e.generation++
	s.mu.Unlock()
	s.publish(Event{Topic: TopicRowChanged, DataProvider: provider, FromRow: fromRow})
	return nil
}

// Reset discards every known row, for instance after the sort order changed.
func (s *Store) Reset(provider string) {
	s.mu.Lock()
	s.resetLocked(s.entry(provider))
	s.mu.Unlock()
	s.publish(Event{Topic: TopicRowChanged, DataProvider: provider, FromRow: 0, Reset: true})
}

func (s *Store) resetLocked(e *providerEntry) {
	e.records = nil
	e.allFetched = false
	e.totalRows = 0
	e.echoes = make(map[cellKey]any)
	e.epoch++
	e.generation++
}

func (s *Store) ApplySort(provider string, def SortDefinition) {
	s.mu.Lock()
	e := s.entry(provider)
	e.sort = def.Clone()
	s.resetLocked(e)
	s.mu.Unlock()
	s.publish(
		Event{Topic: TopicSortChanged, DataProvider: provider, FromRow: -1},
		Event{Topic: TopicRowChanged, DataProvider: provider, FromRow: 0, Reset: true},
	)
}

func (s *Store) ApplySelection(provider string, sel Selection) {
	s.mu.Lock()
	e := s.entry(provider)
	e.selection = sel
	e.generation++
	s.mu.Unlock()
	s.publish(Event{Topic: TopicSelectionChanged, DataProvider: provider, FromRow: sel.RowIndex})
}

// ApplyRecord replaces a known row after a confirmed write.
func (s *Store) ApplyRecord(provider string, row int, rec Record) error {
	s.mu.Lock()
	e := s.entry(provider)
	if row < 0 || row >= len(e.records) {
		s.mu.Unlock()
		return fmt.Errorf("row %d of %s: %w", row, provider, gerr.ErrNotFound)
	}
	next := append([]Record(nil), e.records...)
	next[row] = rec
	e.records = next
	for k := range e.echoes {
		if k.row == row {
			delete(e.echoes, k)
		}
	}
	if e.selection.RowIndex == row {
		e.selection.Data = rec
	}
	e.generation++
	s.mu.Unlock()
	s.publish(Event{Topic: TopicRowChanged, DataProvider: provider, FromRow: row})
	return nil
}

// ApplyInsert inserts rec at row. Rows after it shift, so the epoch changes.
func (s *Store) ApplyInsert(provider string, row int, rec Record) {
	s.mu.Lock()
	e := s.entry(provider)
	if row < 0 || row > len(e.records) {
		row = len(e.records)
	}
	next := make([]Record, 0, len(e.records)+1)
	next = append(next, e.records[:row]...)
	next = append(next, rec)
	next = append(next, e.records[row:]...)
	e.records = next
	if e.totalRows > 0 {
		e.totalRows++
	}
	e.echoes = make(map[cellKey]any)
	e.epoch++
	e.generation++
	s.mu.Unlock()
	s.publish(Event{Topic: TopicRowChanged, DataProvider: provider, FromRow: row, Reset: true})
}

// ApplyDelete removes a known row.
func (s *Store) ApplyDelete(provider string, row int) {
	s.mu.Lock()
	e := s.entry(provider)
	if row < 0 || row >= len(e.records) {
		s.mu.Unlock()
		return
	}
	next := make([]Record, 0, len(e.records)-1)
	next = append(next, e.records[:row]...)
	next = append(next, e.records[row+1:]...)
	e.records = next
	if e.totalRows > 0 {
		e.totalRows--
	}
	e.echoes = make(map[cellKey]any)
	e.epoch++
	e.generation++
	s.mu.Unlock()
	s.publish(Event{Topic: TopicRowChanged, DataProvider: provider, FromRow: row, Reset: true})
}

// Echo shows value in a cell until the next authoritative update of its row.
func (s *Store) Echo(provider string, row int, column string, value any) {
	s.mu.Lock()
	e := s.entry(provider)
	e.echoes[cellKey{row: row, column: column}] = value
	e.generation++
	s.mu.Unlock()
	s.publish(Event{Topic: TopicRowChanged, DataProvider: provider, FromRow: row})
}

// ClearEcho rolls back an optimistic value, e.g. after a failed write.
func (s *Store) ClearEcho(provider string, row int, column string) {
	s.mu.Lock()
	e := s.entry(provider)
	key := cellKey{row: row, column: column}
	if _, ok := e.echoes[key]; !ok {
		s.mu.Unlock()
		return
	}
	delete(e.echoes, key)
	e.generation++
	s.mu.Unlock()
	s.publish(Event{Topic: TopicRowChanged, DataProvider: provider, FromRow: row})
}

// BeginFetch marks a fetch in flight for provider. It returns false when one
// is already running; at most one fetch per provider is outstanding.
func (s *Store) BeginFetch(provider string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(provider)
	if e.fetchActive {
		return false
	}
	e.fetchActive = true
	return true
}

func (s *Store) EndFetch(provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.providers[provider]; ok {
		e.fetchActive = false
	}
}

func (s *Store) FetchInFlight(provider string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.providers[provider]
	return ok && e.fetchActive
}
