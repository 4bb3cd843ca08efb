// Package grid is a headless, virtualized data grid bound to a remote data
// provider. Every remote round trip is a tea.Cmd whose response message is
// applied by Model.Update on the program's event loop.
package grid

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/nicobailon/remotegrid/internal/data"
	"github.com/nicobailon/remotegrid/internal/log"
	"github.com/nicobailon/remotegrid/internal/remote"
)

type Options struct {
	// ComponentID identifies the grid in requests; a UUID when empty.
	ComponentID  string
	DataProvider string
	Source       remote.Source
	Store        *data.Store

	PageSize        int
	RowHeight       int
	AutoFit         bool
	EnterNavigation NavigationMode
	TabNavigation   NavigationMode
	Neighbors       Neighbors
	Measurer        Measurer
	Locale          language.Tag
	KeyMap          *KeyMap
	RequestTimeout  time.Duration
	Logger          *slog.Logger
}

// Model is one grid instance.
type Model struct {
	id       string
	provider string
	src      remote.Source
	store    *data.Store
	logger   *slog.Logger
	timeout  time.Duration

	window *WindowManager
	layout *Layout
	format *Formatter
	sorter sortCoordinator
	sel    selector
	edit   editController
	keys   KeyMap

	enterMode NavigationMode
	tabMode   NavigationMode
	neighbors Neighbors

	rowHeight int
	width     int
	height    int
	scrollTop int
	focused   bool
	busy      int

	unsubscribe []func()
}

func New(opts Options) *Model {
	if opts.ComponentID == "" {
		opts.ComponentID = uuid.NewString()
	}
	if opts.Store == nil {
		opts.Store = data.NewStore()
	}
	if opts.RowHeight <= 0 {
		opts.RowHeight = 1
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Locale == (language.Tag{}) {
		opts.Locale = language.English
	}
	keys := DefaultKeyMap()
	if opts.KeyMap != nil {
		keys = *opts.KeyMap
	}
	m := &Model{
		id:        opts.ComponentID,
		provider:  opts.DataProvider,
		src:       opts.Source,
		store:     opts.Store,
		logger:    opts.Logger.With("grid", opts.ComponentID, "provider", opts.DataProvider),
		timeout:   opts.RequestTimeout,
		window:    NewWindowManager(opts.PageSize),
		layout:    NewLayout(opts.Measurer, opts.AutoFit),
		format:    NewFormatter(opts.Locale),
		keys:      keys,
		enterMode: opts.EnterNavigation,
		tabMode:   opts.TabNavigation,
		neighbors: opts.Neighbors,
		rowHeight: opts.RowHeight,
		edit:      newEditController(),
	}
	if snap := m.store.Snapshot(m.provider); snap.HasMetaData {
		m.layout.SetColumns(snap.MetaData)
	}
	m.unsubscribe = append(m.unsubscribe,
		m.store.Subscribe(m.provider, data.TopicMetaDataChanged, m.onMetaData),
		m.store.Subscribe(m.provider, data.TopicRowChanged, m.onRowsChanged),
	)
	return m
}

// Close drops the store subscriptions.
func (m *Model) Close() {
	for _, fn := range m.unsubscribe {
		fn()
	}
	m.unsubscribe = nil
}

func (m *Model) onMetaData(data.Event) {
	m.layout.SetColumns(m.store.Snapshot(m.provider).MetaData)
}

func (m *Model) onRowsChanged(ev data.Event) {
	if ev.Reset {
		m.edit.clearDisplay()
	}
}

func (m *Model) Init() tea.Cmd {
	return m.ensureRows()
}

func (m *Model) ID() string           { return m.id }
func (m *Model) DataProvider() string { return m.provider }
func (m *Model) Store() *data.Store   { return m.store }
func (m *Model) Layout() *Layout      { return m.layout }
func (m *Model) Formatter() *Formatter {
	return m.format
}
func (m *Model) KeyMap() KeyMap { return m.keys }

// Busy reports whether any request is in flight.
func (m *Model) Busy() bool { return m.busy > 0 }

func (m *Model) Focused() bool { return m.focused }

func (m *Model) Focus() {
	m.focused = true
}

// Blur moves focus away from the grid. An open editor commits as on blur.
func (m *Model) Blur() tea.Cmd {
	m.focused = false
	return m.commitEdit(nil)
}

// SetSize sets the body viewport in cells.
func (m *Model) SetSize(width, height int) tea.Cmd {
	m.width, m.height = width, height
	m.layout.Fit(width)
	m.scrollTop = m.clampScroll(m.scrollTop)
	return m.ensureRows()
}

func (m *Model) snapshot() data.Snapshot {
	return m.store.Snapshot(m.provider)
}

func (m *Model) MetaData() data.MetaData {
	return m.snapshot().MetaData
}

// VisibleRows is how many rows fit the viewport.
func (m *Model) VisibleRows() int {
	return max(1, m.height/m.rowHeight)
}

func (m *Model) ScrollTop() int { return m.scrollTop }

func (m *Model) clampScroll(top int) int {
	total := m.snapshot().Total()
	return max(0, min(top, total-m.VisibleRows()))
}

// ScrollTo moves the first visible row and requests rows as needed.
func (m *Model) ScrollTo(first int) tea.Cmd {
	m.scrollTop = m.clampScroll(first)
	return m.ensureRows()
}

func (m *Model) scrollIntoView(row int) {
	switch {
	case row < m.scrollTop:
		m.scrollTop = row
	case row >= m.scrollTop+m.VisibleRows():
		m.scrollTop = row - m.VisibleRows() + 1
	}
	m.scrollTop = max(0, m.scrollTop)
}

// Window returns the rows for the current scroll position.
func (m *Model) Window() Window {
	snap := m.snapshot()
	if m.layout.Measure(snap, m.format.Text) {
		m.logger.Log(context.Background(), log.LevelTrace, "measured columns", "generation", snap.Generation)
	}
	return m.window.Compute(m.scrollTop, m.scrollTop+m.VisibleRows()-1, snap)
}

// ColumnView is what a renderer needs to draw one header.
type ColumnView struct {
	Name       string
	Header     string
	Width      int
	Kind       data.CellEditorKind
	Readonly   bool
	Precedence int
	Direction  data.SortDirection
}

func (m *Model) Columns() []ColumnView {
	snap := m.snapshot()
	order := m.layout.Order()
	out := make([]ColumnView, 0, len(order))
	for _, name := range order {
		c, _ := m.layout.Column(name)
		out = append(out, ColumnView{
			Name:       name,
			Header:     c.Header(),
			Width:      m.layout.Width(name),
			Kind:       c.EditorKind,
			Readonly:   c.Readonly || snap.MetaData.Readonly,
			Precedence: snap.Sort.Index(name),
			Direction:  snap.Sort.Direction(name),
		})
	}
	return out
}

// SortDefinition is the confirmed sort of the provider.
func (m *Model) SortDefinition() data.SortDefinition {
	return m.snapshot().Sort
}

// Precedence is the 1-based position of column in the confirmed sort.
func (m *Model) Precedence(column string) int {
	return m.snapshot().Sort.Index(column)
}

// CellValue is the value shown in a cell, including unconfirmed edits.
func (m *Model) CellValue(row int, column string) any {
	if v, ok := m.edit.display[CellID{Row: row, Column: column}]; ok {
		return v
	}
	return m.snapshot().Value(row, column)
}

// CellText is CellValue formatted for display.
func (m *Model) CellText(row int, column string) string {
	c, ok := m.layout.Column(column)
	if !ok {
		return ""
	}
	return m.format.Text(c, m.CellValue(row, column))
}

// Update applies key presses and response messages addressed to this grid.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !m.focused {
			return nil
		}
		return m.handleKey(msg)
	case fetchedMsg:
		if msg.grid != m.id {
			if msg.provider == m.provider {
				return m.ensureRows()
			}
			return nil
		}
		return m.applyFetched(msg)
	case selectedMsg:
		if msg.grid == m.id {
			return m.applySelected(msg)
		}
	case sortedMsg:
		if msg.grid == m.id {
			return m.applySorted(msg)
		}
	case committedMsg:
		if msg.grid == m.id {
			return m.applyCommitted(msg)
		}
	case insertedMsg:
		if msg.grid == m.id {
			return m.applyInserted(msg)
		}
	case deletedMsg:
		if msg.grid == m.id {
			return m.applyDeleted(msg)
		}
	}
	return nil
}
