// Package tui is the terminal front-end: a table picker, a search input, the
// grid and an action bar, with the grid's tab-order neighbours wired in.
package tui

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/nicobailon/remotegrid/internal/config"
	"github.com/nicobailon/remotegrid/internal/data"
	"github.com/nicobailon/remotegrid/internal/grid"
	"github.com/nicobailon/remotegrid/internal/log"
	"github.com/nicobailon/remotegrid/internal/recent"
	"github.com/nicobailon/remotegrid/internal/remote"
	"github.com/nicobailon/remotegrid/internal/tui/components"
	"github.com/nicobailon/remotegrid/internal/tui/theme"
	"github.com/nicobailon/remotegrid/internal/tui/views"
)

type viewState int

const (
	stateMain viewState = iota
	stateTables
	stateRecord
	stateHelp
)

const (
	searchID  = "search"
	actionsID = "actions"

	// Title, search, table header, action bar and footer.
	chromeLines = 5
	// The table header is drawn on this line.
	tableTop = 2

	doubleClickInterval = 400 * time.Millisecond
	wheelRows           = 3
)

type Deps struct {
	Source remote.Source
	// SourceName identifies the source in the recent list: a database path
	// or a socket address.
	SourceName string
	Table      string
	Cfg        *config.Config
	Recent     *recent.Store
	Logger     *slog.Logger
	// Clipboard writes copied text; the system clipboard when nil.
	Clipboard func(string) error
}

// focusRing is the tab order around the grid. It wraps at both ends.
type focusRing struct {
	ids []string
}

func (r *focusRing) Neighbor(id string, dir grid.Direction) (string, bool) {
	n := len(r.ids)
	for i, c := range r.ids {
		if c != id {
			continue
		}
		step := 1
		if dir == grid.Backward {
			step = n - 1
		}
		return r.ids[(i+step)%n], n > 1
	}
	return "", false
}

type action struct {
	label string
	run   func(m *model) tea.Cmd
}

var actions = []action{
	{label: "Insert", run: func(m *model) tea.Cmd { return m.grid.InsertRecord() }},
	{label: "Delete", run: func(m *model) tea.Cmd { return m.grid.DeleteRecord() }},
	{label: "Reload", run: func(m *model) tea.Cmd { return m.grid.Reload() }},
	{label: "Copy", run: func(m *model) tea.Cmd { return m.copyCell() }},
	{label: "Tables", run: func(m *model) tea.Cmd { return m.openTables() }},
	{label: "Quit", run: func(m *model) tea.Cmd { return tea.Quit }},
}

func actionLabels() []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.label
	}
	return out
}

type clickRecord struct {
	at   time.Time
	cell grid.CellID
}

type model struct {
	deps     Deps
	state    viewState
	store    *data.Store
	grid     *grid.Model
	ring     *focusRing
	focus    string
	search   textinput.Model
	active   int
	tables   list.Model
	spinner  spinner.Model
	spinning bool
	recorded bool
	width    int
	height   int
	toast    *toast
	keys     appKeyMap
	click    clickRecord
	now      func() time.Time
	// after wraps delayed commands: toast expiry and spinner ticks.
	after func(tea.Cmd) tea.Cmd
}

type App struct {
	deps Deps
}

func New(deps Deps) *App {
	return &App{deps: deps}
}

func (a *App) Run() error {
	m := initialModel(a.deps)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	finalModel, err := p.Run()
	if fm, ok := finalModel.(model); ok && fm.grid != nil {
		fm.grid.Close()
	}
	return err
}

func initialModel(deps Deps) model {
	if deps.Cfg == nil {
		deps.Cfg = config.Default()
	}
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}

	search := textinput.New()
	search.Prompt = ""
	search.Placeholder = "search loaded rows"
	search.Cursor.SetMode(cursor.CursorStatic)

	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.DisableQuitKeybindings()
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetFilteringEnabled(true)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Accent)

	m := model{
		deps:    deps,
		store:   data.NewStore(),
		ring:    &focusRing{ids: []string{searchID, "", actionsID}},
		search:  search,
		tables:  l,
		spinner: sp,
		keys:    defaultAppKeyMap(),
		now:     time.Now,
		after:   func(cmd tea.Cmd) tea.Cmd { return cmd },
	}
	if deps.Table != "" {
		m.setTable(deps.Table)
	} else {
		m.state = stateTables
	}
	return m
}

// setTable replaces the grid with one bound to table. Responses still in
// flight for the old grid carry its id and are ignored.
func (m *model) setTable(table string) {
	if m.grid != nil {
		m.grid.Close()
	}
	opts := m.deps.Cfg.GridOptions()
	opts.ComponentID = uuid.NewString()
	opts.DataProvider = table
	opts.Source = m.deps.Source
	opts.Store = m.store
	opts.Neighbors = m.ring
	opts.Measurer = grid.RuneWidthMeasurer{}
	opts.Logger = m.deps.Logger
	m.grid = grid.New(opts)
	m.ring.ids[1] = m.grid.ID()
	m.deps.Table = table
	m.recorded = false
	m.focus = m.grid.ID()
	m.grid.Focus()
	m.search.Blur()
	m.state = stateMain
}

func (m *model) openTable(table string) tea.Cmd {
	m.deps.Logger.Info("opening table", "table", table)
	m.setTable(table)
	return tea.Batch(m.resize(), m.afterGrid())
}

func (m model) Init() tea.Cmd {
	if m.grid == nil {
		return loadTablesCmd(m.deps.Source)
	}
	return tea.Batch(m.grid.Init(), m.afterGrid())
}

func (m *model) resize() tea.Cmd {
	// Resizing repaginates the list; keep the cursor on the same item.
	i := m.tables.Index()
	m.tables.SetSize(max(20, min(m.width-8, 60)), max(5, m.height-10))
	m.tables.Select(i)
	if m.grid == nil || m.width == 0 {
		return nil
	}
	return m.grid.SetSize(m.width, max(1, m.height-chromeLines))
}

// afterGrid runs after anything that may have changed the grid: it keeps the
// spinner ticking while requests are in flight and records the table in the
// recent list once its metadata arrived.
func (m *model) afterGrid() tea.Cmd {
	if m.grid == nil {
		return nil
	}
	var cmds []tea.Cmd
	if m.grid.Busy() && !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.after(m.spinner.Tick))
	}
	if snap := m.store.Snapshot(m.grid.DataProvider()); !m.recorded && snap.HasMetaData {
		m.recorded = true
		cmds = append(cmds, saveRecentCmd(m.deps.Recent, m.deps.SourceName, m.deps.Table, snap.Total()))
	}
	return tea.Batch(cmds...)
}

// focusOn moves focus to the component id. Leaving the grid commits an open
// editor.
func (m *model) focusOn(id string) tea.Cmd {
	var cmds []tea.Cmd
	if m.focus == m.grid.ID() && id != m.grid.ID() {
		cmds = append(cmds, m.grid.Blur())
	}
	if m.focus == searchID {
		m.search.Blur()
	}
	m.focus = id
	switch id {
	case searchID:
		cmds = append(cmds, m.search.Focus())
	case m.grid.ID():
		m.grid.Focus()
		if _, ok := m.grid.Current(); !ok {
			cmds = append(cmds, m.grid.SelectCell(0, ""))
		}
	}
	return tea.Batch(cmds...)
}

func (m *model) focusNext(dir grid.Direction) tea.Cmd {
	next, ok := m.ring.Neighbor(m.focus, dir)
	if !ok {
		return nil
	}
	return m.focusOn(next)
}

func (m *model) copyCell() tea.Cmd {
	cur, ok := m.grid.Current()
	if !ok || cur.Row < 0 {
		return NewWarningCmd("No cell selected")
	}
	return copyCellCmd(m.deps.Clipboard, m.grid.CellText(cur.Row, cur.Column))
}

func (m *model) openTables() tea.Cmd {
	if _, ok := m.deps.Source.(remote.Catalog); !ok {
		return NewWarningCmd("This source cannot list its tables")
	}
	var cmd tea.Cmd
	if m.grid != nil && m.focus == m.grid.ID() {
		cmd = m.grid.Blur()
	}
	m.search.Blur()
	m.focus = ""
	m.state = stateTables
	return tea.Batch(cmd, loadTablesCmd(m.deps.Source))
}

func (m *model) showToast(t *toast) tea.Cmd {
	m.toast = t
	return m.after(toastExpireCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.grid == nil || !m.grid.Busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, m.after(cmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, m.resize()

	case grid.StatusMsg:
		return m, m.showToast(statusToast(msg))

	case grid.FocusMsg:
		if m.grid == nil || msg.From != m.grid.ID() {
			return m, nil
		}
		m.deps.Logger.Debug("focus moved", "to", msg.To, "direction", msg.Direction)
		return m, m.focusOn(msg.To)

	case tablesLoadedMsg:
		return m.applyTables(msg)

	case recentSavedMsg:
		if msg.err != nil {
			m.deps.Logger.Warn("saving recent tables failed", "error", msg.err)
		}
		return m, nil

	case SuccessMsg:
		return m, m.showToast(newToast(msg.Message, toastSuccess))
	case ErrorMsg:
		m.deps.Logger.Warn(msg.Error())
		return m, m.showToast(newToast(msg.Error(), toastError))
	case WarningMsg:
		return m, m.showToast(newToast(msg.Message, toastWarning))
	case InfoMsg:
		return m, m.showToast(newToast(msg.Message, toastInfo))
	case toastExpiredMsg:
		if m.toast != nil && m.toast.expired() {
			m.toast = nil
		}
		return m, nil

	case tea.KeyMsg:
		return handleKey(&m, msg)

	case tea.MouseMsg:
		return handleMouse(&m, msg)
	}

	if m.grid == nil {
		return m, nil
	}
	cmd := m.grid.Update(msg)
	return m, tea.Batch(cmd, m.afterGrid())
}

func (m model) applyTables(msg tablesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.deps.Logger.Warn("listing tables failed", "error", msg.err)
		if m.grid != nil {
			m.state = stateMain
			m.focus = m.grid.ID()
			m.grid.Focus()
		}
		return m, m.showToast(newToast("list tables: "+msg.err.Error(), toastError))
	}
	if m.grid == nil && len(msg.tables) == 1 {
		return m, m.openTable(msg.tables[0])
	}
	var entries []recent.Entry
	if m.deps.Recent != nil {
		entries = m.deps.Recent.Recent(0)
	}
	m.setTableItems(msg.tables, entries)
	return m, nil
}

func (m model) View() string {
	switch m.state {
	case stateTables:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, views.RenderTablePicker(&m.tables))
	case stateRecord:
		card := components.RenderRecord(m.grid, min(m.width, 80))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, card)
	case stateHelp:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, renderHelp(m.grid.KeyMap(), m.keys))
	}
	if m.grid == nil {
		return ""
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTitle(),
		views.RenderSearch(m.search.View(), m.focus == searchID),
		views.RenderTable(m.grid, m.width),
		views.RenderActionBar(actionLabels(), m.active, m.focus == actionsID),
		m.renderFooter(),
	)
}

func (m model) renderTitle() string {
	title := theme.GridLogo + "  " + theme.SectionStyle.Render(m.grid.DataProvider())
	if m.deps.SourceName != "" {
		title += theme.DimStyle.Render("  " + filepath.Base(m.deps.SourceName))
	}
	snap := m.store.Snapshot(m.grid.DataProvider())
	rows := fmt.Sprintf("  %d rows", snap.Total())
	if !snap.AllFetched {
		rows = fmt.Sprintf("  %d+ rows", snap.Known())
	}
	title += theme.SubTextStyle.Render(rows)
	if cur, ok := m.grid.Current(); ok && cur.Row >= 0 {
		title += theme.DimStyle.Render(fmt.Sprintf("  %d:%s", cur.Row+1, cur.Column))
	}
	if state := m.grid.EditState(); state == grid.EditEditing || state == grid.EditPending || state == grid.EditCommitting {
		title += "  " + theme.WarnStyle.Render(state.String())
	}
	if m.grid.Busy() {
		title += "  " + m.spinner.View()
	}
	return title
}

func (m model) renderFooter() string {
	if m.toast != nil && !m.toast.expired() {
		return m.toast.render(defaultToastStyles)
	}
	bindings := append(m.grid.KeyMap().ShortHelp(), m.keys.Help, m.keys.Quit)
	return lipgloss.NewStyle().MaxWidth(m.width).Render(renderShortHelp(bindings))
}
