package data

import (
	"fmt"
	"strings"
)

type RowState int

const (
	RowNormal RowState = iota
	RowDeleted
)

// Record is one row of a data provider. Values maps column names to cell
// values; State and Formats are bookkeeping that never appear as columns.
type Record struct {
	Values  map[string]any    `json:"values"`
	State   RowState          `json:"state,omitempty"`
	Formats map[string]string `json:"formats,omitempty"`
}

func NewRecord(values map[string]any) Record {
	return Record{Values: values}
}

func (r Record) Get(column string) any {
	if r.Values == nil {
		return nil
	}
	return r.Values[column]
}

// With returns a copy of r with column set to value.
func (r Record) With(column string, value any) Record {
	values := make(map[string]any, len(r.Values)+1)
	for k, v := range r.Values {
		values[k] = v
	}
	values[column] = value
	return Record{Values: values, State: r.State, Formats: r.Formats}
}

func (r Record) Deleted() bool {
	return r.State == RowDeleted
}

// LinkReference binds a Linked column to another data provider.
type LinkReference struct {
	DataProvider      string   `json:"dataProvider"`
	ColumnNames       []string `json:"columnNames"`
	ReferencedColumns []string `json:"referencedColumns"`
	DisplayColumn     string   `json:"displayColumn"`
}

type EditorConfig struct {
	SelectedValue   any            `json:"selectedValue,omitempty"`
	DeselectedValue any            `json:"deselectedValue,omitempty"`
	AllowedValues   []any          `json:"allowedValues,omitempty"`
	Formats         []string       `json:"formats,omitempty"`
	Link            *LinkReference `json:"link,omitempty"`
}

type ColumnMetaData struct {
	Name                string         `json:"name"`
	Label               string         `json:"label,omitempty"`
	EditorKind          CellEditorKind `json:"editorKind"`
	Nullable            bool           `json:"nullable"`
	Readonly            bool           `json:"readonly"`
	Movable             bool           `json:"movable"`
	Resizable           bool           `json:"resizable"`
	Sortable            bool           `json:"sortable"`
	Width               int            `json:"width,omitempty"`
	PreferredEditorMode int            `json:"preferredEditorMode,omitempty"`
	Editor              EditorConfig   `json:"editor"`
}

// Header is the text shown in the column header.
func (c ColumnMetaData) Header() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Name
}

type MetaData struct {
	DataProvider  string           `json:"dataProvider"`
	Columns       []ColumnMetaData `json:"columns"`
	PrimaryKeys   []string         `json:"primaryKeys,omitempty"`
	Readonly      bool             `json:"readonly"`
	InsertEnabled bool             `json:"insertEnabled"`
	DeleteEnabled bool             `json:"deleteEnabled"`
}

func (m MetaData) Column(name string) (ColumnMetaData, bool) {
	for _, c := range m.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnMetaData{}, false
}

func (m MetaData) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}
	return names
}

// KeyColumns returns the columns that identify a row: the declared primary
// keys, else a single ID-like column, else every text and number column.
func (m MetaData) KeyColumns() []string {
	if len(m.PrimaryKeys) > 0 {
		return append([]string(nil), m.PrimaryKeys...)
	}
	for _, c := range m.Columns {
		if strings.EqualFold(c.Name, "ID") {
			return []string{c.Name}
		}
	}
	var idLike []string
	for _, c := range m.Columns {
		upper := strings.ToUpper(c.Name)
		if strings.HasSuffix(upper, "_ID") {
			idLike = append(idLike, c.Name)
		}
	}
	if len(idLike) == 1 {
		return idLike
	}
	var keys []string
	for _, c := range m.Columns {
		if c.EditorKind == EditorText || c.EditorKind == EditorNumber {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

// Filter selects rows whose ColumnNames equal Values.
type Filter struct {
	ColumnNames []string `json:"columnNames"`
	Values      []any    `json:"values"`
}

func (f Filter) Empty() bool {
	return len(f.ColumnNames) == 0
}

// Matches reports whether r has every filter value.
func (f Filter) Matches(r Record) bool {
	if f.Empty() {
		return false
	}
	for i, c := range f.ColumnNames {
		var want any
		if i < len(f.Values) {
			want = f.Values[i]
		}
		if !ValuesEqual(r.Get(c), want) {
			return false
		}
	}
	return true
}

// Equal compares two filters column by column.
func (f Filter) Equal(o Filter) bool {
	if len(f.ColumnNames) != len(o.ColumnNames) || len(f.Values) != len(o.Values) {
		return false
	}
	for i := range f.ColumnNames {
		if f.ColumnNames[i] != o.ColumnNames[i] || !ValuesEqual(f.Values[i], o.Values[i]) {
			return false
		}
	}
	return true
}

func (f Filter) String() string {
	parts := make([]string, len(f.ColumnNames))
	for i, c := range f.ColumnNames {
		var v any
		if i < len(f.Values) {
			v = f.Values[i]
		}
		parts[i] = fmt.Sprintf("%s=%v", c, v)
	}
	return strings.Join(parts, ",")
}

// FilterFor builds the key filter identifying r.
func FilterFor(meta MetaData, r Record) Filter {
	keys := meta.KeyColumns()
	values := make([]any, len(keys))
	for i, k := range keys {
		values[i] = r.Get(k)
	}
	return Filter{ColumnNames: keys, Values: values}
}

type SelectionState int

const (
	Unselected SelectionState = iota
	RowSelected
	CellSelected
)

func (s SelectionState) String() string {
	switch s {
	case RowSelected:
		return "row"
	case CellSelected:
		return "cell"
	default:
		return "none"
	}
}

// Selection is the single active (row, column) pointer into a provider.
type Selection struct {
	RowIndex       int    `json:"rowIndex"`
	Data           Record `json:"data"`
	SelectedColumn string `json:"selectedColumn,omitempty"`
}

// NoSelection is the empty selection.
func NoSelection() Selection {
	return Selection{RowIndex: -1}
}

func (s Selection) State() SelectionState {
	switch {
	case s.RowIndex < 0:
		return Unselected
	case s.SelectedColumn == "":
		return RowSelected
	default:
		return CellSelected
	}
}

type SortDirection int

const (
	SortNone SortDirection = iota
	Ascending
	Descending
)

func (d SortDirection) String() string {
	switch d {
	case Ascending:
		return "Ascending"
	case Descending:
		return "Descending"
	default:
		return "None"
	}
}

func (d SortDirection) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *SortDirection) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "ascending", "asc":
		*d = Ascending
	case "descending", "desc":
		*d = Descending
	case "none", "":
		*d = SortNone
	default:
		return fmt.Errorf("unknown sort direction %q", string(b))
	}
	return nil
}

type SortEntry struct {
	ColumnName string        `json:"columnName"`
	Direction  SortDirection `json:"mode"`
}

// SortDefinition is ordered by precedence; the first entry sorts first.
type SortDefinition []SortEntry

// Index returns the 1-based precedence of column, or 0 when it is not sorted.
func (d SortDefinition) Index(column string) int {
	for i, e := range d {
		if e.ColumnName == column {
			return i + 1
		}
	}
	return 0
}

func (d SortDefinition) Direction(column string) SortDirection {
	if i := d.Index(column); i > 0 {
		return d[i-1].Direction
	}
	return SortNone
}

func (d SortDefinition) Clone() SortDefinition {
	if d == nil {
		return nil
	}
	return append(SortDefinition(nil), d...)
}

func (d SortDefinition) Equal(o SortDefinition) bool {
	if len(d) != len(o) {
		return false
	}
	for i := range d {
		if d[i] != o[i] {
			return false
		}
	}
	return true
}

// Validate checks that every column appears at most once and has a direction.
func (d SortDefinition) Validate() error {
	seen := make(map[string]struct{}, len(d))
	for _, e := range d {
		if e.Direction == SortNone {
			return fmt.Errorf("sort entry %s has no direction", e.ColumnName)
		}
		if _, dup := seen[e.ColumnName]; dup {
			return fmt.Errorf("column %s sorted twice", e.ColumnName)
		}
		seen[e.ColumnName] = struct{}{}
	}
	return nil
}
