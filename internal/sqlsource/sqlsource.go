// Package sqlsource serves grid data providers straight from the tables of a
// SQLite database.
package sqlsource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/nicobailon/remotegrid/internal/data"
	gerr "github.com/nicobailon/remotegrid/internal/err"
	"github.com/nicobailon/remotegrid/internal/remote"
)

// Source implements remote.Source over SQLite. Each table is a data provider.
type Source struct {
	db     *sqlx.DB
	logger *slog.Logger

	mu         sync.Mutex
	meta       map[string]data.MetaData
	sorts      map[string]data.SortDefinition
	selections map[string]data.Selection
}

var _ remote.Source = (*Source)(nil)

// Open connects to the database at path, creating it when missing.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Source, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return New(db, logger), nil
}

func New(db *sqlx.DB, logger *slog.Logger) *Source {
	return &Source{
		db:         db,
		logger:     logger,
		meta:       make(map[string]data.MetaData),
		sorts:      make(map[string]data.SortDefinition),
		selections: make(map[string]data.Selection),
	}
}

func (s *Source) Close() error {
	return s.db.Close()
}

// DB exposes the connection for seeding and tests.
func (s *Source) DB() *sqlx.DB {
	return s.db
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (s *Source) DataProviders(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	return names, nil
}

type columnInfo struct {
	CID     int            `db:"cid"`
	Name    string         `db:"name"`
	Type    string         `db:"type"`
	NotNull int            `db:"notnull"`
	Default sql.NullString `db:"dflt_value"`
	PK      int            `db:"pk"`
}

type foreignKey struct {
	ID       int    `db:"id"`
	Seq      int    `db:"seq"`
	Table    string `db:"table"`
	From     string `db:"from"`
	To       string `db:"to"`
	OnUpdate string `db:"on_update"`
	OnDelete string `db:"on_delete"`
	Match    string `db:"match"`
}

// editorKind maps a declared SQLite column type to an editor.
func editorKind(declared string) data.CellEditorKind {
	t := strings.ToUpper(declared)
	switch {
	case strings.Contains(t, "BOOL"):
		return data.EditorCheckBox
	case strings.Contains(t, "DATE"), strings.Contains(t, "TIME"):
		return data.EditorDate
	case strings.Contains(t, "INT"), strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"),
		strings.Contains(t, "DOUB"), strings.Contains(t, "NUM"), strings.Contains(t, "DEC"):
		return data.EditorNumber
	case strings.Contains(t, "BLOB"):
		return data.EditorImage
	}
	return data.EditorText
}

func (s *Source) metaData(ctx context.Context, table string) (data.MetaData, error) {
	s.mu.Lock()
	meta, ok := s.meta[table]
	s.mu.Unlock()
	if ok {
		return meta, nil
	}

	var cols []columnInfo
	if err := s.db.SelectContext(ctx, &cols, "PRAGMA table_info("+quote(table)+")"); err != nil {
		return data.MetaData{}, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	if len(cols) == 0 {
		return data.MetaData{}, fmt.Errorf("table %s: %w", table, gerr.ErrNotFound)
	}
	var fks []foreignKey
	if err := s.db.SelectContext(ctx, &fks, "PRAGMA foreign_key_list("+quote(table)+")"); err != nil {
		return data.MetaData{}, fmt.Errorf("reading foreign keys of %s: %w", table, err)
	}
	links := make(map[string]foreignKey, len(fks))
	for _, fk := range fks {
		links[fk.From] = fk
	}

	meta = data.MetaData{DataProvider: table, InsertEnabled: true, DeleteEnabled: true}
	pks := make(map[int]string)
	for _, c := range cols {
		col := data.ColumnMetaData{
			Name:       c.Name,
			EditorKind: editorKind(c.Type),
			Nullable:   c.NotNull == 0 && c.PK == 0,
			Movable:    true,
			Resizable:  true,
			Sortable:   true,
		}
		if c.PK > 0 {
			pks[c.PK] = c.Name
			// INTEGER PRIMARY KEY aliases the rowid and is assigned on insert.
			col.Readonly = strings.EqualFold(c.Type, "INTEGER")
		}
		switch col.EditorKind {
		case data.EditorCheckBox:
			col.Editor = data.EditorConfig{SelectedValue: int64(1), DeselectedValue: int64(0)}
		case data.EditorDate:
			col.Editor = data.EditorConfig{Formats: []string{"2006-01-02", "2006-01-02 15:04"}}
		}
		if fk, ok := links[c.Name]; ok {
			if fk.To == "" {
				fk.To = "rowid"
			}
			display, err := s.displayColumn(ctx, fk.Table, fk.To)
			if err != nil {
				return data.MetaData{}, err
			}
			col.EditorKind = data.EditorLinked
			col.Editor = data.EditorConfig{Link: &data.LinkReference{
				DataProvider:      fk.Table,
				ColumnNames:       []string{fk.From},
				ReferencedColumns: []string{fk.To},
				DisplayColumn:     display,
			}}
		}
		meta.Columns = append(meta.Columns, col)
	}
	for i := 1; i <= len(pks); i++ {
		meta.PrimaryKeys = append(meta.PrimaryKeys, pks[i])
	}

	s.mu.Lock()
	s.meta[table] = meta
	s.mu.Unlock()
	return meta, nil
}

// displayColumn picks the column users type into when choosing a referenced
// row: its first text column, else the referenced key.
func (s *Source) displayColumn(ctx context.Context, table, key string) (string, error) {
	var cols []columnInfo
	if err := s.db.SelectContext(ctx, &cols, "PRAGMA table_info("+quote(table)+")"); err != nil {
		return "", fmt.Errorf("reading columns of %s: %w", table, err)
	}
	for _, c := range cols {
		if c.PK == 0 && editorKind(c.Type) == data.EditorText {
			return c.Name, nil
		}
	}
	return key, nil
}

func (s *Source) orderBy(meta data.MetaData, def data.SortDefinition) string {
	var parts []string
	for _, e := range def {
		dir := "ASC"
		if e.Direction == data.Descending {
			dir = "DESC"
		}
		parts = append(parts, quote(e.ColumnName)+" "+dir)
	}
	for _, k := range meta.KeyColumns() {
		if def.Index(k) == 0 {
			parts = append(parts, quote(k)+" ASC")
		}
	}
	if len(parts) == 0 {
		return " ORDER BY rowid"
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (s *Source) sortOf(table string) data.SortDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorts[table].Clone()
}

func toRecord(row map[string]any) data.Record {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = append([]byte(nil), b...)
		}
	}
	return data.NewRecord(row)
}

func (s *Source) queryRecords(ctx context.Context, query string, args ...any) ([]data.Record, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []data.Record
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		out = append(out, toRecord(row))
	}
	return out, rows.Err()
}

func (s *Source) Fetch(ctx context.Context, req remote.FetchRequest) (remote.FetchResponse, error) {
	meta, err := s.metaData(ctx, req.DataProvider)
	if err != nil {
		return remote.FetchResponse{}, err
	}
	limit := -1
	if req.RowCount >= 0 {
		limit = req.RowCount + 1
	}
	query := "SELECT * FROM " + quote(req.DataProvider) + s.orderBy(meta, s.sortOf(req.DataProvider)) + " LIMIT ? OFFSET ?"
	records, err := s.queryRecords(ctx, query, limit, req.FromRow)
	if err != nil {
		return remote.FetchResponse{}, fmt.Errorf("fetching %s: %w", req.DataProvider, err)
	}
	allFetched := req.RowCount < 0 || len(records) <= req.RowCount
	if !allFetched {
		records = records[:req.RowCount]
	}
	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM "+quote(req.DataProvider)); err != nil {
		return remote.FetchResponse{}, fmt.Errorf("counting %s: %w", req.DataProvider, err)
	}
	s.logger.Debug("fetched rows", "table", req.DataProvider, "from", req.FromRow, "count", len(records), "total", total)
	resp := remote.FetchResponse{
		DataProvider: req.DataProvider,
		FromRow:      req.FromRow,
		Records:      records,
		AllFetched:   allFetched,
		TotalRows:    total,
	}
	if req.IncludeMetaData {
		resp.MetaData = &meta
	}
	return resp, nil
}

func where(f data.Filter) (string, []any) {
	conds := make([]string, len(f.ColumnNames))
	args := make([]any, len(f.ColumnNames))
	for i, c := range f.ColumnNames {
		conds[i] = quote(c) + " IS ?"
		if i < len(f.Values) {
			args[i] = f.Values[i]
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func checkColumns(meta data.MetaData, names []string) error {
	for _, n := range names {
		if _, ok := meta.Column(n); !ok {
			return fmt.Errorf("column %s of %s: %w", n, meta.DataProvider, gerr.ErrNotFound)
		}
	}
	return nil
}

// locate returns the position of the row matching f in the current order
// together with the row itself.
func (s *Source) locate(ctx context.Context, meta data.MetaData, f data.Filter) (int, data.Record, error) {
	if f.Empty() {
		return -1, data.Record{}, &gerr.ConsistencyError{DataProvider: meta.DataProvider}
	}
	if err := checkColumns(meta, f.ColumnNames); err != nil {
		return -1, data.Record{}, err
	}
	query := "SELECT * FROM " + quote(meta.DataProvider) + s.orderBy(meta, s.sortOf(meta.DataProvider))
	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return -1, data.Record{}, fmt.Errorf("locating row in %s: %w", meta.DataProvider, err)
	}
	defer rows.Close()
	for i := 0; rows.Next(); i++ {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return -1, data.Record{}, err
		}
		rec := toRecord(row)
		if f.Matches(rec) {
			return i, rec, nil
		}
	}
	if err := rows.Err(); err != nil {
		return -1, data.Record{}, err
	}
	return -1, data.Record{}, &gerr.ConsistencyError{DataProvider: meta.DataProvider, Columns: f.ColumnNames, Values: f.Values}
}

func (s *Source) SelectRow(ctx context.Context, req remote.SelectRowRequest) (remote.SelectionResponse, error) {
	meta, err := s.metaData(ctx, req.DataProvider)
	if err != nil {
		return remote.SelectionResponse{}, err
	}
	idx, rec, err := s.locate(ctx, meta, req.Filter)
	sel := data.Selection{RowIndex: idx, Data: rec, SelectedColumn: req.SelectedColumn}
	if err != nil {
		sel = data.NoSelection()
	}
	s.mu.Lock()
	s.selections[req.DataProvider] = sel
	s.mu.Unlock()
	return remote.SelectionResponse{DataProvider: req.DataProvider, Selection: sel}, err
}

func (s *Source) SelectColumn(ctx context.Context, req remote.SelectColumnRequest) (remote.SelectionResponse, error) {
	meta, err := s.metaData(ctx, req.DataProvider)
	if err != nil {
		return remote.SelectionResponse{}, err
	}
	if err := checkColumns(meta, []string{req.SelectedColumn}); err != nil {
		return remote.SelectionResponse{}, err
	}
	s.mu.Lock()
	sel, ok := s.selections[req.DataProvider]
	if !ok {
		sel = data.NoSelection()
	}
	sel.SelectedColumn = req.SelectedColumn
	s.selections[req.DataProvider] = sel
	s.mu.Unlock()
	return remote.SelectionResponse{DataProvider: req.DataProvider, Selection: sel}, nil
}

func (s *Source) Sort(ctx context.Context, req remote.SortRequest) (remote.SortResponse, error) {
	meta, err := s.metaData(ctx, req.DataProvider)
	if err != nil {
		return remote.SortResponse{}, err
	}
	if err := req.SortDefinition.Validate(); err != nil {
		return remote.SortResponse{}, err
	}
	for _, e := range req.SortDefinition {
		if err := checkColumns(meta, []string{e.ColumnName}); err != nil {
			return remote.SortResponse{}, err
		}
	}
	s.mu.Lock()
	s.sorts[req.DataProvider] = req.SortDefinition.Clone()
	s.mu.Unlock()
	return remote.SortResponse{DataProvider: req.DataProvider, SortDefinition: req.SortDefinition.Clone()}, nil
}

func (s *Source) SetValues(ctx context.Context, req remote.SetValuesRequest) (remote.SetValuesResponse, error) {
	meta, err := s.metaData(ctx, req.DataProvider)
	if err != nil {
		return remote.SetValuesResponse{}, err
	}
	if len(req.ColumnNames) == 0 || len(req.ColumnNames) != len(req.Values) {
		return remote.SetValuesResponse{}, fmt.Errorf("%d columns but %d values", len(req.ColumnNames), len(req.Values))
	}
	sets := make([]string, len(req.ColumnNames))
	for i, name := range req.ColumnNames {
		col, ok := meta.Column(name)
		if !ok {
			return remote.SetValuesResponse{}, fmt.Errorf("column %s: %w", name, gerr.ErrNotFound)
		}
		if meta.Readonly || col.Readonly {
			return remote.SetValuesResponse{}, &gerr.ValidationError{Column: name, Reason: gerr.ErrReadonly.Error()}
		}
		if req.Values[i] == nil && !col.Nullable {
			return remote.SetValuesResponse{}, &gerr.ValidationError{Column: name, Reason: "value required"}
		}
		sets[i] = quote(name) + " = ?"
	}
	cond, condArgs := where(req.Filter)
	args := append(append([]any(nil), req.Values...), condArgs...)
	res, err := s.db.ExecContext(ctx, "UPDATE "+quote(req.DataProvider)+" SET "+strings.Join(sets, ", ")+cond, args...)
	if err != nil {
		return remote.SetValuesResponse{}, &gerr.ValidationError{Column: strings.Join(req.ColumnNames, ","), Reason: err.Error()}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return remote.SetValuesResponse{}, &gerr.ConsistencyError{DataProvider: req.DataProvider, Columns: req.Filter.ColumnNames, Values: req.Filter.Values}
	}

	// Key columns may have been rewritten.
	f := req.Filter
	next := data.Filter{ColumnNames: f.ColumnNames, Values: append([]any(nil), f.Values...)}
	for i, c := range next.ColumnNames {
		for j, name := range req.ColumnNames {
			if name == c {
				next.Values[i] = req.Values[j]
			}
		}
	}
	idx, rec, err := s.locate(ctx, meta, next)
	if err != nil {
		return remote.SetValuesResponse{}, err
	}
	s.refreshSelection(req.DataProvider, idx, rec)
	return remote.SetValuesResponse{DataProvider: req.DataProvider, RowIndex: idx, Record: rec}, nil
}

func (s *Source) refreshSelection(table string, idx int, rec data.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sel, ok := s.selections[table]; ok && sel.RowIndex == idx {
		sel.Data = rec
		s.selections[table] = sel
	}
}

func (s *Source) InsertRecord(ctx context.Context, req remote.InsertRecordRequest) (remote.RecordResponse, error) {
	meta, err := s.metaData(ctx, req.DataProvider)
	if err != nil {
		return remote.RecordResponse{}, err
	}
	if meta.Readonly || !meta.InsertEnabled {
		return remote.RecordResponse{}, fmt.Errorf("insert into %s: %w", req.DataProvider, gerr.ErrReadonly)
	}
	res, err := s.db.ExecContext(ctx, "INSERT INTO "+quote(req.DataProvider)+" DEFAULT VALUES")
	if err != nil {
		return remote.RecordResponse{}, fmt.Errorf("inserting into %s: %w", req.DataProvider, err)
	}
	rowid, err := res.LastInsertId()
	if err != nil {
		return remote.RecordResponse{}, err
	}
	recs, err := s.queryRecords(ctx, "SELECT * FROM "+quote(req.DataProvider)+" WHERE rowid = ?", rowid)
	if err != nil || len(recs) == 0 {
		return remote.RecordResponse{}, errors.Join(fmt.Errorf("reading inserted row of %s", req.DataProvider), err)
	}
	idx, rec, err := s.locate(ctx, meta, data.FilterFor(meta, recs[0]))
	if err != nil {
		return remote.RecordResponse{}, err
	}
	s.mu.Lock()
	s.selections[req.DataProvider] = data.Selection{RowIndex: idx, Data: rec}
	s.mu.Unlock()
	return remote.RecordResponse{DataProvider: req.DataProvider, RowIndex: idx, Record: rec}, nil
}

func (s *Source) DeleteRecord(ctx context.Context, req remote.DeleteRecordRequest) (remote.DeleteResponse, error) {
	meta, err := s.metaData(ctx, req.DataProvider)
	if err != nil {
		return remote.DeleteResponse{}, err
	}
	if meta.Readonly || !meta.DeleteEnabled {
		return remote.DeleteResponse{}, fmt.Errorf("delete from %s: %w", req.DataProvider, gerr.ErrReadonly)
	}
	idx, _, err := s.locate(ctx, meta, req.Filter)
	if err != nil {
		return remote.DeleteResponse{}, err
	}
	cond, args := where(req.Filter)
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+quote(req.DataProvider)+cond, args...); err != nil {
		return remote.DeleteResponse{}, fmt.Errorf("deleting from %s: %w", req.DataProvider, err)
	}
	s.mu.Lock()
	if sel, ok := s.selections[req.DataProvider]; ok {
		switch {
		case sel.RowIndex == idx:
			s.selections[req.DataProvider] = data.NoSelection()
		case sel.RowIndex > idx:
			sel.RowIndex--
			s.selections[req.DataProvider] = sel
		}
	}
	s.mu.Unlock()
	return remote.DeleteResponse{DataProvider: req.DataProvider, RowIndex: idx}, nil
}
