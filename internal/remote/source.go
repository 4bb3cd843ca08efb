// Package remote defines the contract between the grid and the remote data
// source, plus reference implementations: an in-memory source and a CBOR
// socket client/server pair.
package remote

import (
	"context"

	"github.com/nicobailon/remotegrid/internal/data"
)

type FetchRequest struct {
	DataProvider    string `json:"dataProvider"`
	FromRow         int    `json:"fromRow"`
	RowCount        int    `json:"rowCount"`
	IncludeMetaData bool   `json:"includeMetaData,omitempty"`
}

type FetchResponse struct {
	DataProvider string         `json:"dataProvider"`
	FromRow      int            `json:"fromRow"`
	Records      []data.Record  `json:"records"`
	AllFetched   bool           `json:"allFetched"`
	TotalRows    int            `json:"totalRows,omitempty"`
	MetaData     *data.MetaData `json:"metaData,omitempty"`
}

type SelectRowRequest struct {
	DataProvider   string      `json:"dataProvider"`
	ComponentID    string      `json:"componentId"`
	Filter         data.Filter `json:"filter"`
	SelectedColumn string      `json:"selectedColumn,omitempty"`
}

type SelectColumnRequest struct {
	DataProvider   string `json:"dataProvider"`
	ComponentID    string `json:"componentId"`
	SelectedColumn string `json:"selectedColumn"`
}

type SelectionResponse struct {
	DataProvider string         `json:"dataProvider"`
	Selection    data.Selection `json:"selection"`
}

type SortRequest struct {
	DataProvider   string              `json:"dataProvider"`
	SortDefinition data.SortDefinition `json:"sortDefinition"`
}

type SortResponse struct {
	DataProvider   string              `json:"dataProvider"`
	SortDefinition data.SortDefinition `json:"sortDefinition"`
}

type SetValuesRequest struct {
	DataProvider   string      `json:"dataProvider"`
	ComponentID    string      `json:"componentId"`
	Filter         data.Filter `json:"filter"`
	ColumnNames    []string    `json:"columnNames"`
	Values         []any       `json:"values"`
	PreviousValues []any       `json:"previousValues,omitempty"`
}

type SetValuesResponse struct {
	DataProvider string      `json:"dataProvider"`
	RowIndex     int         `json:"rowIndex"`
	Record       data.Record `json:"record"`
}

type InsertRecordRequest struct {
	DataProvider string `json:"dataProvider"`
	ComponentID  string `json:"componentId"`
}

type RecordResponse struct {
	DataProvider string      `json:"dataProvider"`
	RowIndex     int         `json:"rowIndex"`
	Record       data.Record `json:"record"`
}

type DeleteRecordRequest struct {
	DataProvider string      `json:"dataProvider"`
	ComponentID  string      `json:"componentId"`
	Filter       data.Filter `json:"filter"`
}

type DeleteResponse struct {
	DataProvider string `json:"dataProvider"`
	RowIndex     int    `json:"rowIndex"`
}

// Source is the remote data source. Calls may block on the network; the grid
// only invokes them from tea.Cmd functions, never on the UI loop.
type Source interface {
	Fetch(ctx context.Context, req FetchRequest) (FetchResponse, error)
	SelectRow(ctx context.Context, req SelectRowRequest) (SelectionResponse, error)
	SelectColumn(ctx context.Context, req SelectColumnRequest) (SelectionResponse, error)
	Sort(ctx context.Context, req SortRequest) (SortResponse, error)
	SetValues(ctx context.Context, req SetValuesRequest) (SetValuesResponse, error)
	InsertRecord(ctx context.Context, req InsertRecordRequest) (RecordResponse, error)
	DeleteRecord(ctx context.Context, req DeleteRecordRequest) (DeleteResponse, error)
}

// Catalog is implemented by sources that can enumerate their providers.
type Catalog interface {
	DataProviders(ctx context.Context) ([]string, error)
}
