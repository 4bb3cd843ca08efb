package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	gerr "github.com/nicobailon/remotegrid/internal/err"
	"github.com/nicobailon/remotegrid/internal/log"
)

// Actions understood by Server.
const (
	ActionFetch         = "fetch"
	ActionSelectRow     = "selectRow"
	ActionSelectColumn  = "selectColumn"
	ActionSort          = "sort"
	ActionSetValues     = "setValues"
	ActionInsertRecord  = "insertRecord"
	ActionDeleteRecord  = "deleteRecord"
	ActionDataProviders = "dataProviders"
)

const (
	dialTimeout    = 5 * time.Second
	readTimeout    = 30 * time.Second
	writeTimeout   = 10 * time.Second
	maxMessageSize = 16 * 1024 * 1024
)

// Request is the envelope of one call. Data holds the action-specific
// request struct.
type Request struct {
	ID     string          `cbor:"id"`
	Action string          `cbor:"action"`
	Data   cbor.RawMessage `cbor:"data,omitempty"`
}

// Response answers exactly one Request.
type Response struct {
	ID    string          `cbor:"id"`
	OK    bool            `cbor:"ok"`
	Error string          `cbor:"error,omitempty"`
	Fault *Fault          `cbor:"fault,omitempty"`
	Data  cbor.RawMessage `cbor:"data,omitempty"`
}

// Fault carries enough of a typed error for the client to rebuild it.
type Fault struct {
	Kind         string   `cbor:"kind"`
	Column       string   `cbor:"column,omitempty"`
	Input        string   `cbor:"input,omitempty"`
	Reason       string   `cbor:"reason,omitempty"`
	DataProvider string   `cbor:"dataProvider,omitempty"`
	Columns      []string `cbor:"columns,omitempty"`
	Values       []any    `cbor:"values,omitempty"`
}

const (
	faultValidation  = "validation"
	faultConsistency = "consistency"
	faultNotFound    = "notFound"
	faultReadonly    = "readonly"
)

func faultFor(err error) *Fault {
	var v *gerr.ValidationError
	var c *gerr.ConsistencyError
	switch {
	case errors.As(err, &v):
		return &Fault{Kind: faultValidation, Column: v.Column, Input: v.Input, Reason: v.Reason}
	case errors.As(err, &c):
		return &Fault{Kind: faultConsistency, DataProvider: c.DataProvider, Columns: c.Columns, Values: c.Values}
	case errors.Is(err, gerr.ErrReadonly):
		return &Fault{Kind: faultReadonly}
	case errors.Is(err, gerr.ErrNotFound):
		return &Fault{Kind: faultNotFound}
	}
	return nil
}

// RemoteError is a failure reported by the server that has no typed
// counterpart on the client.
type RemoteError struct {
	Action  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error on %q: %s", e.Action, e.Message)
}

func (r *Response) err(action string) error {
	if r.Fault != nil {
		switch r.Fault.Kind {
		case faultValidation:
			return &gerr.ValidationError{Column: r.Fault.Column, Input: r.Fault.Input, Reason: r.Fault.Reason}
		case faultConsistency:
			return &gerr.ConsistencyError{DataProvider: r.Fault.DataProvider, Columns: r.Fault.Columns, Values: r.Fault.Values}
		case faultReadonly:
			return fmt.Errorf("%s: %w", r.Error, gerr.ErrReadonly)
		case faultNotFound:
			return fmt.Errorf("%s: %w", r.Error, gerr.ErrNotFound)
		}
	}
	return &RemoteError{Action: action, Message: r.Error}
}

type handlerFunc func(ctx context.Context, raw []byte) (any, error)

// Server exposes a Source over a CBOR request-response protocol. Each
// connection carries one request and one response.
type Server struct {
	handlers map[string]handlerFunc
	logger   *slog.Logger
	active   sync.WaitGroup
}

// decodeInto adapts a typed Source method to a handlerFunc.
func decodeInto[Req, Resp any](fn func(context.Context, Req) (Resp, error)) handlerFunc {
	return func(ctx context.Context, raw []byte) (any, error) {
		var req Req
		if len(raw) > 0 {
			if err := unmarshal(raw, &req); err != nil {
				return nil, fmt.Errorf("invalid request: %w", err)
			}
		}
		return fn(ctx, req)
	}
}

func NewServer(src Source, logger *slog.Logger) *Server {
	s := &Server{handlers: make(map[string]handlerFunc), logger: logger}
	s.handlers[ActionFetch] = decodeInto(src.Fetch)
	s.handlers[ActionSelectRow] = decodeInto(src.SelectRow)
	s.handlers[ActionSelectColumn] = decodeInto(src.SelectColumn)
	s.handlers[ActionSort] = decodeInto(src.Sort)
	s.handlers[ActionSetValues] = decodeInto(src.SetValues)
	s.handlers[ActionInsertRecord] = decodeInto(src.InsertRecord)
	s.handlers[ActionDeleteRecord] = decodeInto(src.DeleteRecord)
	if cat, ok := src.(Catalog); ok {
		s.handlers[ActionDataProviders] = func(ctx context.Context, _ []byte) (any, error) {
			return cat.DataProviders(ctx)
		}
	}
	return s
}

// Serve accepts connections until ctx is cancelled, then waits for active
// handlers to finish.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("grid source listening", "addr", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		s.active.Add(1)
		go func() {
			defer s.active.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.active.Wait()
	return nil
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(readTimeout))

	var req Request
	if err := newDecoder(io.LimitReader(conn, maxMessageSize)).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		s.write(conn, Response{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	handler, ok := s.handlers[req.Action]
	if !ok {
		s.write(conn, Response{ID: req.ID, Error: fmt.Sprintf("unknown action %q", req.Action)})
		return
	}

	start := time.Now()
	result, err := handler(ctx, req.Data)
	s.logger.Debug("handled request", "id", req.ID, "action", req.Action, "duration", time.Since(start), "error", err)
	if err != nil {
		s.write(conn, Response{ID: req.ID, Error: err.Error(), Fault: faultFor(err)})
		return
	}

	data, err := marshal(result)
	if err != nil {
		s.write(conn, Response{ID: req.ID, Error: fmt.Sprintf("internal: marshaling response: %v", err)})
		return
	}
	s.write(conn, Response{ID: req.ID, OK: true, Data: data})
}

func (s *Server) write(conn net.Conn, resp Response) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := newEncoder(conn).Encode(resp); err != nil {
		s.logger.Debug("failed to write response", "id", resp.ID, "error", err)
	}
}

// Client is a Source backed by a Server. Addresses of the form
// "unix:/path/to.sock" dial a Unix socket, anything else dials TCP.
type Client struct {
	network string
	address string
	logger  *slog.Logger
}

func NewClient(addr string, logger *slog.Logger) *Client {
	network, address := "tcp", addr
	if rest, ok := strings.CutPrefix(addr, "unix:"); ok {
		network, address = "unix", strings.TrimPrefix(rest, "//")
	}
	return &Client{network: network, address: address, logger: logger}
}

func call[Req, Resp any](ctx context.Context, c *Client, action, provider string, req Req) (Resp, error) {
	var out Resp
	payload, err := marshal(req)
	if err != nil {
		return out, fmt.Errorf("encoding %s request: %w", action, err)
	}
	envelope := Request{ID: uuid.NewString(), Action: action, Data: payload}
	c.logger.Log(ctx, log.LevelTrace, "sending request", "id", envelope.ID, "action", action, "provider", provider)

	resp, err := c.send(ctx, envelope)
	if err != nil {
		return out, &gerr.TransportError{Op: action, DataProvider: provider, Err: err}
	}
	if !resp.OK {
		return out, resp.err(action)
	}
	if len(resp.Data) > 0 {
		if err := unmarshal(resp.Data, &out); err != nil {
			return out, &gerr.TransportError{Op: action, DataProvider: provider, Err: fmt.Errorf("decoding response: %w", err)}
		}
	}
	return out, nil
}

func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, c.network, c.address)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(readTimeout + writeTimeout))
	}
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	if err := newEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}
	var resp Response
	if err := newDecoder(io.LimitReader(conn, maxMessageSize)).Decode(&resp); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.ID != "" && resp.ID != req.ID {
		return nil, fmt.Errorf("response %s does not answer request %s", resp.ID, req.ID)
	}
	return &resp, nil
}

func (c *Client) Fetch(ctx context.Context, req FetchRequest) (FetchResponse, error) {
	return call[FetchRequest, FetchResponse](ctx, c, ActionFetch, req.DataProvider, req)
}

func (c *Client) SelectRow(ctx context.Context, req SelectRowRequest) (SelectionResponse, error) {
	return call[SelectRowRequest, SelectionResponse](ctx, c, ActionSelectRow, req.DataProvider, req)
}

func (c *Client) SelectColumn(ctx context.Context, req SelectColumnRequest) (SelectionResponse, error) {
	return call[SelectColumnRequest, SelectionResponse](ctx, c, ActionSelectColumn, req.DataProvider, req)
}

func (c *Client) Sort(ctx context.Context, req SortRequest) (SortResponse, error) {
	return call[SortRequest, SortResponse](ctx, c, ActionSort, req.DataProvider, req)
}

func (c *Client) SetValues(ctx context.Context, req SetValuesRequest) (SetValuesResponse, error) {
	return call[SetValuesRequest, SetValuesResponse](ctx, c, ActionSetValues, req.DataProvider, req)
}

func (c *Client) InsertRecord(ctx context.Context, req InsertRecordRequest) (RecordResponse, error) {
	return call[InsertRecordRequest, RecordResponse](ctx, c, ActionInsertRecord, req.DataProvider, req)
}

func (c *Client) DeleteRecord(ctx context.Context, req DeleteRecordRequest) (DeleteResponse, error) {
	return call[DeleteRecordRequest, DeleteResponse](ctx, c, ActionDeleteRecord, req.DataProvider, req)
}

func (c *Client) DataProviders(ctx context.Context) ([]string, error) {
	return call[struct{}, []string](ctx, c, ActionDataProviders, "", struct{}{})
}
