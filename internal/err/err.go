package err

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError represents errors caused by bad flags, config file values or
// environment settings. They are reported before any grid is created.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// TransportError is a failed round trip to the remote data source. The grid
// treats the operation as not applied and keeps showing last-known-good data.
type TransportError struct {
	Op           string
	DataProvider string
	Err          error
}

func (e *TransportError) Error() string {
	if e.DataProvider != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.DataProvider, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError is an edit value that does not fit its column. Local parse
// failures never leave the client; the remote source may also reject a write
// with one.
type ValidationError struct {
	Column string
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("invalid value for %s: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("invalid value %q for %s: %s", e.Input, e.Column, e.Reason)
}

// ConsistencyError reports a selection whose target row no longer exists.
type ConsistencyError struct {
	DataProvider string
	Columns      []string
	Values       []any
}

func (e *ConsistencyError) Error() string {
	pairs := make([]string, 0, len(e.Columns))
	for i, c := range e.Columns {
		var v any
		if i < len(e.Values) {
			v = e.Values[i]
		}
		pairs = append(pairs, fmt.Sprintf("%s=%v", c, v))
	}
	return fmt.Sprintf("row %s not found in %s", strings.Join(pairs, ","), e.DataProvider)
}

// ErrNotFound is returned by sources for unknown data providers or rows.
var ErrNotFound = errors.New("not found")

// ErrReadonly is returned when writing to a read-only column or provider.
var ErrReadonly = errors.New("read only")

type ErrorsBucket struct {
	Msg    string
	Errors []error
}

func (e *ErrorsBucket) Error() string {
	s := e.Msg
	for _, err := range e.Errors {
		s += "\n\t" + err.Error()
	}
	return s
}

// Add appends err when it is non-nil.
func (e *ErrorsBucket) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// ErrOrNil returns the bucket when it holds at least one error.
func (e *ErrorsBucket) ErrOrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var t *TransportError
	return errors.As(err, &t)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
