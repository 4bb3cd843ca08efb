package err

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransportErrorUnwraps(t *testing.T) {
	base := errors.New("connection reset")
	wrapped := fmt.Errorf("fetch rows: %w", &TransportError{Op: "fetch", DataProvider: "orders", Err: base})

	require.True(t, IsTransport(wrapped))
	require.False(t, IsValidation(wrapped))
	require.ErrorIs(t, wrapped, base)
	require.Equal(t, "fetch rows: fetch orders: connection reset", wrapped.Error())
}

func TestConsistencyErrorMessage(t *testing.T) {
	e := &ConsistencyError{DataProvider: "orders", Columns: []string{"ID", "REGION"}, Values: []any{7, "EU"}}
	require.Equal(t, "row ID=7,REGION=EU not found in orders", e.Error())
}

func TestErrorsBucket(t *testing.T) {
	var b ErrorsBucket
	b.Msg = "seed failed"
	require.NoError(t, b.ErrOrNil())

	b.Add(nil)
	b.Add(&ValidationError{Column: "AMOUNT", Input: "x", Reason: "not a number"})
	require.Error(t, b.ErrOrNil())
	require.Equal(t, "seed failed\n\tinvalid value \"x\" for AMOUNT: not a number", b.Error())
}
