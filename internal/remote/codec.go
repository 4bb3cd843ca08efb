package remote

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode writes Core Deterministic CBOR. Text marshalers (editor kinds, sort
// directions) travel as text strings and times as tagged RFC 3339 strings so
// that cell values keep their type across the wire.
var encMode cbor.EncMode

// decMode decodes untyped cell values into map[string]any, int64 and
// time.Time, which is what the grid compares against.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encOptions.Time = cbor.TimeRFC3339Nano
	encOptions.TimeTag = cbor.EncTagRequired
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("remote: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
		IntDec:          cbor.IntDecConvertSigned,
	}.DecMode()
	if err != nil {
		panic("remote: CBOR decoder initialization failed: " + err.Error())
	}
}

func marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

func unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

func newEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

func newDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}
