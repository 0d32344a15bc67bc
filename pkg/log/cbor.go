package log

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Trace files are a plain sequence of CBOR-encoded Events.
var (
	traceEnc = mustEncMode(cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeRFC3339Nano,
	})
	traceDec = mustDecMode(cbor.DecOptions{DupMapKey: cbor.DupMapKeyQuiet})
)

func mustEncMode(o cbor.EncOptions) cbor.EncMode {
	m, err := o.EncMode()
	if err != nil {
		panic("trace cbor encoder: " + err.Error())
	}
	return m
}

func mustDecMode(o cbor.DecOptions) cbor.DecMode {
	m, err := o.DecMode()
	if err != nil {
		panic("trace cbor decoder: " + err.Error())
	}
	return m
}

// NewEncoder creates a trace encoder writing to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return traceEnc.NewEncoder(w)
}

// NewDecoder creates a trace decoder reading from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return traceDec.NewDecoder(r)
}
