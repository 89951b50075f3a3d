// Package codec is the JSON helper shared by effect handlers: failures
// are logged once here and returned as typed errors.
package codec

import (
	"github.com/roach88/boundary/internal/ir"
	"github.com/roach88/boundary/internal/logging"
)

// JSON decodes and encodes IR values, logging every failure.
type JSON struct {
	log *logging.Logger
}

// New creates a JSON helper. A nil logger discards output.
func New(log *logging.Logger) *JSON {
	if log == nil {
		log = logging.Nop()
	}
	return &JSON{log: log}
}

// Decode parses s. On failure it logs an error and returns a
// RuntimeError with code JSON_DECODE_FAILURE.
func (j *JSON) Decode(s string) (ir.IRValue, error) {
	v, err := ir.UnmarshalIRValue([]byte(s))
	if err != nil {
		j.log.Error(logging.Core, "failed to parse json", "string", s, "error", err)
		return nil, ir.NewRuntimeError(ir.ErrCodeJSONDecodeFailure, "failed to parse json", err)
	}
	return v, nil
}

// Encode serializes v with sorted keys and strings left untouched. On
// failure it logs an error and returns a RuntimeError with code
// JSON_ENCODE_FAILURE.
func (j *JSON) Encode(v ir.IRValue) (string, error) {
	b, err := ir.MarshalVerbatim(v)
	if err != nil {
		j.log.Error(logging.Core, "failed to stringify data into json", "error", err)
		return "", ir.NewRuntimeError(ir.ErrCodeJSONEncodeFailure, "failed to stringify data into json", err)
	}
	return string(b), nil
}
