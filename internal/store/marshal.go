package store

import (
	"fmt"

	"github.com/roach88/boundary/internal/ir"
)

// marshalDetail converts an IR value to canonical JSON TEXT for storage.
// A nil detail is stored as null.
func marshalDetail(v ir.IRValue) (string, error) {
	if v == nil {
		v = ir.IRNull{}
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal detail: %w", err)
	}
	return string(data), nil
}

// unmarshalDetail parses stored JSON TEXT. Large integers survive the
// round trip because ir.UnmarshalIRValue decodes numbers as json.Number.
func unmarshalDetail(data string) (ir.IRValue, error) {
	if data == "" {
		return ir.IRNull{}, nil
	}
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal detail: %w", err)
	}
	return v, nil
}
