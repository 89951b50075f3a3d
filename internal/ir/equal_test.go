package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name  string
		a, b  IRValue
		equal bool
	}{
		{"nil and null", nil, IRNull{}, true},
		{"null and string", IRNull{}, IRString(""), false},
		{"same strings", IRString("a"), IRString("a"), true},
		{"int and float same value", IRInt(2), IRFloat(2), true},
		{"int and float differ", IRInt(2), IRFloat(2.5), false},
		{"bool vs int", IRBool(true), IRInt(1), false},
		{"array order matters", IRArray{IRInt(1), IRInt(2)}, IRArray{IRInt(2), IRInt(1)}, false},
		{"array lengths differ", IRArray{IRInt(1)}, IRArray{IRInt(1), IRInt(1)}, false},
		{"object key order irrelevant", Obj(O("a", IRInt(1)), O("b", IRInt(2))), Obj(O("b", IRInt(2)), O("a", IRInt(1))), true},
		{"object missing key", IRObject{"a": IRNull{}}, IRObject{"b": IRNull{}}, false},
		{"nested difference", IRObject{"x": IRArray{IRObject{"y": IRInt(1)}}}, IRObject{"x": IRArray{IRObject{"y": IRInt(2)}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, Equal(tt.a, tt.b))
			assert.Equal(t, tt.equal, Equal(tt.b, tt.a))
		})
	}
}

func TestEqualFreshlyDecoded(t *testing.T) {
	original := IRObject{"type": IRString("pure"), "config": IRObject{"x": IRInt(1)}}
	data, err := MarshalCanonical(original)
	require.NoError(t, err)

	decoded, err := UnmarshalIRValue(data)
	require.NoError(t, err)

	assert.True(t, Equal(original, decoded))
}

func TestReplacePlaceholder(t *testing.T) {
	msg := IRObject{
		"type": IRString("valueChanged"),
		"config": IRObject{
			"value": IRString(CaptureValue),
			"list":  IRArray{IRString(CaptureValue), IRString("keep")},
		},
	}

	got := ReplacePlaceholder(msg, IRInt(7))

	assert.Equal(t, IRObject{
		"type": IRString("valueChanged"),
		"config": IRObject{
			"value": IRInt(7),
			"list":  IRArray{IRInt(7), IRString("keep")},
		},
	}, got)
	// the input is untouched
	assert.Equal(t, IRString(CaptureValue), msg["config"].(IRObject)["value"])
}

func TestReplacePlaceholderNonObject(t *testing.T) {
	assert.Equal(t, IRString(CaptureValue), ReplacePlaceholder(IRString(CaptureValue), IRInt(1)))
	assert.Equal(t, IRObject{"v": IRNull{}}, ReplacePlaceholder(IRObject{"v": IRString(CaptureValue)}, nil))
}
