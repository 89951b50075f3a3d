package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func posInf() float64 { return math.Inf(1) }

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    IRValue
		expected string
	}{
		{"null", IRNull{}, "null"},
		{"nil interface", nil, "null"},
		{"string", IRString("hello"), `"hello"`},
		{"int", IRInt(42), "42"},
		{"min int64", IRInt(math.MinInt64), "-9223372036854775808"},
		{"float", IRFloat(1.5), "1.5"},
		{"integral float", IRFloat(100), "100"},
		{"negative zero", IRFloat(math.Copysign(0, -1)), "0"},
		{"large float", IRFloat(1e21), "1e+21"},
		{"small float", IRFloat(1.5e-7), "1.5e-7"},
		{"bool", IRBool(false), "false"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"nested keys sorted", IRObject{"z": IRObject{"b": IRInt(1), "a": IRInt(2)}, "a": IRInt(3)}, `{"a":3,"z":{"a":2,"b":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"html not escaped", "<a&b>", `"<a&b>"`},
		{"quote and backslash", `a"b\c`, `"a\"b\\c"`},
		{"newline and tab", "a\nb\tc", `"a\nb\tc"`},
		{"control char", "\x01", `"\u0001"`},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
		{"nfc normalized", "e\u0301", "\"\u00e9\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(IRString(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestMarshalCanonicalRejectsNaN(t *testing.T) {
	_, err := MarshalCanonical(IRObject{"x": IRFloat(math.NaN())})
	assert.Error(t, err)
}

func TestCanonicalStringUnencodable(t *testing.T) {
	assert.Contains(t, CanonicalString(IRFloat(math.NaN())), "unencodable")
	assert.Equal(t, `{"a":1}`, CanonicalString(IRObject{"a": IRInt(1)}))
}

func TestMarshalVerbatimKeepsStrings(t *testing.T) {
	decomposed := "Cafe\u0301"
	v := IRObject{
		"\u00e9":  IRString(decomposed),
		"e\u0301": IRInt(1),
	}

	data, err := MarshalVerbatim(v)
	require.NoError(t, err)

	back, err := UnmarshalIRValue(data)
	require.NoError(t, err)
	assert.True(t, Equal(v, back), "round trip changed %q", data)
	assert.Len(t, back.(IRObject), 2)

	canonical, err := MarshalCanonical(IRString(decomposed))
	require.NoError(t, err)
	assert.Equal(t, "\"Caf\u00e9\"", string(canonical))
}
