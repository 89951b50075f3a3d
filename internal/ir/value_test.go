package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("test")
	var _ IRValue = IRInt(42)
	var _ IRValue = IRFloat(1.5)
	var _ IRValue = IRBool(true)
	var _ IRValue = IRArray{IRString("a"), IRInt(1)}
	var _ IRValue = IRObject{"key": IRString("value")}
}

func TestIRObjectSortedKeysRFC8785Order(t *testing.T) {
	obj := IRObject{
		"a":  IRInt(1),
		"A":  IRInt(2),
		"aa": IRInt(3),
		"aA": IRInt(4),
		"Aa": IRInt(5),
		"AA": IRInt(6),
	}

	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, obj.SortedKeys())
}

func TestUnmarshalIRValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected IRValue
	}{
		{"null", `null`, IRNull{}},
		{"string", `"hi"`, IRString("hi")},
		{"int", `42`, IRInt(42)},
		{"negative int", `-7`, IRInt(-7)},
		{"float", `1.5`, IRFloat(1.5)},
		{"exponent is float", `1e3`, IRFloat(1000)},
		{"bool", `true`, IRBool(true)},
		{"array", `[1,"a",null]`, IRArray{IRInt(1), IRString("a"), IRNull{}}},
		{
			"nested object",
			`{"type":"pure","config":{"x":1,"tags":["a"]}}`,
			IRObject{
				"type":   IRString("pure"),
				"config": IRObject{"x": IRInt(1), "tags": IRArray{IRString("a")}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalIRValue([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestUnmarshalIRValueRejectsTrailingData(t *testing.T) {
	tests := []string{
		`{"a":1} {"b":2}`,
		`1 2`,
		`1}`,
		`[1]]`,
		`{"a":1}}`,
		`"x"]`,
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := UnmarshalIRValue([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalIRValueAllowsTrailingWhitespace(t *testing.T) {
	got, err := UnmarshalIRValue([]byte("[1]\n\t "))
	require.NoError(t, err)
	assert.Equal(t, IRArray{IRInt(1)}, got)
}

func TestIRObjectJSONRoundTrip(t *testing.T) {
	obj := Obj(
		O("type", IRString("eventListener")),
		O("config", Obj(O("id", IRString("keys")), O("ratio", IRFloat(0.25)))),
	)

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"config":{"id":"keys","ratio":0.25},"type":"eventListener"}`, string(data))

	var back IRObject
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, Equal(obj, back))
}

func TestMarshalIRValueRejectsNonFinite(t *testing.T) {
	_, err := MarshalIRValue(IRArray{IRFloat(posInf())})
	assert.Error(t, err)
}

func TestFromAny(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected IRValue
	}{
		{"nil", nil, IRNull{}},
		{"int", 3, IRInt(3)},
		{"integral float", 2.0, IRInt(2)},
		{"fractional float", 2.5, IRFloat(2.5)},
		{"json number", json.Number("12"), IRInt(12)},
		{"yaml map", map[string]any{"k": []any{"v", true}}, IRObject{"k": IRArray{IRString("v"), IRBool(true)}}},
		{"generic map", map[any]any{"k": 1}, IRObject{"k": IRInt(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFromAnyRejectsNonStringKeys(t *testing.T) {
	_, err := FromAny(map[any]any{1: "x"})
	assert.Error(t, err)
}

func TestToAny(t *testing.T) {
	v := IRObject{"a": IRArray{IRInt(1), IRFloat(0.5), IRNull{}}, "b": IRBool(false)}

	assert.Equal(t, map[string]any{
		"a": []any{int64(1), 0.5, nil},
		"b": false,
	}, ToAny(v))
}

func TestTagged(t *testing.T) {
	assert.Equal(t, IRObject{"type": IRString("none"), "config": IRNull{}}, Tagged("none", nil))
}
