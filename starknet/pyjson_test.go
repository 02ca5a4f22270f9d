package starknet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPythonJSON(t *testing.T) {
	for _, test := range []struct {
		Name string
		In   string
		Out  string
	}{{
		Name: "separators",
		In:   `[{"b":1,"a":[true,false,null]},{}]`,
		Out:  `[{"b": 1, "a": [true, false, null]}, {}]`,
	}, {
		Name: "indented input",
		In: `[
  {
    "type": "function",
    "name": "transfer",
    "inputs": []
  }
]`,
		Out: `[{"type": "function", "name": "transfer", "inputs": []}]`,
	}, {
		Name: "escapes",
		In:   `["é\n\u0001\"/","😀"]`,
		Out:  `["\u00e9\n\u0001\"/", "\ud83d\ude00"]`,
	}, {
		Name: "nested empty",
		In:   `{"a":{"b":[]},"c":[[],[1]]}`,
		Out:  `{"a": {"b": []}, "c": [[], [1]]}`,
	}} {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			out, err := pythonJSON([]byte(test.In))
			require.NoError(t, err)
			assert.Equal(t, test.Out, out)
		})
	}

	_, err := pythonJSON([]byte(`[1,`))
	assert.Error(t, err)
}

func TestPythonJSONSorted(t *testing.T) {
	var v interface{}
	require.NoError(t, decodeNumbers(
		[]byte(`{"z":1,"a":{"y":"é","b":[2, -10]}}`), &v))
	out, err := pythonJSONSorted(v)
	require.NoError(t, err)
	assert.Equal(t, `{"a": {"b": [2, -10], "y": "\u00e9"}, "z": 1}`, out)
}

func TestPythonJSONSortedIntKeys(t *testing.T) {
	var v map[string]interface{}
	require.NoError(t, decodeNumbers(
		[]byte(`{"hints":{"10":"c","2":"b","0":"a"},"b":{"10":1,"2":2}}`), &v))
	v["hints"] = intKeyed(v["hints"].(map[string]interface{}))
	out, err := pythonJSONSorted(v)
	require.NoError(t, err)
	assert.Equal(t,
		`{"b": {"10": 1, "2": 2}, "hints": {"0": "a", "2": "b", "10": "c"}}`,
		out)
}

func TestSpaceCairoTypes(t *testing.T) {
	var v interface{}
	require.NoError(t, decodeNumbers([]byte(`{"members":{"x":{
		"cairo_type":"(a: felt, b : felt)","value":"c: d","n":{"value":5},
		"code":"x: y"}}}`), &v))
	spaceCairoTypes(v)
	out, err := pythonJSONSorted(v)
	require.NoError(t, err)
	assert.Equal(t, `{"members": {"x": {"cairo_type": "(a : felt, b : felt)", `+
		`"code": "x: y", "n": {"value": 5}, "value": "c : d"}}}`, out)
}
