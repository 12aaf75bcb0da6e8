package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRString("test")
	var _ IRValue = IRInt(42)
	var _ IRValue = IRBool(true)
	var _ IRValue = IRArray{IRString("a"), IRInt(1)}
	var _ IRValue = IRObject{"key": IRString("value")}
}

func TestIRObjectSortedKeys(t *testing.T) {
	obj := IRObject{
		"zebra":  IRString("z"),
		"apple":  IRString("a"),
		"banana": IRString("b"),
	}
	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())
	assert.Empty(t, IRObject{}.SortedKeys())
}

func TestSortedKeysUTF16Order(t *testing.T) {
	// U+FF61 is a single UTF-16 unit (0xFF61); U+10000 encodes as the
	// surrogate pair 0xD800 0xDC00. UTF-16 puts U+10000 first, UTF-8 the
	// other way round.
	obj := IRObject{
		"\uFF61":     IRInt(1),
		"\U00010000": IRInt(2),
	}
	assert.Equal(t, []string{"\U00010000", "\uFF61"}, obj.SortedKeys())
}

func TestCompareKeysRFC8785(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"a", "b", -1},
		{"b", "a", 1},
		{"a", "a", 0},
		{"a", "aa", -1},
		{"A", "a", -1},
		{"", "a", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, compareKeysRFC8785(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestMarshalIRObjectKeyOrder(t *testing.T) {
	obj := IRObject{"b": IRInt(1), "a": IRArray{IRBool(true), IRString("x")}}
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":[true,"x"],"b":1}`, string(data))
}

func TestMarshalIRValueRoundTrip(t *testing.T) {
	values := []IRValue{
		IRString("hello"),
		IRInt(-7),
		IRBool(false),
		IRArray{IRInt(1), IRString("two")},
		IRObject{"moment": IRString("2024-03-10T12:00:00.000Z")},
	}
	for _, v := range values {
		data, err := MarshalIRValue(v)
		require.NoError(t, err)

		back, err := UnmarshalIRValue(data)
		require.NoError(t, err)
		assert.Equal(t, v, back)
	}
}

func TestUnmarshalRejectsFloatsAndNull(t *testing.T) {
	for _, input := range []string{`1.5`, `1e3`, `{"a":2.0}`, `[1,2.5]`, `null`, `{"a":null}`} {
		t.Run(input, func(t *testing.T) {
			_, err := UnmarshalIRValue([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestIRObjectUnmarshalJSON(t *testing.T) {
	var obj IRObject
	require.NoError(t, json.Unmarshal([]byte(`{"n":3,"s":"x"}`), &obj))
	assert.Equal(t, IRObject{"n": IRInt(3), "s": IRString("x")}, obj)

	var arr IRArray
	require.NoError(t, json.Unmarshal([]byte(`[true]`), &arr))
	assert.Equal(t, IRArray{IRBool(true)}, arr)

	assert.Error(t, json.Unmarshal([]byte(`[1]`), &obj))
}
