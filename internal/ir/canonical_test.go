package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalSortsKeys(t *testing.T) {
	obj := IRObject{
		"zebra": IRInt(1),
		"alpha": IRInt(2),
	}

	out, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"zebra":1}`, string(out))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	out, err := MarshalCanonical(IRString("a < b && c > d"))
	require.NoError(t, err)
	assert.Equal(t, `"a < b && c > d"`, string(out))
}

func TestMarshalCanonicalRejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(3.14)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are forbidden")
}

func TestMarshalCanonicalRejectsNull(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	// Literal U+2028 must survive unescaped; a backslash followed by the
	// text "u2028" must stay escaped.
	out, err := MarshalCanonical(IRString("a b"))
	require.NoError(t, err)
	assert.Equal(t, "\"a b\"", string(out))

	out, err = MarshalCanonical(IRString("a\\u2028b"))
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(out))
}

func TestMarshalCanonicalPlainGoValues(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{
		"name":  "pred",
		"arity": 1,
		"pure":  true,
		"tags":  []any{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"arity":1,"name":"pred","pure":true,"tags":["a","b"]}`, string(out))
}

func TestToIRValueRejectsFloatsAndNil(t *testing.T) {
	_, err := ToIRValue(1.5)
	assert.Error(t, err)

	_, err = ToIRValue(nil)
	assert.Error(t, err)

	_, err = ToIRValue(map[string]any{"x": 2.5})
	assert.Error(t, err)
}

func TestSortedKeysUTF16Order(t *testing.T) {
	// U+1D306 (surrogate pair in UTF-16) sorts after U+FB01 under UTF-16
	// code unit order even though its code point is higher than a BMP char;
	// the high surrogate 0xD834 is less than 0xFB01.
	obj := IRObject{
		"\U0001D306": IRInt(1), // surrogate pair D834 DF06
		"ﬁ":          IRInt(2), // single unit FB01
	}

	keys := obj.SortedKeys()
	assert.Equal(t, []string{"\U0001D306", "ﬁ"}, keys)
}
