package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func parseSrc(t *testing.T, src string) *Element {
	t.Helper()
	toks, err := Lex(src)
	require.NoError(t, err)
	root, err := Parse(toks)
	require.NoError(t, err)
	return root
}

func TestParseNestedLists(t *testing.T) {
	root := parseSrc(t, "[add 1 [mul 2 3]]")
	require.Len(t, root.List, 1)
	top := root.List[0]
	require.Equal(t, EList, top.Kind)
	require.Len(t, top.List, 3)
	require.Equal(t, "add", top.List[0].Word)
	require.Equal(t, EInt, top.List[1].Kind)
	require.Equal(t, int32(1), top.List[1].Int)
	inner := top.List[2]
	require.Equal(t, "mul", inner.List[0].Word)
}

func TestParseUnclosedBracketErrors(t *testing.T) {
	toks, err := Lex("[add 1 2")
	require.NoError(t, err)
	_, err = Parse(toks)
	require.Error(t, err)
}

func TestParseUnexpectedCloseBracketErrors(t *testing.T) {
	toks, err := Lex("]")
	require.NoError(t, err)
	_, err = Parse(toks)
	require.Error(t, err)
}

func TestParseStringAndCharLiterals(t *testing.T) {
	root := parseSrc(t, `["hi" 'x']`)
	list := root.List[0]
	require.Equal(t, EString, list.List[0].Kind)
	require.Equal(t, "hi", list.List[0].Str)
	require.Equal(t, EChar, list.List[1].Kind)
	require.Equal(t, 'x', list.List[1].Char)
}

func TestParseNegativeHexLiteral(t *testing.T) {
	root := parseSrc(t, "[-32xFF]")
	require.Equal(t, EInt, root.List[0].List[0].Kind)
	require.Equal(t, int32(-255), root.List[0].List[0].Int)
}

func TestParseBinLiteral(t *testing.T) {
	root := parseSrc(t, "[8b1010]")
	require.Equal(t, int32(10), root.List[0].List[0].Int)
}

// round-trip property: parse(lex(x.String())) produces the same AST shape
// as x, for a handful of representative elements.
func TestParseStringRoundTrip(t *testing.T) {
	cases := []*Element{
		intEl(42),
		wordEl("foo"),
		stringEl("hello world"),
		charEl('z'),
		listEl(wordEl("add"), intEl(1), intEl(2)),
		listEl(wordEl("do"), listEl(), listEl(intEl(1))),
	}
	for _, original := range cases {
		src := original.String()
		toks, err := Lex(src)
		require.NoError(t, err)
		root, err := Parse(toks)
		require.NoError(t, err)
		require.Len(t, root.List, 1)
		require.Equal(t, original.String(), root.List[0].String())
	}
}
