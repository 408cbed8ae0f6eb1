package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func typeExpr(t *testing.T, src string) *Element {
	t.Helper()
	root := parseSrc(t, src)
	require.Len(t, root.List, 1)
	return root.List[0]
}

func TestConstructTypeNamedBuiltin(t *testing.T) {
	tbl := NewTypeTable()
	typ, err := ConstructType(tbl, typeExpr(t, "int"), true, true)
	require.NoError(t, err)
	require.Equal(t, KInt, typ.Kind)
}

func TestConstructTypePtr(t *testing.T) {
	tbl := NewTypeTable()
	typ, err := ConstructType(tbl, typeExpr(t, "[ptr int]"), true, true)
	require.NoError(t, err)
	require.Equal(t, KPtr, typ.Kind)
	require.Equal(t, KInt, typ.Elem.Kind)
	require.Equal(t, int32(4), typ.Size())
}

func TestConstructTypeArray(t *testing.T) {
	tbl := NewTypeTable()
	typ, err := ConstructType(tbl, typeExpr(t, "[array char 10]"), true, true)
	require.NoError(t, err)
	require.Equal(t, KArray, typ.Kind)
	require.Equal(t, int32(10), typ.Size())
}

func TestConstructTypeStructFieldPositions(t *testing.T) {
	tbl := NewTypeTable()
	typ, err := ConstructType(tbl, typeExpr(t, "[struct [[[char] a] [[int] b]]]"), true, true)
	require.NoError(t, err)
	require.Equal(t, KStruct, typ.Kind)
	require.Len(t, typ.Fields, 2)
	require.Equal(t, int32(0), typ.Fields[0].Position)
	// char is 1 byte but the next field's position starts on a word boundary.
	require.Equal(t, int32(4), typ.Fields[1].Position)
	// the struct's overall size is the raw, unaligned sum of field sizes,
	// not the word-aligned sum its field positions step by.
	require.Equal(t, int32(5), typ.Size())
}

func TestConstructTypeBracketedNameIsSameAsBareName(t *testing.T) {
	tbl := NewTypeTable()
	bare, err := ConstructType(tbl, typeExpr(t, "int"), true, true)
	require.NoError(t, err)
	bracketed, err := ConstructType(tbl, typeExpr(t, "[int]"), true, true)
	require.NoError(t, err)
	require.Same(t, bare, bracketed)
}

func TestConstructTypeUnknownNameDefersAsNilNil(t *testing.T) {
	tbl := NewTypeTable()
	typ, err := ConstructType(tbl, typeExpr(t, "not_yet_declared"), false, false)
	require.NoError(t, err)
	require.Nil(t, typ)
}

func TestResolveTypesForwardReference(t *testing.T) {
	tbl := NewTypeTable()
	decls := parseSrc(t, "[[a [ptr b]] [b [struct [[int x]]]]]").List[0]
	err := ResolveTypes(tbl, decls)
	require.NoError(t, err)

	a, ok := tbl.Get("a")
	require.True(t, ok)
	require.Equal(t, KPtr, a.Kind)
	require.Equal(t, KStruct, a.Elem.Kind)
}

func TestResolveTypesSelfReferentialStructDoesNotInfiniteLoop(t *testing.T) {
	tbl := NewTypeTable()
	decls := parseSrc(t, "[[node [struct [[int val] [[ptr node] next]]]]]").List[0]
	err := ResolveTypes(tbl, decls)
	require.NoError(t, err)

	node, ok := tbl.Get("node")
	require.True(t, ok)
	require.Equal(t, KStruct, node.Kind)
	next, ok := findField(node, "next")
	require.True(t, ok)
	require.Equal(t, KPtr, next.Type.Kind)
	require.Equal(t, KStruct, next.Type.Elem.Kind)
	require.Equal(t, "node", next.Type.Elem.Name)
}

func TestResolveTypesUnresolvablePointerTargetErrors(t *testing.T) {
	tbl := NewTypeTable()
	decls := parseSrc(t, "[[a [ptr never_declared]]]").List[0]
	err := ResolveTypes(tbl, decls)
	require.Error(t, err)
}

func TestAreEqualByName(t *testing.T) {
	tbl := NewTypeTable()
	eq, err := AreEqual(tbl.IntType(), tbl.IntType())
	require.NoError(t, err)
	require.True(t, eq)

	eq, err = AreEqual(tbl.IntType(), tbl.CharType())
	require.NoError(t, err)
	require.False(t, eq)
}

func TestAreEqualStructural(t *testing.T) {
	a := &Type{Kind: KPtr, Elem: &Type{Kind: KInt, Name: "int"}}
	b := &Type{Kind: KPtr, Elem: &Type{Kind: KInt, Name: "int"}}
	eq, err := AreEqual(a, b)
	require.NoError(t, err)
	require.True(t, eq)
}

func TestAreEqualUnresolvedErrors(t *testing.T) {
	unresolved := &Type{Kind: KUnresolved}
	_, err := AreEqual(unresolved, unresolved)
	require.Error(t, err)
}

func TestWordBytesRoundsUp(t *testing.T) {
	require.Equal(t, int32(0), wordBytes(0))
	require.Equal(t, int32(4), wordBytes(1))
	require.Equal(t, int32(4), wordBytes(4))
	require.Equal(t, int32(8), wordBytes(5))
}
