package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileCharAssignmentAndPrint(t *testing.T) {
	src := `[] [[[void] main [] [do [ [[char] x] ] [ [<- x 'b'] [print $x] [return] ] ] ]]`
	out, err := Compile(src)
	require.NoError(t, err)
	require.Contains(t, out, "MOV R0,#98")
	require.Contains(t, out, "STRB R0,[SP+")
	require.Contains(t, out, "STRB R0,#.WriteChar")
	require.Contains(t, out, "HALT")
	require.Contains(t, out, "label__")
}

func TestCompileStructFieldStoreAndReturn(t *testing.T) {
	src := `[ [Pair [struct [ [[int] a] [[int] b] ]]] ] [[[int] main [] [do [ [[Pair] p] ] [ [<- [. p a] 5] [return [$ [. p a]]] ]]]]`
	out, err := Compile(src)
	require.NoError(t, err)
	require.Contains(t, out, "STR")
}

func TestCompileSelfReferentialStructResolves(t *testing.T) {
	src := `[ [Node [struct [ [[int] v] [[ptr Node] n] ]]] ] [[[void] main [] [return]]]`
	out, err := Compile(src)
	require.NoError(t, err)
	require.Contains(t, out, "HALT")
}

func TestCompileVariadicAddReturnsRepeatedAddPattern(t *testing.T) {
	src := `[] [[[int] main [] [return [+ 1 2 3]]]]`
	out, err := Compile(src)
	require.NoError(t, err)
	require.Contains(t, out, "ADD R0,R0,R1")
}

func TestCompileWhileLoopHasBackEdge(t *testing.T) {
	src := `[] [[[void] main [] [do [ [[int] i] ] [ [<- i 0] [while [< $i 3] [do [[print $i] [<- i [+ $i 1]]]]] [return] ]]]]`
	out, err := Compile(src)
	require.NoError(t, err)
	require.Contains(t, out, "label__")
	require.Contains(t, out, "B label__")
}

func TestCompileVoidMainSucceeds(t *testing.T) {
	src := `[] [[[void] main [] [return]]]`
	_, err := Compile(src)
	require.NoError(t, err)
}

func TestCompileWithoutMainFails(t *testing.T) {
	src := `[] [[[void] notMain [] [return]]]`
	_, err := Compile(src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no main")
}

func TestCompileMalformedRootErrors(t *testing.T) {
	_, err := Compile(`[[[void] main [] [return]]]`)
	require.Error(t, err)
}

func TestCompileDuplicateFunctionNameErrors(t *testing.T) {
	src := `[] [[[void] main [] [return]] [[void] main [] [return]]]`
	_, err := Compile(src)
	require.Error(t, err)
}

func TestCompileUndefinedVariableErrors(t *testing.T) {
	src := `[] [[[void] main [] [print $missing]]]`
	_, err := Compile(src)
	require.Error(t, err)
}
