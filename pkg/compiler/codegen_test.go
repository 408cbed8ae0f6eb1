package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileIntLiteralStoresAndLeavesR0(t *testing.T) {
	out, err := Compile(`[] [[[int] main [] [return 42]]]`)
	require.NoError(t, err)
	require.Contains(t, out, "MOV R0,#42")
}

func TestCompileMultiplyDropsSign(t *testing.T) {
	out, err := Compile(`[] [[[int] main [] [return [* 3 4]]]]`)
	require.NoError(t, err)
	// multiply never reapplies the sign: no negation after the repeated-add loop.
	require.Contains(t, out, "ADD R3,R3,R0")
}

func TestCompileDivModTracksSignInR3(t *testing.T) {
	out, err := Compile(`[] [[[int] main [] [return [/ 10 3]]]]`)
	require.NoError(t, err)
	require.Contains(t, out, "XOR R3,R3,#1")
}

func TestCompileComparisonSynthesizesLEFromGT(t *testing.T) {
	out, err := Compile(`[] [[[int] main [] [return [<= 1 2]]]]`)
	require.NoError(t, err)
	require.Contains(t, out, "BGT")
}

func TestCompileShiftRightArithmeticUsesNotLsrNot(t *testing.T) {
	out, err := Compile(`[] [[[int] main [] [return [>> 8 1]]]]`)
	require.NoError(t, err)
	require.Contains(t, out, "LSR")
	require.Contains(t, out, "MOV R8,#-1")
}

func TestCompileSizeOfIsCompileTimeConstant(t *testing.T) {
	out, err := Compile(`[] [[[int] main [] [return [size_of int]]]]`)
	require.NoError(t, err)
	require.Contains(t, out, "MOV R0,#4")
}

func TestCompileSizeOfCharIsOne(t *testing.T) {
	out, err := Compile(`[] [[[int] main [] [return [size_of char]]]]`)
	require.NoError(t, err)
	require.Contains(t, out, "MOV R0,#1")
}

func TestCompileIfWithElse(t *testing.T) {
	out, err := Compile(`[] [[[int] main [] [do [[[int] r]] [ [if [== 1 1] [<- r 1] [<- r 0]] [return $r] ]]]]`)
	require.NoError(t, err)
	require.Contains(t, out, "BEQ")
}

func TestCompileCallPassesArguments(t *testing.T) {
	src := `[] [[[int] double [[[int] x]] [return [+ $x $x]]] [[int] main [] [return [double 21]]]]`
	out, err := Compile(src)
	require.NoError(t, err)
	require.Contains(t, out, "BL")
}

func TestCompileCallArgumentCountMismatchErrors(t *testing.T) {
	src := `[] [[[int] double [[[int] x]] [return $x]] [[int] main [] [return [double]]]]`
	_, err := Compile(src)
	require.Error(t, err)
}

func TestCompilePointerOffsetScalesByElementSize(t *testing.T) {
	src := `[] [[[int] main [] [do [ [[ptr [array int 4]] a] ] [ [return [$ [@@ $a 1]]] ] ]]]`
	out, err := Compile(src)
	require.NoError(t, err)
	require.Contains(t, out, "MOV R2,#4")
}

func TestCompileCastDiscardsOriginalType(t *testing.T) {
	_, err := Compile(`[] [[[int] main [] [return [cast int 5]]]]`)
	require.NoError(t, err)
}

func TestCompileCastUnknownTypeErrors(t *testing.T) {
	_, err := Compile(`[] [[[int] main [] [return [cast not_a_type 5]]]]`)
	require.Error(t, err)
}

func TestCompileEqualitySizeFourUsesSingleCMP(t *testing.T) {
	out, err := Compile(`[] [[[int] main [] [return [== 1 1]]]]`)
	require.NoError(t, err)
	require.Contains(t, out, "CMP R0,R1")
}

func TestCompileEqualityStructUsesByteLoop(t *testing.T) {
	src := `[ [Pair [struct [[[int] a] [[int] b]]]] ] [[[int] main [] [do [[[Pair] p] [[Pair] q]] [ [return [== $p $q]] ] ]]]`
	out, err := Compile(src)
	require.NoError(t, err)
	require.Contains(t, out, "LDRB")
}

func TestCompileNotNegatesIntResult(t *testing.T) {
	out, err := Compile(`[] [[[int] main [] [return [! 0]]]]`)
	require.NoError(t, err)
	require.Contains(t, out, "BEQ")
}

func TestCompileLogicalShortCircuitsAnd(t *testing.T) {
	out, err := Compile(`[] [[[int] main [] [return [&& 0 1]]]]`)
	require.NoError(t, err)
	require.Contains(t, out, "BEQ")
}

func TestCompileTernaryRequiresMatchingBranchTypes(t *testing.T) {
	_, err := Compile(`[] [[[int] main [] [return [? 1 1 'a]]]]`)
	require.Error(t, err)
}

func TestCompileReturnTypeMismatchErrors(t *testing.T) {
	_, err := Compile(`[] [[[int] main [] [return 'a]]]`)
	require.Error(t, err)
}

func TestCompileStoreTypeMismatchErrors(t *testing.T) {
	src := `[] [[[void] main [] [do [[[ptr int] p]] [ [<- p 'a] [return] ] ]]]`
	_, err := Compile(src)
	require.Error(t, err)
}
