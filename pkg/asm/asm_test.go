package asm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderInstr(t *testing.T) {
	line := &InstrLine{Op: "ADD", Operands: []Value{Reg("R0"), Reg("SP"), ImmInt(12)}}
	require.Equal(t, "ADD R0,SP,#12", line.Render())
}

func TestRenderMemoryOperands(t *testing.T) {
	require.Equal(t, "[SP+8]", MemOff("SP", "+", 8).Render())
	require.Equal(t, "[SP-4]", MemOff("SP", "-", 4).Render())
	require.Equal(t, "[R1]", Mem("R1").Render())
}

func TestRenderImmSpecial(t *testing.T) {
	require.Equal(t, "#.WriteSignedNum", ImmSpecial("WriteSignedNum").Render())
}

func TestLabelNameIsFixedWidthHex(t *testing.T) {
	l := NewLabel()
	name := l.Name()
	require.True(t, strings.HasPrefix(name, "label__"))
	require.Len(t, strings.TrimPrefix(name, "label__"), 32)
}

func TestCoalesceLabelsMergesAdjacentRuns(t *testing.T) {
	a, b, c := NewLabel(), NewLabel(), NewLabel()
	lines := []Line{
		&LabelLine{Label: a},
		&LabelLine{Label: b},
		&LabelLine{Label: c},
		&InstrLine{Op: "RET"},
	}
	out := CoalesceLabels(lines)
	require.Len(t, out, 2)
	require.Equal(t, a.Name(), out[0].(*LabelLine).Label.Name())
	// b and c were reassigned a's id, so any prior reference to them now
	// renders identically to a.
	require.Equal(t, a.Name(), b.Name())
	require.Equal(t, a.Name(), c.Name())
}

func TestCoalesceLabelsLeavesNoAdjacentLabels(t *testing.T) {
	a, b := NewLabel(), NewLabel()
	lines := []Line{
		&LabelLine{Label: a},
		&InstrLine{Op: "RET"},
		&LabelLine{Label: b},
		&InstrLine{Op: "HALT"},
	}
	out := CoalesceLabels(lines)
	require.Len(t, out, 4)
	for i := 0; i+1 < len(out); i++ {
		_, firstIsLabel := out[i].(*LabelLine)
		_, secondIsLabel := out[i+1].(*LabelLine)
		require.False(t, firstIsLabel && secondIsLabel, "adjacent labels at %d", i)
	}
}

func TestFinalizeRequiresMain(t *testing.T) {
	_, err := Finalize(nil, nil, nil, NewLabel())
	require.Error(t, err)
}

func TestFinalizeEndsWithHaltThenCopyRoutine(t *testing.T) {
	mainEntry := NewLabel()
	copyLabel := NewLabel()
	lines, err := Finalize(nil, nil, mainEntry, copyLabel)
	require.NoError(t, err)
	rendered := Serialize(lines)
	require.Contains(t, rendered, "HALT\n"+copyLabel.Name()+":")
	require.Contains(t, rendered, "MOV SP,#"+lines[len(lines)-1].(*LabelLine).Label.Name())
	require.Contains(t, rendered, "BL "+mainEntry.Name())
}

func TestEscapeString(t *testing.T) {
	require.Equal(t, `hi\n\t\\`, EscapeString("hi\n\t\\"))
}
