package asm

import (
	"tlog.app/go/errors"
)

// Finalize assembles the complete program listing: entry sequence, the
// shared copy subroutine, every function body, the data-literal stream,
// an alignment directive, and a trailing stack-top label that SP is
// initialized from. It then coalesces adjacent labels before returning.
func Finalize(code, data []Line, mainEntry, copyLabel *Label) ([]Line, error) {
	if mainEntry == nil {
		return nil, errors.New("no main function defined")
	}

	stackLabel := NewLabel()

	lines := make([]Line, 0, len(code)+len(data)+16)
	lines = append(lines,
		&InstrLine{Op: "MOV", Operands: []Value{Reg("SP"), ImmLabel(stackLabel)}},
		&InstrLine{Op: "BL", Operands: []Value{ImmLabel(mainEntry)}},
		&InstrLine{Op: "HALT"},
	)
	lines = append(lines, copySubroutine(copyLabel)...)
	lines = append(lines, code...)
	lines = append(lines, data...)
	lines = append(lines, &AlignLine{N: 4})
	lines = append(lines, &LabelLine{Label: stackLabel})

	return CoalesceLabels(lines), nil
}

// copySubroutine emits the generic byte-copy helper reachable by BL at
// copyLabel. Inputs: R0=src, R1=dst, R2=count; clobbers R0-R3.
func copySubroutine(copyLabel *Label) []Line {
	loop := NewLabel()
	done := NewLabel()
	return []Line{
		&LabelLine{Label: copyLabel},
		&LabelLine{Label: loop},
		&InstrLine{Op: "CMP", Operands: []Value{Reg("R2"), ImmInt(0)}},
		&InstrLine{Op: "BEQ", Operands: []Value{ImmLabel(done)}},
		&InstrLine{Op: "LDRB", Operands: []Value{Reg("R3"), Mem("R0")}},
		&InstrLine{Op: "STRB", Operands: []Value{Reg("R3"), Mem("R1")}},
		&InstrLine{Op: "ADD", Operands: []Value{Reg("R0"), Reg("R0"), ImmInt(1)}},
		&InstrLine{Op: "ADD", Operands: []Value{Reg("R1"), Reg("R1"), ImmInt(1)}},
		&InstrLine{Op: "SUB", Operands: []Value{Reg("R2"), Reg("R2"), ImmInt(1)}},
		&InstrLine{Op: "B", Operands: []Value{ImmLabel(loop)}},
		&LabelLine{Label: done},
		&InstrLine{Op: "RET"},
	}
}
