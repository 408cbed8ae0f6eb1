package compiler

import (
	"sxc/pkg/asm"

	"tlog.app/go/errors"
)

// compileTypedInt compiles elem into offset and requires its result type to
// equal want; almost every operator in this file operates on int operands.
func (fg *FuncGen) compileTypedInt(elem *Element, offset int32, want *Type) (*Type, error) {
	t, err := fg.compile(elem, offset)
	if err != nil {
		return nil, err
	}
	eq, err := AreEqual(t, want)
	if err != nil {
		return nil, err
	}
	if !eq {
		return nil, errors.New("expected an int operand")
	}
	return t, nil
}

func (fg *FuncGen) compileVariadicArith(elem *Element, memoryStart int32, op string) (*Type, error) {
	args := elem.List[1:]
	if len(args) == 0 {
		return nil, errors.New("%s: expected at least one operand", op)
	}
	intType := fg.cg.types.IntType()
	if _, err := fg.compileTypedInt(args[0], memoryStart, intType); err != nil {
		return nil, err
	}

	if len(args) == 1 {
		if op == "-" {
			fg.emit("LDR", asm.Reg("R0"), slot(memoryStart))
			fg.emit("MOV", asm.Reg("R1"), asm.ImmInt(0))
			fg.emit("SUB", asm.Reg("R0"), asm.Reg("R1"), asm.Reg("R0"))
			fg.emit("STR", asm.Reg("R0"), slot(memoryStart))
		}
		return intType, nil
	}

	asmOp := "ADD"
	if op == "-" {
		asmOp = "SUB"
	}
	scratch := memoryStart + 4
	for _, a := range args[1:] {
		if _, err := fg.compileTypedInt(a, scratch, intType); err != nil {
			return nil, err
		}
		fg.emit("LDR", asm.Reg("R0"), slot(memoryStart))
		fg.emit("LDR", asm.Reg("R1"), slot(scratch))
		fg.emit(asmOp, asm.Reg("R0"), asm.Reg("R0"), asm.Reg("R1"))
		fg.emit("STR", asm.Reg("R0"), slot(memoryStart))
	}
	return intType, nil
}

func (fg *FuncGen) compileChainedArith(elem *Element, memoryStart int32, op string) (*Type, error) {
	args := elem.List[1:]
	if len(args) < 2 {
		return nil, errors.New("%s: expected at least two operands", op)
	}
	intType := fg.cg.types.IntType()
	if _, err := fg.compileTypedInt(args[0], memoryStart, intType); err != nil {
		return nil, err
	}
	scratch := memoryStart + 4
	for _, a := range args[1:] {
		if _, err := fg.compileTypedInt(a, scratch, intType); err != nil {
			return nil, err
		}
		fg.emit("LDR", asm.Reg("R0"), slot(memoryStart))
		fg.emit("LDR", asm.Reg("R1"), slot(scratch))
		switch op {
		case "*":
			fg.emitMultiply("R0", "R0", "R1")
		case "/":
			fg.emitDivMod("R0", "R0", "R1", false)
		case "%":
			fg.emitDivMod("R0", "R0", "R1", true)
		}
		fg.emit("STR", asm.Reg("R0"), slot(memoryStart))
	}
	return intType, nil
}

// emitRepeatedAdd accumulates accReg += addendReg, countReg times, by a
// genuine runtime loop rather than a compile-time unroll. countReg is left
// at zero; it is a scratch register by convention, not the caller's value.
func (fg *FuncGen) emitRepeatedAdd(accReg, countReg, addendReg string) {
	loop := asm.NewLabel()
	done := asm.NewLabel()
	fg.label(loop)
	fg.emit("CMP", asm.Reg(countReg), asm.ImmInt(0))
	fg.emit("BEQ", asm.ImmLabel(done))
	fg.emit("ADD", asm.Reg(accReg), asm.Reg(accReg), asm.Reg(addendReg))
	fg.emit("SUB", asm.Reg(countReg), asm.Reg(countReg), asm.ImmInt(1))
	fg.emit("B", asm.ImmLabel(loop))
	fg.label(done)
}

// emitAbs replaces reg's contents with its absolute value. Used by multiply
// and div/mod, which both run their repeated-add/subtract loop on magnitudes;
// div/mod reconstructs the sign of the result afterward, multiply does not.
func (fg *FuncGen) emitAbs(reg string) {
	neg := asm.NewLabel()
	done := asm.NewLabel()
	fg.emit("CMP", asm.Reg(reg), asm.ImmInt(0))
	fg.emit("BLT", asm.ImmLabel(neg))
	fg.emit("B", asm.ImmLabel(done))
	fg.label(neg)
	fg.emit("MOV", asm.Reg("R9"), asm.ImmInt(0))
	fg.emit("SUB", asm.Reg(reg), asm.Reg("R9"), asm.Reg(reg))
	fg.label(done)
}

// emitMultiply computes |aReg| * |bReg| into dst via a repeated-add loop;
// the target mnemonic set has no MUL. Sign is never reapplied.
func (fg *FuncGen) emitMultiply(dst, aReg, bReg string) {
	fg.emitAbs(aReg)
	fg.emitAbs(bReg)
	fg.emit("MOV", asm.Reg("R3"), asm.ImmInt(0))
	fg.emitRepeatedAdd("R3", bReg, aReg)
	fg.emit("MOV", asm.Reg(dst), asm.Reg("R3"))
}

// emitDivMod computes aReg / bReg (or the remainder) into dst via repeated
// subtraction on magnitudes; the target mnemonic set has no DIV. Unlike
// multiply, division tracks the sign of each operand (in R3, as the xor of
// the two) and reapplies it to the result — only multiply drops the sign
// entirely.
func (fg *FuncGen) emitDivMod(dst, aReg, bReg string, wantRemainder bool) {
	fg.emit("MOV", asm.Reg("R3"), asm.ImmInt(0))
	negA, contA := asm.NewLabel(), asm.NewLabel()
	fg.emit("CMP", asm.Reg(aReg), asm.ImmInt(0))
	fg.emit("BLT", asm.ImmLabel(negA))
	fg.emit("B", asm.ImmLabel(contA))
	fg.label(negA)
	fg.emit("MOV", asm.Reg("R3"), asm.ImmInt(1))
	fg.label(contA)

	negB, contB := asm.NewLabel(), asm.NewLabel()
	fg.emit("CMP", asm.Reg(bReg), asm.ImmInt(0))
	fg.emit("BLT", asm.ImmLabel(negB))
	fg.emit("B", asm.ImmLabel(contB))
	fg.label(negB)
	fg.emit("XOR", asm.Reg("R3"), asm.Reg("R3"), asm.ImmInt(1))
	fg.label(contB)

	fg.emitAbs(aReg)
	fg.emitAbs(bReg)
	fg.emit("MOV", asm.Reg("R5"), asm.Reg(aReg))
	fg.emit("MOV", asm.Reg("R6"), asm.ImmInt(0))
	loop := asm.NewLabel()
	done := asm.NewLabel()
	fg.label(loop)
	fg.emit("CMP", asm.Reg("R5"), asm.Reg(bReg))
	fg.emit("BLT", asm.ImmLabel(done))
	fg.emit("SUB", asm.Reg("R5"), asm.Reg("R5"), asm.Reg(bReg))
	fg.emit("ADD", asm.Reg("R6"), asm.Reg("R6"), asm.ImmInt(1))
	fg.emit("B", asm.ImmLabel(loop))
	fg.label(done)

	resultReg := "R6"
	if wantRemainder {
		resultReg = "R5"
	}
	skipNeg := asm.NewLabel()
	fg.emit("CMP", asm.Reg("R3"), asm.ImmInt(0))
	fg.emit("BEQ", asm.ImmLabel(skipNeg))
	fg.emit("MOV", asm.Reg("R7"), asm.ImmInt(0))
	fg.emit("SUB", asm.Reg(resultReg), asm.Reg("R7"), asm.Reg(resultReg))
	fg.label(skipNeg)
	fg.emit("MOV", asm.Reg(dst), asm.Reg(resultReg))
}

func (fg *FuncGen) compileComparison(elem *Element, memoryStart int32, op string) (*Type, error) {
	if len(elem.List) != 3 {
		return nil, errors.New("%s: expected exactly two operands", op)
	}
	intType := fg.cg.types.IntType()
	if _, err := fg.compileTypedInt(elem.List[1], memoryStart, intType); err != nil {
		return nil, err
	}
	rhsOffset := memoryStart + 4
	if _, err := fg.compileTypedInt(elem.List[2], rhsOffset, intType); err != nil {
		return nil, err
	}
	fg.emit("LDR", asm.Reg("R0"), slot(memoryStart))
	fg.emit("LDR", asm.Reg("R1"), slot(rhsOffset))
	fg.emit("CMP", asm.Reg("R0"), asm.Reg("R1"))

	// BLE/BGE don't exist in the target mnemonic set; synthesize them as
	// the inverse of BGT/BLT via emitBoolFromBranch's invert flag.
	switch op {
	case "<":
		fg.emitBoolFromBranch("BLT", false, memoryStart)
	case ">":
		fg.emitBoolFromBranch("BGT", false, memoryStart)
	case "<=":
		fg.emitBoolFromBranch("BGT", true, memoryStart)
	case ">=":
		fg.emitBoolFromBranch("BLT", true, memoryStart)
	}
	return intType, nil
}

// emitBoolFromBranch assumes a CMP has just executed. If branchOp's
// condition holds, the boolean result is 1 (or 0 if invert); otherwise 0
// (or 1 if invert). Leaves the result in R0 and stores it at dest.
func (fg *FuncGen) emitBoolFromBranch(branchOp string, invert bool, dest int32) {
	taken := asm.NewLabel()
	end := asm.NewLabel()
	fg.emit(branchOp, asm.ImmLabel(taken))
	notTaken, takenVal := int32(0), int32(1)
	if invert {
		notTaken, takenVal = 1, 0
	}
	fg.emit("MOV", asm.Reg("R0"), asm.ImmInt(notTaken))
	fg.emit("B", asm.ImmLabel(end))
	fg.label(taken)
	fg.emit("MOV", asm.Reg("R0"), asm.ImmInt(takenVal))
	fg.label(end)
	fg.emit("STR", asm.Reg("R0"), slot(dest))
}

// compileEquality implements `==`/`!=`. The right operand's slot is always
// placed wordBytes(size) past the left operand's — the same contiguous,
// word-aligned stride used for every other operator's second operand —
// rather than a slot placed exactly `size` bytes over. Size-0 types compare
// trivially equal; size-4-or-smaller scalars compare with one CMP; larger
// types compare byte-by-byte with early exit on mismatch.
func (fg *FuncGen) compileEquality(elem *Element, memoryStart int32, op string) (*Type, error) {
	if len(elem.List) != 3 {
		return nil, errors.New("%s: expected exactly two operands", op)
	}
	lt, err := fg.compile(elem.List[1], memoryStart)
	if err != nil {
		return nil, err
	}
	rhsOffset := memoryStart + wordBytes(lt.Size())
	rt, err := fg.compile(elem.List[2], rhsOffset)
	if err != nil {
		return nil, err
	}
	eq, err := AreEqual(lt, rt)
	if err != nil {
		return nil, err
	}
	if !eq {
		return nil, errors.New("%s: operand types differ", op)
	}

	size := lt.Size()
	fg.emit("MOV", asm.Reg("R3"), asm.ImmInt(1))

	switch {
	case size == 0:
		// trivially equal; nothing to compare.
	case size <= 4:
		fg.emit("LDR", asm.Reg("R0"), slot(memoryStart))
		fg.emit("LDR", asm.Reg("R1"), slot(rhsOffset))
		fg.emit("CMP", asm.Reg("R0"), asm.Reg("R1"))
		cont := asm.NewLabel()
		fg.emit("BEQ", asm.ImmLabel(cont))
		fg.emit("MOV", asm.Reg("R3"), asm.ImmInt(0))
		fg.label(cont)
	default:
		fg.addrOfSlot("R0", memoryStart)
		fg.addrOfSlot("R1", rhsOffset)
		fg.emit("MOV", asm.Reg("R2"), asm.ImmInt(size))
		loop := asm.NewLabel()
		mismatch := asm.NewLabel()
		done := asm.NewLabel()
		fg.label(loop)
		fg.emit("CMP", asm.Reg("R2"), asm.ImmInt(0))
		fg.emit("BEQ", asm.ImmLabel(done))
		fg.emit("LDRB", asm.Reg("R4"), asm.Mem("R0"))
		fg.emit("LDRB", asm.Reg("R5"), asm.Mem("R1"))
		fg.emit("CMP", asm.Reg("R4"), asm.Reg("R5"))
		fg.emit("BNE", asm.ImmLabel(mismatch))
		fg.emit("ADD", asm.Reg("R0"), asm.Reg("R0"), asm.ImmInt(1))
		fg.emit("ADD", asm.Reg("R1"), asm.Reg("R1"), asm.ImmInt(1))
		fg.emit("SUB", asm.Reg("R2"), asm.Reg("R2"), asm.ImmInt(1))
		fg.emit("B", asm.ImmLabel(loop))
		fg.label(mismatch)
		fg.emit("MOV", asm.Reg("R3"), asm.ImmInt(0))
		fg.label(done)
	}

	if op == "!=" {
		fg.emit("MOV", asm.Reg("R6"), asm.ImmInt(1))
		fg.emit("SUB", asm.Reg("R3"), asm.Reg("R6"), asm.Reg("R3"))
	}
	fg.emit("STR", asm.Reg("R3"), slot(memoryStart))
	fg.emit("LDR", asm.Reg("R0"), slot(memoryStart))
	return fg.cg.types.IntType(), nil
}

// compileLogical short-circuits: `&&` skips the right operand once the left
// is false, `||` skips it once the left is true. The result is whichever
// operand's value decided the expression, not a normalized 0/1.
func (fg *FuncGen) compileLogical(elem *Element, memoryStart int32, op string) (*Type, error) {
	if len(elem.List) != 3 {
		return nil, errors.New("%s: expected exactly two operands", op)
	}
	intType := fg.cg.types.IntType()
	if _, err := fg.compileTypedInt(elem.List[1], memoryStart, intType); err != nil {
		return nil, err
	}
	fg.emit("CMP", asm.Reg("R0"), asm.ImmInt(0))
	skip := asm.NewLabel()
	if op == "&&" {
		fg.emit("BEQ", asm.ImmLabel(skip))
	} else {
		fg.emit("BNE", asm.ImmLabel(skip))
	}
	if _, err := fg.compileTypedInt(elem.List[2], memoryStart, intType); err != nil {
		return nil, err
	}
	fg.label(skip)
	fg.emit("LDR", asm.Reg("R0"), slot(memoryStart))
	return intType, nil
}

func (fg *FuncGen) compileBitwise(elem *Element, memoryStart int32, op string) (*Type, error) {
	args := elem.List[1:]
	if len(args) < 2 {
		return nil, errors.New("%s: expected at least two operands", op)
	}
	asmOps := map[string]string{"&": "AND", "|": "OR", "^": "XOR"}
	asmOp := asmOps[op]

	intType := fg.cg.types.IntType()
	if _, err := fg.compileTypedInt(args[0], memoryStart, intType); err != nil {
		return nil, err
	}
	scratch := memoryStart + 4
	for _, a := range args[1:] {
		if _, err := fg.compileTypedInt(a, scratch, intType); err != nil {
			return nil, err
		}
		fg.emit("LDR", asm.Reg("R0"), slot(memoryStart))
		fg.emit("LDR", asm.Reg("R1"), slot(scratch))
		fg.emit(asmOp, asm.Reg("R0"), asm.Reg("R0"), asm.Reg("R1"))
		fg.emit("STR", asm.Reg("R0"), slot(memoryStart))
	}
	return intType, nil
}

func (fg *FuncGen) compileShift(elem *Element, memoryStart int32, op string) (*Type, error) {
	if len(elem.List) != 3 {
		return nil, errors.New("%s: expected exactly two operands", op)
	}
	intType := fg.cg.types.IntType()
	if _, err := fg.compileTypedInt(elem.List[1], memoryStart, intType); err != nil {
		return nil, err
	}
	shOffset := memoryStart + 4
	if _, err := fg.compileTypedInt(elem.List[2], shOffset, intType); err != nil {
		return nil, err
	}
	fg.emit("LDR", asm.Reg("R0"), slot(memoryStart))
	fg.emit("LDR", asm.Reg("R1"), slot(shOffset))
	switch op {
	case "<<":
		fg.emit("LSL", asm.Reg("R0"), asm.Reg("R0"), asm.Reg("R1"))
	case ">>>":
		fg.emit("LSR", asm.Reg("R0"), asm.Reg("R0"), asm.Reg("R1"))
	case ">>":
		fg.emitArithmeticShiftRight("R0", "R1")
	}
	fg.emit("STR", asm.Reg("R0"), slot(memoryStart))
	return intType, nil
}

// emitArithmeticShiftRight realizes a sign-preserving shift from only a
// logical LSR: a negative value is shifted as NOT, LSR, NOT (NOT is XOR
// against all-ones); a non-negative value takes a plain LSR.
func (fg *FuncGen) emitArithmeticShiftRight(valReg, shiftReg string) {
	neg := asm.NewLabel()
	done := asm.NewLabel()
	fg.emit("CMP", asm.Reg(valReg), asm.ImmInt(0))
	fg.emit("BLT", asm.ImmLabel(neg))
	fg.emit("LSR", asm.Reg(valReg), asm.Reg(valReg), asm.Reg(shiftReg))
	fg.emit("B", asm.ImmLabel(done))
	fg.label(neg)
	fg.emit("MOV", asm.Reg("R8"), asm.ImmInt(-1))
	fg.emit("XOR", asm.Reg(valReg), asm.Reg(valReg), asm.Reg("R8"))
	fg.emit("LSR", asm.Reg(valReg), asm.Reg(valReg), asm.Reg(shiftReg))
	fg.emit("XOR", asm.Reg(valReg), asm.Reg(valReg), asm.Reg("R8"))
	fg.label(done)
}

func (fg *FuncGen) compileNot(elem *Element, memoryStart int32) (*Type, error) {
	if len(elem.List) != 2 {
		return nil, errors.New("!: expected exactly one operand")
	}
	intType := fg.cg.types.IntType()
	if _, err := fg.compileTypedInt(elem.List[1], memoryStart, intType); err != nil {
		return nil, err
	}
	fg.emit("LDR", asm.Reg("R0"), slot(memoryStart))
	fg.emit("CMP", asm.Reg("R0"), asm.ImmInt(0))
	fg.emitBoolFromBranch("BEQ", false, memoryStart)
	return intType, nil
}

func (fg *FuncGen) compileSizeOf(elem *Element, memoryStart int32) (*Type, error) {
	if len(elem.List) != 2 {
		return nil, errors.New("size_of: expected one type operand")
	}
	t, err := ConstructType(fg.cg.types, elem.List[1], true, true)
	if err != nil {
		return nil, errors.Wrap(err, "size_of")
	}
	if t == nil {
		return nil, errors.New("size_of: unknown type")
	}
	fg.emit("MOV", asm.Reg("R0"), asm.ImmInt(t.Size()))
	fg.emit("STR", asm.Reg("R0"), slot(memoryStart))
	return fg.cg.types.IntType(), nil
}

// compileSizeOfValue still compiles its operand, so any side effects in the
// expression run, but only its static type's size is kept as the result.
func (fg *FuncGen) compileSizeOfValue(elem *Element, memoryStart int32) (*Type, error) {
	if len(elem.List) != 2 {
		return nil, errors.New("size_of_value: expected one operand")
	}
	scratch := memoryStart + 4
	t, err := fg.compile(elem.List[1], scratch)
	if err != nil {
		return nil, err
	}
	fg.emit("MOV", asm.Reg("R0"), asm.ImmInt(t.Size()))
	fg.emit("STR", asm.Reg("R0"), slot(memoryStart))
	return fg.cg.types.IntType(), nil
}
