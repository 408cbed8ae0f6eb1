package asm

import "strconv"

// Value is a closed variant over the operand forms the target syntax
// accepts: a bare register, an immediate constant, or a memory reference.
type Value interface {
	Render() string
}

// RegValue names a register by its target-assembly name (PC, LR, SP, R0..R12).
type RegValue struct {
	Name string
}

func (r RegValue) Render() string { return r.Name }

// Reg builds a register operand.
func Reg(name string) Value { return RegValue{Name: name} }

// ImmValue is an immediate operand, rendered with a leading '#'.
type ImmValue struct {
	Const ConstantValue
}

func (i ImmValue) Render() string { return "#" + i.Const.Render() }

// ImmInt builds an immediate integer operand.
func ImmInt(n int32) Value { return ImmValue{Const: IntConst{N: n}} }

// ImmLabel builds an immediate operand referring to a label's address. As
// the target of a branch instruction it renders without the '#' (see
// InstrLine.Render).
func ImmLabel(l *Label) Value { return ImmValue{Const: LabelConst{L: l}} }

// ImmSpecial builds an immediate operand naming an MMIO special constant.
// name excludes the leading dot; Render adds it back.
func ImmSpecial(name string) Value { return ImmValue{Const: SpecialConst{Name: name}} }

// MemValue is a bracketed memory operand.
type MemValue struct {
	Loc MemoryLocation
}

func (m MemValue) Render() string { return "[" + m.Loc.Render() + "]" }

// Mem builds a bare register-indirect memory operand: [base].
func Mem(base string) Value { return MemValue{Loc: regLocation(base, "", 0, "")} }

// MemOff builds a register+immediate-offset memory operand: [base+n] / [base-n].
func MemOff(base, sign string, n int32) Value {
	return MemValue{Loc: regLocation(base, sign, n, "")}
}

// MemOffReg builds a register+register-offset memory operand: [base+reg] / [base-reg].
func MemOffReg(base, sign, reg string) Value {
	return MemValue{Loc: regLocation(base, sign, 0, reg)}
}

// ConstantValue is a closed variant over what an immediate can carry.
type ConstantValue interface {
	Render() string
}

// IntConst is a plain decimal integer constant.
type IntConst struct {
	N int32
}

func (c IntConst) Render() string { return strconv.FormatInt(int64(c.N), 10) }

// LabelConst is a reference to a label's external name.
type LabelConst struct {
	L *Label
}

func (c LabelConst) Render() string { return c.L.Name() }

// SpecialConst is a reference to a named MMIO location used as a value.
type SpecialConst struct {
	Name string
}

func (c SpecialConst) Render() string { return "." + c.Name }
