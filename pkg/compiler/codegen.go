package compiler

import (
	"sxc/pkg/asm"

	"tlog.app/go/errors"
)

// CodeGen accumulates the target code and data streams for an entire
// program. One CodeGen is shared by every FuncGen spawned for the
// program's functions.
type CodeGen struct {
	types *TypeTable
	funcs *FunctionTable

	code []asm.Line
	data []asm.Line

	copyLabel *asm.Label
}

func newCodeGen(types *TypeTable, funcs *FunctionTable) *CodeGen {
	return &CodeGen{types: types, funcs: funcs, copyLabel: asm.NewLabel()}
}

// Generate walks every registered function in declaration order and
// returns the accumulated code and data streams.
func (cg *CodeGen) Generate() ([]asm.Line, []asm.Line, error) {
	for _, fn := range cg.funcs.All() {
		if err := cg.generateFunction(fn); err != nil {
			return nil, nil, errors.Wrap(err, "function %q", fn.Name)
		}
	}
	return cg.code, cg.data, nil
}

func (cg *CodeGen) generateFunction(fn *Function) error {
	fg := &FuncGen{cg: cg, fn: fn}
	fg.pushScope()
	defer fg.popScope()

	for _, p := range fn.Params {
		fg.declareVar(p.Name, p.Type, p.Position)
	}

	fg.label(fn.Entry)
	retSize := fn.ReturnType.Size()
	fg.emit("STR", asm.Reg("LR"), asm.MemOff("SP", "+", retSize))

	bodyStart := retSize + 4
	for _, p := range fn.Params {
		bodyStart += wordBytes(p.Type.Size())
	}
	_, err := fg.compile(fn.Body, bodyStart)
	return err
}

// FuncGen generates code for a single function body. It owns the variable
// scope stack; emitted lines are appended directly to the shared CodeGen.
type FuncGen struct {
	cg     *CodeGen
	fn     *Function
	scopes []map[string]varEntry
}

type varEntry struct {
	typ *Type
	pos int32
}

func (fg *FuncGen) pushScope() { fg.scopes = append(fg.scopes, map[string]varEntry{}) }
func (fg *FuncGen) popScope()  { fg.scopes = fg.scopes[:len(fg.scopes)-1] }

func (fg *FuncGen) declareVar(name string, t *Type, pos int32) {
	fg.scopes[len(fg.scopes)-1][name] = varEntry{typ: t, pos: pos}
}

func (fg *FuncGen) lookupVar(name string) (varEntry, bool) {
	for i := len(fg.scopes) - 1; i >= 0; i-- {
		if v, ok := fg.scopes[i][name]; ok {
			return v, true
		}
	}
	return varEntry{}, false
}

func (fg *FuncGen) emit(op string, operands ...asm.Value) {
	fg.cg.code = append(fg.cg.code, &asm.InstrLine{Op: op, Operands: operands})
}

func (fg *FuncGen) label(l *asm.Label) {
	fg.cg.code = append(fg.cg.code, &asm.LabelLine{Label: l})
}

func (fg *FuncGen) addrOfSlot(reg string, offset int32) {
	fg.emit("ADD", asm.Reg(reg), asm.Reg("SP"), asm.ImmInt(offset))
}

func slot(offset int32) asm.Value { return asm.MemOff("SP", "+", offset) }

// emitCopy calls the shared copy subroutine: src/dst are frame offsets of
// the current function, size is a compile-time-known byte count. The copy
// subroutine clobbers R0-R3, so this reloads R0 from the destination
// afterward to preserve the convention that scalar results end up in R0.
func (fg *FuncGen) emitCopy(srcOffset, dstOffset, size int32) {
	fg.addrOfSlot("R0", srcOffset)
	fg.addrOfSlot("R1", dstOffset)
	fg.emit("MOV", asm.Reg("R2"), asm.ImmInt(size))
	fg.emit("BL", asm.ImmLabel(fg.cg.copyLabel))
	switch {
	case size >= 4:
		fg.emit("LDR", asm.Reg("R0"), slot(dstOffset))
	case size == 1:
		fg.emit("LDRB", asm.Reg("R0"), slot(dstOffset))
	}
}

// compile is the single recursive expression compiler every per-form
// emitter is built from. It writes the result's bytes to [SP+memoryStart]
// and, for scalar results, also leaves them in R0.
func (fg *FuncGen) compile(elem *Element, memoryStart int32) (*Type, error) {
	switch elem.Kind {
	case EInt:
		return fg.compileIntLiteral(elem, memoryStart)
	case EFloat:
		return nil, errors.New("floating-point code generation is not implemented")
	case EChar:
		return fg.compileCharLiteral(elem, memoryStart)
	case EString:
		return fg.compileStringLiteral(elem, memoryStart)
	case EWord:
		return fg.compileWord(elem, memoryStart)
	case EList:
		return fg.compileList(elem, memoryStart)
	default:
		return nil, errors.New("codegen: unknown AST node kind")
	}
}

func (fg *FuncGen) compileIntLiteral(elem *Element, memoryStart int32) (*Type, error) {
	fg.emit("MOV", asm.Reg("R0"), asm.ImmInt(elem.Int))
	fg.emit("STR", asm.Reg("R0"), slot(memoryStart))
	return fg.cg.types.IntType(), nil
}

func (fg *FuncGen) compileCharLiteral(elem *Element, memoryStart int32) (*Type, error) {
	fg.emit("MOV", asm.Reg("R0"), asm.ImmInt(int32(elem.Char)))
	fg.emit("STRB", asm.Reg("R0"), slot(memoryStart))
	return fg.cg.types.CharType(), nil
}

func (fg *FuncGen) compileStringLiteral(elem *Element, memoryStart int32) (*Type, error) {
	label := asm.NewLabel()
	fg.cg.data = append(fg.cg.data,
		&asm.LabelLine{Label: label},
		&asm.AsciiZLine{Text: elem.Str},
	)
	fg.emit("MOV", asm.Reg("R0"), asm.ImmLabel(label))
	fg.emit("STR", asm.Reg("R0"), slot(memoryStart))
	return &Type{Kind: KPtr, Elem: fg.cg.types.CharType()}, nil
}

func (fg *FuncGen) compileWord(elem *Element, memoryStart int32) (*Type, error) {
	w := elem.Word

	if len(w) > 0 && w[0] == '.' {
		fg.emit("MOV", asm.Reg("R0"), asm.ImmSpecial(w[1:]))
		fg.emit("STR", asm.Reg("R0"), slot(memoryStart))
		return &Type{Kind: KPtr, Elem: fg.cg.types.IntType()}, nil
	}

	if len(w) > 0 && w[0] == '$' {
		name := w[1:]
		v, ok := fg.lookupVar(name)
		if !ok {
			return nil, errors.New("undefined variable %q", name)
		}
		fg.emitCopy(v.pos, memoryStart, v.typ.Size())
		return v.typ, nil
	}

	v, ok := fg.lookupVar(w)
	if !ok {
		return nil, errors.New("undefined variable %q", w)
	}
	fg.addrOfSlot("R0", v.pos)
	fg.emit("STR", asm.Reg("R0"), slot(memoryStart))
	return &Type{Kind: KPtr, Elem: v.typ}, nil
}

func (fg *FuncGen) compileList(elem *Element, memoryStart int32) (*Type, error) {
	if len(elem.List) == 0 {
		return nil, errors.New("codegen: empty expression")
	}
	head := elem.List[0]
	if head.Kind != EWord {
		return nil, errors.New("codegen: expression head must be a word")
	}

	switch head.Word {
	case "do":
		return fg.compileDo(elem, memoryStart)
	case "return":
		return fg.compileReturn(elem, memoryStart)
	case "<-":
		return fg.compileStore(elem, memoryStart)
	case "if":
		return fg.compileIf(elem, memoryStart)
	case "while":
		return fg.compileWhile(elem, memoryStart)
	case "print":
		return fg.compilePrint(elem, memoryStart)
	case "cast":
		return fg.compileCast(elem, memoryStart)
	case "$":
		return fg.compileDeref(elem, memoryStart)
	case "@":
		return fg.compilePtrOffset(elem, memoryStart, false)
	case "@@":
		return fg.compilePtrOffset(elem, memoryStart, true)
	case "?":
		return fg.compileTernary(elem, memoryStart)
	case ".":
		return fg.compileFieldAccess(elem, memoryStart)
	case "+", "-":
		return fg.compileVariadicArith(elem, memoryStart, head.Word)
	case "*", "/", "%":
		return fg.compileChainedArith(elem, memoryStart, head.Word)
	case "<", ">", "<=", ">=":
		return fg.compileComparison(elem, memoryStart, head.Word)
	case "==", "!=":
		return fg.compileEquality(elem, memoryStart, head.Word)
	case "&&", "||":
		return fg.compileLogical(elem, memoryStart, head.Word)
	case "&", "|", "^":
		return fg.compileBitwise(elem, memoryStart, head.Word)
	case "<<", ">>", ">>>":
		return fg.compileShift(elem, memoryStart, head.Word)
	case "!":
		return fg.compileNot(elem, memoryStart)
	case "size_of":
		return fg.compileSizeOf(elem, memoryStart)
	case "size_of_value":
		return fg.compileSizeOfValue(elem, memoryStart)
	default:
		if fn, ok := fg.cg.funcs.Get(head.Word); ok {
			return fg.compileCall(elem, memoryStart, fn)
		}
		return nil, errors.New("codegen: unknown operator or function %q", head.Word)
	}
}
