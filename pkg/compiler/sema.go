package compiler

import (
	"sxc/pkg/asm"

	"tlog.app/go/errors"
)

// Function is a registered declaration: signature, parameter layout, raw
// body AST (not yet typechecked — that happens during code generation) and
// the entry label callers BL into.
type Function struct {
	Name       string
	ReturnType *Type
	Params     []Field
	Body       *Element
	Entry      *asm.Label
}

// TotalParamSize sums parameter sizes directly (raw, not word-aligned —
// matches source behavior; contrast with struct field layout which does
// round up).
func (f *Function) TotalParamSize() int32 {
	var sz int32
	for _, p := range f.Params {
		sz += p.Type.Size()
	}
	return sz
}

// FunctionTable is the name→Function table. Declaration order is preserved
// for deterministic code generation (map order would make every compile
// produce a different byte-identical-but-reordered listing).
type FunctionTable struct {
	funcs map[string]*Function
	order []string
}

func NewFunctionTable() *FunctionTable {
	return &FunctionTable{funcs: map[string]*Function{}}
}

func (ft *FunctionTable) Get(name string) (*Function, bool) {
	f, ok := ft.funcs[name]
	return f, ok
}

func (ft *FunctionTable) install(fn *Function) error {
	if _, exists := ft.funcs[fn.Name]; exists {
		return errors.New("duplicate function %q", fn.Name)
	}
	ft.funcs[fn.Name] = fn
	ft.order = append(ft.order, fn.Name)
	return nil
}

// All returns every registered function in declaration order.
func (ft *FunctionTable) All() []*Function {
	out := make([]*Function, len(ft.order))
	for i, name := range ft.order {
		out[i] = ft.funcs[name]
	}
	return out
}

// RegisterFunctions builds the function table from the function-declaration
// list `[[<returnTypeExpr> <name> [<param>...] <body>] ...]`.
func RegisterFunctions(tbl *TypeTable, decls *Element) (*FunctionTable, error) {
	if decls == nil || decls.Kind != EList {
		return nil, errors.New("register: function declarations must be a list")
	}
	ft := NewFunctionTable()
	for _, d := range decls.List {
		if d.Kind != EList || len(d.List) != 4 {
			return nil, errors.New("register: malformed function declaration")
		}
		retExpr, nameEl, paramsEl, body := d.List[0], d.List[1], d.List[2], d.List[3]
		if nameEl.Kind != EWord {
			return nil, errors.New("register: function name must be a word")
		}
		name := nameEl.Word

		retType, err := ConstructType(tbl, retExpr, true, true)
		if err != nil {
			return nil, errors.Wrap(err, "function %q: return type", name)
		}
		if retType == nil {
			return nil, errors.New("function %q: unknown return type", name)
		}

		if paramsEl.Kind != EList {
			return nil, errors.New("function %q: malformed parameter list", name)
		}
		var params []Field
		pos := retType.Size() + 4
		for _, paramEl := range paramsEl.List {
			if paramEl.Kind != EList || len(paramEl.List) != 2 {
				return nil, errors.New("function %q: malformed parameter", name)
			}
			paramType, err := ConstructType(tbl, paramEl.List[0], true, true)
			if err != nil {
				return nil, errors.Wrap(err, "function %q: parameter type", name)
			}
			if paramType == nil {
				return nil, errors.New("function %q: unknown parameter type", name)
			}
			paramNameEl := paramEl.List[1]
			if paramNameEl.Kind != EWord {
				return nil, errors.New("function %q: parameter name must be a word", name)
			}
			params = append(params, Field{Name: paramNameEl.Word, Type: paramType, Position: pos})
			pos += wordBytes(paramType.Size())
		}

		fn := &Function{
			Name:       name,
			ReturnType: retType,
			Params:     params,
			Body:       body,
			Entry:      asm.NewLabel(),
		}
		if err := ft.install(fn); err != nil {
			return nil, errors.Wrap(err, "function %q", name)
		}
	}
	return ft, nil
}
