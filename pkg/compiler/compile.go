package compiler

import (
	"sxc/pkg/asm"

	"tlog.app/go/errors"
)

// Compile runs the full pipeline over one source file's text: lex, parse,
// resolve types, register functions, generate code, link. The result is
// the complete target assembly listing as text.
func Compile(src string) (string, error) {
	tokens, err := Lex(src)
	if err != nil {
		return "", errors.Wrap(err, "lex")
	}

	root, err := Parse(tokens)
	if err != nil {
		return "", errors.Wrap(err, "parse")
	}
	if len(root.List) != 2 || root.List[0].Kind != EList || root.List[1].Kind != EList {
		return "", errors.New("program must be exactly [<type declarations> <function declarations>]")
	}
	typeDecls, funcDecls := root.List[0], root.List[1]

	types := NewTypeTable()
	if err := ResolveTypes(types, typeDecls); err != nil {
		return "", errors.Wrap(err, "resolve types")
	}

	funcs, err := RegisterFunctions(types, funcDecls)
	if err != nil {
		return "", errors.Wrap(err, "register functions")
	}

	mainFn, ok := funcs.Get("main")
	var mainEntry *asm.Label
	if ok {
		mainEntry = mainFn.Entry
	}

	cg := newCodeGen(types, funcs)
	code, data, err := cg.Generate()
	if err != nil {
		return "", errors.Wrap(err, "generate code")
	}

	lines, err := asm.Finalize(code, data, mainEntry, cg.copyLabel)
	if err != nil {
		return "", errors.Wrap(err, "link")
	}

	return asm.Serialize(lines), nil
}
