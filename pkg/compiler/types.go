package compiler

import (
	"tlog.app/go/errors"
)

// Kind tags the variant of a Type.
type Kind int

const (
	KVoid Kind = iota
	KInt
	KFloat
	KChar
	KPtr
	KArray
	KStruct
	KUnresolved
)

// Type is the closed sum described by the type model: a shared optional
// Name plus per-variant data. UnresolvedPtrValue is represented as
// Kind==KUnresolved carrying the raw AST fragment for its eventual target;
// it only ever appears as the Elem of a KPtr Type before ResolvePtrTypes
// runs.
type Type struct {
	Kind Kind
	Name string

	Elem   *Type  // Ptr.value_type, Array.item_type
	Count  int32   // Array.count
	Fields []Field // Struct.fields, in declaration order

	Pending *Element // KUnresolved: the saved type expression to re-resolve
}

// Field is a named, positioned member — of a struct or of a function's
// stack frame, depending on where it is used.
type Field struct {
	Name     string
	Type     *Type
	Position int32
}

// wordBytes rounds n up to the next multiple of 4.
func wordBytes(n int32) int32 {
	return ((n + 3) / 4) * 4
}

// Size computes a Type's byte size per the size table in the data model.
func (t *Type) Size() int32 {
	switch t.Kind {
	case KVoid, KUnresolved:
		return 0
	case KInt, KFloat, KPtr:
		return 4
	case KChar:
		return 1
	case KArray:
		return t.Elem.Size() * t.Count
	case KStruct:
		// Raw sum, not word_bytes-stepped — distinct from the struct's own
		// field positions, which do step by word_bytes (see ConstructType's
		// "struct" case). A struct's total size can be smaller than the
		// last field's position plus its own size.
		var sz int32
		for _, f := range t.Fields {
			sz += f.Type.Size()
		}
		return sz
	default:
		return 0
	}
}

func (t *Type) clone() *Type {
	c := *t
	return &c
}

// TypeTable is the name→Type table, pre-seeded with the four builtins and
// filled in by ResolveTypes.
type TypeTable struct {
	types map[string]*Type
}

// NewTypeTable returns a table pre-seeded with void, int, float and char.
func NewTypeTable() *TypeTable {
	tt := &TypeTable{types: map[string]*Type{}}
	tt.types["void"] = &Type{Kind: KVoid, Name: "void"}
	tt.types["int"] = &Type{Kind: KInt, Name: "int"}
	tt.types["float"] = &Type{Kind: KFloat, Name: "float"}
	tt.types["char"] = &Type{Kind: KChar, Name: "char"}
	return tt
}

func (tt *TypeTable) Get(name string) (*Type, bool) {
	t, ok := tt.types[name]
	return t, ok
}

func (tt *TypeTable) IntType() *Type   { t, _ := tt.Get("int"); return t }
func (tt *TypeTable) CharType() *Type  { t, _ := tt.Get("char"); return t }
func (tt *TypeTable) VoidType() *Type  { t, _ := tt.Get("void"); return t }
func (tt *TypeTable) FloatType() *Type { t, _ := tt.Get("float"); return t }

func (tt *TypeTable) install(name string, t *Type) error {
	if _, exists := tt.types[name]; exists {
		return errors.New("duplicate type name %q", name)
	}
	t.Name = name
	tt.types[name] = t
	return nil
}

// ConstructType builds a Type from a type expression. A type expression is
// one of: a bare word naming an already-declared type (the form nested
// inside a ptr/array target, e.g. the `Node` in `[ptr Node]`); a
// single-element list wrapping a bare name (the form used at a standalone
// type-expression position, e.g. `[int]` as a field or return type); or a
// compound form `[<head> ...]` (ptr/array/struct). A nil, nil return means
// "not resolvable yet" (used by the fixpoint driver); any other nil Type is
// paired with a non-nil error.
func ConstructType(tbl *TypeTable, expr *Element, resolveImmediately, noClones bool) (*Type, error) {
	if expr == nil {
		return nil, errors.New("malformed type expression")
	}

	if expr.Kind == EWord {
		return lookupNamedType(tbl, expr.Word, noClones)
	}

	if expr.Kind != EList || len(expr.List) == 0 {
		return nil, errors.New("malformed type expression")
	}
	head := expr.List[0]
	if head.Kind != EWord {
		return nil, errors.New("malformed type expression: expected a head word")
	}

	if len(expr.List) == 1 {
		return lookupNamedType(tbl, head.Word, noClones)
	}

	switch head.Word {
	case "ptr":
		if len(expr.List) != 2 {
			return nil, errors.New("ptr: expected exactly one operand")
		}
		target := expr.List[1]
		if resolveImmediately {
			resolved, err := ConstructType(tbl, target, true, noClones)
			if err != nil {
				return nil, errors.Wrap(err, "ptr: resolve target")
			}
			if resolved == nil {
				return nil, errors.New("ptr: target type not found")
			}
			return &Type{Kind: KPtr, Elem: resolved}, nil
		}
		return &Type{Kind: KPtr, Elem: &Type{Kind: KUnresolved, Pending: target}}, nil

	case "array":
		if len(expr.List) != 3 {
			return nil, errors.New("array: expected item type and count")
		}
		item, err := ConstructType(tbl, expr.List[1], resolveImmediately, noClones)
		if err != nil {
			return nil, errors.Wrap(err, "array: item type")
		}
		if item == nil {
			return nil, nil
		}
		countEl := expr.List[2]
		if countEl.Kind != EInt {
			return nil, errors.New("array: count must be an integer literal")
		}
		return &Type{Kind: KArray, Elem: item, Count: countEl.Int}, nil

	case "struct":
		if len(expr.List) != 2 || expr.List[1].Kind != EList {
			return nil, errors.New("struct: expected a field list")
		}
		var fields []Field
		var pos int32
		for _, fieldEl := range expr.List[1].List {
			if fieldEl.Kind != EList || len(fieldEl.List) != 2 {
				return nil, errors.New("struct: malformed field declaration")
			}
			fieldType, err := ConstructType(tbl, fieldEl.List[0], resolveImmediately, noClones)
			if err != nil {
				return nil, errors.Wrap(err, "struct: field type")
			}
			if fieldType == nil {
				return nil, nil
			}
			nameEl := fieldEl.List[1]
			if nameEl.Kind != EWord {
				return nil, errors.New("struct: field name must be a word")
			}
			fields = append(fields, Field{Name: nameEl.Word, Type: fieldType, Position: pos})
			pos += wordBytes(fieldType.Size())
		}
		return &Type{Kind: KStruct, Fields: fields}, nil

	default:
		return nil, errors.New("unknown type constructor %q", head.Word)
	}
}

func lookupNamedType(tbl *TypeTable, name string, noClones bool) (*Type, error) {
	named, ok := tbl.Get(name)
	if !ok {
		return nil, nil
	}
	if noClones {
		return named, nil
	}
	return named.clone(), nil
}

// ResolveTypes runs the fixpoint over the type-declaration list, installing
// each successfully constructed type, then runs ResolvePtrTypes to fill in
// every forward-referencing pointer target.
func ResolveTypes(tbl *TypeTable, decls *Element) error {
	if decls == nil || decls.Kind != EList {
		return errors.New("resolve: type declarations must be a list")
	}
	pending := append([]*Element{}, decls.List...)
	for len(pending) > 0 {
		var next []*Element
		progress := false
		for _, d := range pending {
			if d.Kind != EList || len(d.List) != 2 || d.List[0].Kind != EWord {
				return errors.New("resolve: malformed type declaration")
			}
			name := d.List[0].Word
			t, err := ConstructType(tbl, d.List[1], false, false)
			if err != nil {
				return errors.Wrap(err, "resolve type %q", name)
			}
			if t == nil {
				next = append(next, d)
				continue
			}
			if err := tbl.install(name, t); err != nil {
				return errors.Wrap(err, "resolve type %q", name)
			}
			progress = true
		}
		if !progress && len(next) > 0 {
			return errors.New("resolve: too many type construction failures: %d types unresolved", len(next))
		}
		pending = next
	}
	return ResolvePtrTypes(tbl)
}

// ResolvePtrTypes walks every named type and replaces each UnresolvedPtrValue
// placeholder with its real target, recursing into Array/Struct members. A
// visited set guards against infinite recursion through self-referential
// struct graphs (e.g. a linked-list node pointing at its own type).
func ResolvePtrTypes(tbl *TypeTable) error {
	visited := map[*Type]bool{}
	for _, t := range tbl.types {
		if err := resolvePtrWalk(tbl, t, visited); err != nil {
			return err
		}
	}
	return nil
}

func resolvePtrWalk(tbl *TypeTable, t *Type, visited map[*Type]bool) error {
	if t == nil || visited[t] {
		return nil
	}
	visited[t] = true

	switch t.Kind {
	case KPtr:
		if t.Elem.Kind == KUnresolved {
			resolved, err := ConstructType(tbl, t.Elem.Pending, true, true)
			if err != nil {
				return errors.Wrap(err, "resolve pointer target")
			}
			if resolved == nil {
				return errors.New("pointer target unresolvable")
			}
			t.Elem = resolved
		}
		return resolvePtrWalk(tbl, t.Elem, visited)
	case KArray:
		return resolvePtrWalk(tbl, t.Elem, visited)
	case KStruct:
		for _, f := range t.Fields {
			if err := resolvePtrWalk(tbl, f.Type, visited); err != nil {
				return err
			}
		}
	}
	return nil
}

// AreEqual implements the type-equivalence relation: same non-empty name,
// or same variant with pairwise-equal contents. Comparing an unresolved
// pointer target is an error.
func AreEqual(a, b *Type) (bool, error) {
	if a.Kind == KUnresolved || b.Kind == KUnresolved {
		return false, errors.New("cannot compare an unresolved pointer target type")
	}
	if a.Name != "" && a.Name == b.Name {
		return true, nil
	}
	if a.Kind != b.Kind {
		return false, nil
	}
	switch a.Kind {
	case KVoid, KInt, KFloat, KChar:
		return true, nil
	case KPtr:
		return AreEqual(a.Elem, b.Elem)
	case KArray:
		if a.Count != b.Count {
			return false, nil
		}
		return AreEqual(a.Elem, b.Elem)
	case KStruct:
		if len(a.Fields) != len(b.Fields) {
			return false, nil
		}
		for i := range a.Fields {
			eq, err := AreEqual(a.Fields[i].Type, b.Fields[i].Type)
			if err != nil {
				return false, err
			}
			if !eq {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, nil
	}
}

func findField(t *Type, name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
