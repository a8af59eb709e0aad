package ffi

import (
	"sort"
	"sync"

	cloak "github.com/cloakffi/cloak"
	"github.com/cloakffi/cloak/errors"
)

// Library is an in-memory implementation of the foreign namespace
// capability: declared types, registered functions, and an arena holding
// the foreign values handles reference.
type Library struct {
	mu    sync.RWMutex
	types map[string]cloak.Type
	funcs map[string]*funcDef
	arena *arena
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{
		types: make(map[string]cloak.Type),
		funcs: make(map[string]*funcDef),
		arena: newArena(),
	}
}

var _ cloak.Namespace = (*Library)(nil)

// DefineStruct declares a struct type with the given fields.
func (l *Library) DefineStruct(name string, fields ...cloak.Field) cloak.Type {
	return l.defineComposite(name, cloak.KindStruct, fields)
}

// DefineUnion declares a union type with the given fields.
func (l *Library) DefineUnion(name string, fields ...cloak.Field) cloak.Type {
	return l.defineComposite(name, cloak.KindUnion, fields)
}

func (l *Library) defineComposite(name string, kind cloak.Kind, fields []cloak.Field) cloak.Type {
	t := &structType{name: name, kind: kind, fields: fields}
	l.mu.Lock()
	l.types[name] = t
	l.mu.Unlock()
	return t
}

// Impl is the Go implementation behind a registered function. Arguments
// arrive coerced: scalars in their declared representation, pointer and
// struct parameters as *Value handles.
type Impl func(args []any) (any, error)

// RegisterFunc declares a foreign function with its signature and
// implementation. Re-registration replaces the prior definition.
func (l *Library) RegisterFunc(name string, params []cloak.Type, result cloak.Type, impl Impl) {
	l.mu.Lock()
	l.funcs[name] = &funcDef{lib: l, name: name, params: params, result: result, impl: impl}
	l.mu.Unlock()
}

// Function looks up a registered function by name.
func (l *Library) Function(name string) (cloak.Function, bool) {
	l.mu.RLock()
	f, ok := l.funcs[name]
	l.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return f, true
}

// Functions lists registered functions in name order.
func (l *Library) Functions() []cloak.Function {
	l.mu.RLock()
	out := make([]cloak.Function, 0, len(l.funcs))
	for _, f := range l.funcs {
		out = append(out, f)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Type looks up a declared type by name. Primitive names and one level of
// pointer suffix resolve without declaration.
func (l *Library) Type(name string) (cloak.Type, bool) {
	l.mu.RLock()
	t, ok := l.types[name]
	l.mu.RUnlock()
	if ok {
		return t, true
	}

	switch name {
	case "int":
		return Int, true
	case "float":
		return Float, true
	case "double":
		return Double, true
	case "unsigned long long":
		return ULongLong, true
	case "void":
		return Void, true
	}

	if n := len(name); n > 1 && name[n-1] == '*' {
		if elem, ok := l.Type(name[:n-1]); ok {
			return PointerTo(elem), true
		}
	}
	return nil, false
}

// NewValue allocates a fresh zeroed foreign value. Struct and union types
// allocate an instance; pointer types allocate the pointee (a struct
// instance or a single primitive cell) and return a pointer-typed handle.
func (l *Library) NewValue(t cloak.Type) (cloak.Handle, error) {
	switch t.Kind() {
	case cloak.KindStruct, cloak.KindUnion:
		return l.newStruct(t, t)
	case cloak.KindPointer:
		elem := t.Elem()
		if elem == nil {
			return nil, errors.InvalidInput(errors.PhaseAlloc, "pointer type has no pointee")
		}
		switch elem.Kind() {
		case cloak.KindStruct, cloak.KindUnion:
			return l.newStruct(elem, t)
		case cloak.KindPrimitive:
			return l.NewCell(elem, nil)
		}
		return nil, errors.Unsupported(errors.PhaseAlloc, "cannot allocate "+t.Name())
	}
	return nil, errors.Unsupported(errors.PhaseAlloc, "cannot allocate non-composite type "+t.Name())
}

func (l *Library) newStruct(st cloak.Type, handleType cloak.Type) (*Value, error) {
	fields := make(map[string]any, len(st.Fields()))
	for _, f := range st.Fields() {
		var zero any
		switch f.Type.Kind() {
		case cloak.KindStruct, cloak.KindUnion, cloak.KindPointer:
			// Composite fields start as NULL handles.
			zero = l.Null(f.Type)
		default:
			z, err := l.coerce(0, f.Type, errors.PhaseAlloc, st.Name(), f.Name)
			if err != nil {
				return nil, err
			}
			zero = z
		}
		fields[f.Name] = zero
	}

	slot, err := l.arena.alloc(&structInst{typ: st, fields: fields})
	if err != nil {
		return nil, errors.AllocationFailed(st.Name(), err)
	}
	return &Value{lib: l, typ: handleType, slot: slot}, nil
}

// NewCell allocates a single primitive cell and returns a pointer handle
// to it. A nil init leaves the cell zeroed.
func (l *Library) NewCell(elem cloak.Type, init any) (*Value, error) {
	if init == nil {
		init = 0
	}
	coerced, err := l.coerce(init, elem, errors.PhaseAlloc, elem.Name(), "*")
	if err != nil {
		return nil, err
	}
	slot, err := l.arena.alloc(&cellInst{elem: elem, vals: []any{coerced}})
	if err != nil {
		return nil, errors.AllocationFailed(elem.Name()+"*", err)
	}
	return &Value{lib: l, typ: PointerTo(elem), slot: slot}, nil
}

// NewArray allocates a primitive array and returns a pointer handle to its
// first element.
func (l *Library) NewArray(elem cloak.Type, values ...any) (*Value, error) {
	vals := make([]any, len(values))
	for i, v := range values {
		coerced, err := l.coerce(v, elem, errors.PhaseAlloc, elem.Name(), "[]")
		if err != nil {
			return nil, err
		}
		vals[i] = coerced
	}
	slot, err := l.arena.alloc(&cellInst{elem: elem, vals: vals})
	if err != nil {
		return nil, errors.AllocationFailed(elem.Name()+"[]", err)
	}
	return &Value{lib: l, typ: PointerTo(elem), slot: slot}, nil
}

// Null returns a NULL handle of the given pointer type.
func (l *Library) Null(t cloak.Type) *Value {
	return &Value{lib: l, typ: t, slot: 0}
}

// Free releases the foreign value behind a handle, making every handle to
// it stale. Mirrors an explicit destructor call in the wrapped library.
func (l *Library) Free(h cloak.Handle) {
	if v, ok := h.(*Value); ok && v != nil {
		l.arena.free(v.slot)
	}
}

// Live returns the number of live values in the arena, for leak checks in
// tests.
func (l *Library) Live() int {
	return l.arena.len()
}
