package wasmns

import (
	"encoding/json"

	cloak "github.com/cloakffi/cloak"
	"github.com/cloakffi/cloak/errors"
)

// Interface describes the shape of a guest module's exported C-style API:
// its struct layouts and function signatures. Guest binaries carry no type
// information beyond core wasm scalars, so the descriptor supplies what a
// header file would.
type Interface struct {
	// Name identifies the described library.
	Name string `json:"name"`

	// Alloc names the exported allocator function, signature (i32) -> i32.
	// Required for NewValue; lookups and calls work without it.
	Alloc string `json:"alloc,omitempty"`

	Structs []StructDecl `json:"structs,omitempty"`
	Funcs   []FuncDecl   `json:"funcs"`
}

// StructDecl declares a struct layout in guest linear memory.
type StructDecl struct {
	Name string `json:"name"`
	// Size in bytes. Zero means computed from the last field's end,
	// rounded up to 4.
	Size   uint32      `json:"size,omitempty"`
	Fields []FieldDecl `json:"fields"`
}

// FieldDecl declares one field with its byte offset.
type FieldDecl struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Offset uint32 `json:"offset"`
}

// FuncDecl declares an exported function signature in C-style type names.
// An empty result means void.
type FuncDecl struct {
	Name   string   `json:"name"`
	Params []string `json:"params,omitempty"`
	Result string   `json:"result,omitempty"`
}

// ParseInterface decodes a JSON interface descriptor.
func ParseInterface(data []byte) (*Interface, error) {
	var iface Interface
	if err := json.Unmarshal(data, &iface); err != nil {
		return nil, errors.Wrap(errors.PhaseResolve, errors.KindInvalidInput, err,
			"parse interface descriptor")
	}
	return &iface, nil
}

// primitive sizes on wasm32; pointers are 4 bytes.
var primSize = map[string]uint32{
	"int":                4,
	"float":              4,
	"double":             8,
	"unsigned long long": 8,
}

type primType struct {
	name string
}

func (t *primType) Name() string          { return t.name }
func (t *primType) Kind() cloak.Kind      { return cloak.KindPrimitive }
func (t *primType) Elem() cloak.Type      { return nil }
func (t *primType) Fields() []cloak.Field { return nil }

type voidType struct{}

func (voidType) Name() string          { return "void" }
func (voidType) Kind() cloak.Kind      { return cloak.KindVoid }
func (voidType) Elem() cloak.Type      { return nil }
func (voidType) Fields() []cloak.Field { return nil }

// structType carries the declared layout next to the field list.
type structType struct {
	name    string
	size    uint32
	fields  []cloak.Field
	offsets map[string]uint32
}

func (t *structType) Name() string          { return t.name }
func (t *structType) Kind() cloak.Kind      { return cloak.KindStruct }
func (t *structType) Elem() cloak.Type      { return nil }
func (t *structType) Fields() []cloak.Field { return t.fields }

type ptrType struct {
	elem cloak.Type
}

func (t *ptrType) Name() string          { return t.elem.Name() + "*" }
func (t *ptrType) Kind() cloak.Kind      { return cloak.KindPointer }
func (t *ptrType) Elem() cloak.Type      { return t.elem }
func (t *ptrType) Fields() []cloak.Field { return nil }

// sizeOf returns the byte size of a type's in-memory representation.
func sizeOf(t cloak.Type) uint32 {
	switch t.Kind() {
	case cloak.KindPointer:
		return 4
	case cloak.KindStruct, cloak.KindUnion:
		if st, ok := t.(*structType); ok {
			return st.size
		}
		return 0
	case cloak.KindPrimitive:
		return primSize[t.Name()]
	}
	return 0
}

// resolveTypes builds the type table from the descriptor. Struct field and
// function types may reference structs in any declaration order.
func resolveTypes(iface *Interface) (map[string]cloak.Type, error) {
	types := map[string]cloak.Type{
		"int":                &primType{name: "int"},
		"float":              &primType{name: "float"},
		"double":             &primType{name: "double"},
		"unsigned long long": &primType{name: "unsigned long long"},
		"void":               voidType{},
	}

	// First pass: create empty struct shells so pointer fields resolve.
	shells := make([]*structType, len(iface.Structs))
	for i, sd := range iface.Structs {
		st := &structType{name: sd.Name, size: sd.Size, offsets: make(map[string]uint32)}
		shells[i] = st
		types[sd.Name] = st
	}

	lookup := func(name string) (cloak.Type, error) {
		if t, ok := typeByName(types, name); ok {
			return t, nil
		}
		return nil, errors.NotFound(errors.PhaseResolve, "type", name)
	}

	for i, sd := range iface.Structs {
		st := shells[i]
		var end uint32
		for _, fd := range sd.Fields {
			ft, err := lookup(fd.Type)
			if err != nil {
				return nil, err
			}
			st.fields = append(st.fields, cloak.Field{Name: fd.Name, Type: ft})
			st.offsets[fd.Name] = fd.Offset
			if e := fd.Offset + sizeOf(ft); e > end {
				end = e
			}
		}
		if st.size == 0 {
			st.size = (end + 3) &^ 3
		}
	}
	return types, nil
}

// typeByName resolves a type name against the table, following trailing
// "*" pointer suffixes.
func typeByName(types map[string]cloak.Type, name string) (cloak.Type, bool) {
	if t, ok := types[name]; ok {
		return t, true
	}
	if n := len(name); n > 1 && name[n-1] == '*' {
		if elem, ok := typeByName(types, name[:n-1]); ok {
			return &ptrType{elem: elem}, true
		}
	}
	return nil, false
}
