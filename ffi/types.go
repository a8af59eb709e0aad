package ffi

import (
	cloak "github.com/cloakffi/cloak"
)

// primType is a named primitive C type.
type primType struct {
	name string
}

func (t *primType) Name() string          { return t.name }
func (t *primType) Kind() cloak.Kind      { return cloak.KindPrimitive }
func (t *primType) Elem() cloak.Type      { return nil }
func (t *primType) Fields() []cloak.Field { return nil }

// voidType is the void return type.
type voidType struct{}

func (t *voidType) Name() string          { return "void" }
func (t *voidType) Kind() cloak.Kind      { return cloak.KindVoid }
func (t *voidType) Elem() cloak.Type      { return nil }
func (t *voidType) Fields() []cloak.Field { return nil }

// Primitive types shared by all libraries.
var (
	Int       cloak.Type = &primType{name: "int"}
	Float     cloak.Type = &primType{name: "float"}
	Double    cloak.Type = &primType{name: "double"}
	ULongLong cloak.Type = &primType{name: "unsigned long long"}
	Void      cloak.Type = &voidType{}
)

// structType is a declared struct or union type.
type structType struct {
	name   string
	kind   cloak.Kind
	fields []cloak.Field
}

func (t *structType) Name() string          { return t.name }
func (t *structType) Kind() cloak.Kind      { return t.kind }
func (t *structType) Elem() cloak.Type      { return nil }
func (t *structType) Fields() []cloak.Field { return t.fields }

// pointerType points at another declared type.
type pointerType struct {
	elem cloak.Type
}

func (t *pointerType) Name() string          { return t.elem.Name() + "*" }
func (t *pointerType) Kind() cloak.Kind      { return cloak.KindPointer }
func (t *pointerType) Elem() cloak.Type      { return t.elem }
func (t *pointerType) Fields() []cloak.Field { return nil }

// PointerTo returns the pointer type for elem. Pointer types compare by
// name, not identity.
func PointerTo(elem cloak.Type) cloak.Type {
	return &pointerType{elem: elem}
}
