package cloak

import "context"

// Kind categorizes a foreign type.
type Kind uint8

const (
	KindVoid Kind = iota
	KindPrimitive
	KindStruct
	KindUnion
	KindPointer
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindPrimitive:
		return "primitive"
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindPointer:
		return "pointer"
	default:
		return "unknown"
	}
}

// Field describes one named field of a struct or union type.
type Field struct {
	Name string
	Type Type
}

// Type describes a foreign type as declared by a Namespace.
type Type interface {
	// Name returns the declared type name, e.g. "int" or "point_t".
	Name() string

	// Kind returns the type category.
	Kind() Kind

	// Elem returns the pointee type for KindPointer, nil otherwise.
	Elem() Type

	// Fields returns the declared fields for KindStruct and KindUnion,
	// nil otherwise.
	Fields() []Field
}

// Function is a callable foreign function with a declared signature.
type Function interface {
	Name() string
	Params() []Type
	Result() Type

	// Call invokes the foreign function with positional arguments.
	// Arguments are raw scalars or Handles; proxy unwrapping happens
	// before a value reaches Call.
	Call(ctx context.Context, args ...any) (any, error)
}

// Handle is an opaque typed reference to a foreign value (a struct, union,
// or pointer). Handles borrow the underlying foreign memory; they never
// copy or free it.
type Handle interface {
	// Type returns the declared type of the referenced value.
	Type() Type

	// ID returns a stable identity for the referenced value. Two handles
	// with equal IDs reference the same foreign value.
	ID() uint64

	// IsNil reports whether the handle references nothing (NULL).
	IsNil() bool

	// Get reads a struct or union field through the handle.
	Get(field string) (any, error)

	// Set writes a struct or union field through the handle.
	Set(field string, value any) error

	// Deref reads the pointee of a pointer-to-primitive handle.
	Deref() (any, error)

	// SetDeref writes the pointee of a pointer-to-primitive handle.
	SetDeref(value any) error
}

// Namespace is the foreign namespace capability: the set of callable
// foreign functions and type definitions a proxy resolves against.
// Implementations decide how functions are actually invoked and where
// foreign values live; this layer only routes through them.
type Namespace interface {
	// Function looks up a callable foreign function by name.
	Function(name string) (Function, bool)

	// Functions lists all callable foreign functions, for method-style
	// resolution against a first parameter type.
	Functions() []Function

	// Type looks up a declared type by name.
	Type(name string) (Type, bool)

	// NewValue allocates a fresh zeroed foreign value of the given type
	// and returns a handle to it. Pointer types allocate a cell of the
	// pointee type.
	NewValue(t Type) (Handle, error)
}

// Validity is optionally implemented by handles that can tell whether the
// value they reference is still live. Unwrapping checks it best-effort.
type Validity interface {
	Valid() bool
}
