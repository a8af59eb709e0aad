package registry

import (
	cloak "github.com/cloakffi/cloak"
)

// Wrapper is the minimal surface every proxy class exposes: access to the
// foreign handle it wraps. Unwrapping at call boundaries goes through it.
type Wrapper interface {
	Handle() cloak.Handle
}

// Factory constructs a proxy for a handle. The registry and namespace are
// passed through so nested results can be wrapped recursively.
type Factory func(h cloak.Handle, ns cloak.Namespace, reg *Registry) Wrapper

// Registry maps foreign type names to proxy factories. Unregistered struct
// and union types resolve to the default factory; primitives and pointers
// to primitives resolve to nil, meaning "do not wrap".
//
// Registration is expected to happen once at startup, before lookups begin;
// lookups take no locks.
type Registry struct {
	factories  map[string]Factory
	defaultFac Factory
}

// New creates a registry with the given default factory for unregistered
// struct and union types. proxy.Default is the usual choice.
func New(defaultFactory Factory) *Registry {
	return &Registry{
		factories:  make(map[string]Factory),
		defaultFac: defaultFactory,
	}
}

// Register associates a factory with a foreign type name. Re-registration
// silently replaces the prior association.
func (r *Registry) Register(typeName string, f Factory) {
	r.factories[typeName] = f
	logger().Debug("registered proxy factory", typeNameField(typeName))
}

// MustRegister is Register for init()-time use, panicking on an empty name
// or nil factory so misdeclared proxy classes fail at startup.
func (r *Registry) MustRegister(typeName string, f Factory) {
	if typeName == "" || f == nil {
		panic("registry: MustRegister requires a type name and a factory")
	}
	r.Register(typeName, f)
}

// SetDefault replaces the fallback factory for unregistered struct/union
// types.
func (r *Registry) SetDefault(f Factory) {
	r.defaultFac = f
}

// Resolve returns the factory to wrap a value of type t, or nil if values
// of this type pass through unwrapped. A nil result is a normal outcome,
// not an error.
//
// Pointer types resolve through their pointee: a pointer to a registered
// or unregistered struct wraps the same way the struct itself does.
func (r *Registry) Resolve(t cloak.Type) Factory {
	if t == nil {
		return nil
	}

	if f, ok := r.factories[t.Name()]; ok {
		return f
	}

	kind := t.Kind()
	if kind == cloak.KindPointer {
		elem := t.Elem()
		if elem == nil {
			return nil
		}
		if f, ok := r.factories[elem.Name()]; ok {
			return f
		}
		kind = elem.Kind()
	}

	if kind == cloak.KindStruct || kind == cloak.KindUnion {
		return r.defaultFac
	}
	return nil
}

// Registered reports whether a factory is explicitly registered for the
// given type name.
func (r *Registry) Registered(typeName string) bool {
	_, ok := r.factories[typeName]
	return ok
}
