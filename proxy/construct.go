package proxy

import (
	"context"

	cloak "github.com/cloakffi/cloak"
	"github.com/cloakffi/cloak/errors"
	"github.com/cloakffi/cloak/registry"
)

// Construct calls a foreign constructor function and wraps its result,
// sparing callers from wrapping every construction site by hand:
//
//	pt, err := proxy.Construct(ctx, ns, reg, "make_point", 3, 4)
//
// Arguments are unwrapped like any other foreign call.
func Construct(ctx context.Context, ns cloak.Namespace, reg *registry.Registry, ctor string, args ...any) (any, error) {
	fn, ok := ns.Function(ctor)
	if !ok {
		return nil, errors.NotFound(errors.PhaseResolve, "function", ctor)
	}

	raw := make([]any, len(args))
	for i, a := range args {
		v, err := unwrapChecked(a)
		if err != nil {
			return nil, err
		}
		raw[i] = v
	}

	ret, err := fn.Call(ctx, raw...)
	if err != nil {
		return nil, err
	}
	return Wrap(ret, ns, reg), nil
}

// Func binds a free foreign function for repeated calls with options, e.g.
// out-parameter positions on functions that have no natural receiver:
//
//	f, _ := proxy.Func(ns, reg, "set_ptr_succ", proxy.Out(1))
//	res, _ := f.Invoke(ctx, 4)   // []any{42, 5}
func Func(ns cloak.Namespace, reg *registry.Registry, name string, opts ...CallOption) (*BoundMethod, error) {
	fn, ok := ns.Function(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseResolve, "function", name)
	}
	m := &BoundMethod{fn: fn, ns: ns, reg: reg}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// NewStruct allocates a fresh foreign struct or union and sets its fields
// positionally in declaration order, then wraps it. Fewer values than
// fields leaves the remainder zeroed.
func NewStruct(ns cloak.Namespace, reg *registry.Registry, typeName string, values ...any) (any, error) {
	t, ok := ns.Type(typeName)
	if !ok {
		return nil, errors.NotFound(errors.PhaseAlloc, "type", typeName)
	}
	if t.Kind() != cloak.KindStruct && t.Kind() != cloak.KindUnion {
		return nil, errors.InvalidInput(errors.PhaseAlloc, "NewStruct requires a struct or union type")
	}

	fields := t.Fields()
	if len(values) > len(fields) {
		return nil, errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
			TypeName(typeName).
			Detail("got more values than struct has fields: %d > %d", len(values), len(fields)).
			Build()
	}

	h, err := ns.NewValue(t)
	if err != nil {
		return nil, errors.AllocationFailed(typeName, err)
	}

	for i, v := range values {
		raw, err := unwrapChecked(v)
		if err != nil {
			return nil, err
		}
		if err := h.Set(fields[i].Name, raw); err != nil {
			return nil, err
		}
	}

	return Wrap(h, ns, reg), nil
}
