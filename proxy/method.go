package proxy

import (
	"context"
	"sort"

	cloak "github.com/cloakffi/cloak"
	"github.com/cloakffi/cloak/errors"
	"github.com/cloakffi/cloak/registry"
)

// BoundMethod is a foreign function bound to the proxy it was resolved on.
// Invoking it supplies the proxy's handle as the first argument, unwraps
// any proxy arguments, and wraps the result the same way field reads do.
// Bound methods are transient: resolve, invoke, discard.
//
// A BoundMethod with no receiver (from Func, or from wrapping a foreign
// function value directly) applies the same rules minus the implicit self.
type BoundMethod struct {
	fn        cloak.Function
	self      *Proxy
	ns        cloak.Namespace
	reg       *registry.Registry
	outs      []outArg
	checkNull bool
}

type outArg struct {
	pos  int
	mode byte // 'o' out-only, 'x' in-out
}

// CallOption adjusts how a bound method drives its foreign call.
type CallOption func(*BoundMethod)

// Out marks parameter positions (0-based, counting the receiver) as
// out-only pointers. They are omitted from the Invoke argument list; fresh
// cells are allocated, passed in, and their final pointee values returned.
func Out(positions ...int) CallOption {
	return func(m *BoundMethod) {
		for _, p := range positions {
			m.outs = append(m.outs, outArg{pos: p, mode: 'o'})
		}
	}
}

// InOut marks parameter positions as in-out pointers. Invoke takes the
// initial pointee value at that position; the final value is returned.
func InOut(positions ...int) CallOption {
	return func(m *BoundMethod) {
		for _, p := range positions {
			m.outs = append(m.outs, outArg{pos: p, mode: 'x'})
		}
	}
}

// CheckNull makes the call fail with a NullReturn error when the foreign
// function returns a NULL pointer.
func CheckNull() CallOption {
	return func(m *BoundMethod) { m.checkNull = true }
}

// Name returns the resolved foreign function name.
func (m *BoundMethod) Name() string { return m.fn.Name() }

// Function returns the underlying foreign function.
func (m *BoundMethod) Function() cloak.Function { return m.fn }

// Invoke calls the foreign function. Proxy arguments are unwrapped to their
// handles, the receiver (if any) is injected first, and the result is
// wrapped per the registry.
//
// Without out-parameters the single wrapped result is returned. With out or
// in-out positions the result is a []any: the wrapped return value followed
// by the final pointee value of each marked position in ascending order.
func (m *BoundMethod) Invoke(ctx context.Context, args ...any) (any, error) {
	raw := make([]any, 0, len(args)+1)

	if m.self != nil {
		self, err := unwrapChecked(m.self)
		if err != nil {
			return nil, err
		}
		raw = append(raw, self)
	}

	for _, a := range args {
		v, err := unwrapChecked(a)
		if err != nil {
			return nil, err
		}
		raw = append(raw, v)
	}

	cells, raw, err := m.insertOutCells(raw)
	if err != nil {
		return nil, err
	}

	ret, err := m.fn.Call(ctx, raw...)
	if err != nil {
		return nil, err
	}

	if m.checkNull {
		if h, ok := ret.(cloak.Handle); ok && h.IsNil() {
			return nil, errors.NullReturn(m.fn.Name(), raw)
		}
	}

	wrapped := Wrap(ret, m.ns, m.reg)
	if len(cells) == 0 {
		return wrapped, nil
	}

	results := make([]any, 0, len(cells)+1)
	results = append(results, wrapped)
	for _, cell := range cells {
		v, err := cell.Deref()
		if err != nil {
			return nil, errors.Wrap(errors.PhaseCall, errors.KindInvalidInput, err,
				"read out-parameter after call")
		}
		results = append(results, v)
	}
	return results, nil
}

// insertOutCells allocates pointer cells for marked positions and splices
// them into the raw argument list. Positions are foreign-signature
// positions; ascending insertion keeps later indices stable.
func (m *BoundMethod) insertOutCells(raw []any) ([]cloak.Handle, []any, error) {
	if len(m.outs) == 0 {
		return nil, raw, nil
	}

	outs := make([]outArg, len(m.outs))
	copy(outs, m.outs)
	sort.Slice(outs, func(i, j int) bool { return outs[i].pos < outs[j].pos })

	params := m.fn.Params()
	cells := make([]cloak.Handle, 0, len(outs))

	for _, o := range outs {
		if o.pos < 0 || o.pos >= len(params) {
			return nil, nil, errors.InvalidInput(errors.PhaseCall,
				"out-parameter position out of range")
		}
		pt := params[o.pos]
		if pt == nil || pt.Kind() != cloak.KindPointer {
			return nil, nil, errors.InvalidInput(errors.PhaseCall,
				"out-parameter position is not a pointer parameter")
		}

		cell, err := m.ns.NewValue(pt)
		if err != nil {
			return nil, nil, errors.AllocationFailed(pt.Name(), err)
		}

		switch o.mode {
		case 'o':
			if o.pos > len(raw) {
				return nil, nil, errors.Arity(m.fn.Name(), len(params)-len(outs), len(raw))
			}
			raw = append(raw[:o.pos], append([]any{cell}, raw[o.pos:]...)...)
		case 'x':
			if o.pos >= len(raw) {
				return nil, nil, errors.Arity(m.fn.Name(), len(params), len(raw))
			}
			if err := cell.SetDeref(raw[o.pos]); err != nil {
				return nil, nil, err
			}
			raw[o.pos] = cell
		}
		cells = append(cells, cell)
	}

	return cells, raw, nil
}
