package ffi

import (
	"context"

	cloak "github.com/cloakffi/cloak"
	"github.com/cloakffi/cloak/errors"
)

// funcDef is a registered foreign function.
type funcDef struct {
	lib    *Library
	name   string
	params []cloak.Type
	result cloak.Type
	impl   Impl
}

var _ cloak.Function = (*funcDef)(nil)

func (f *funcDef) Name() string { return f.name }

func (f *funcDef) Params() []cloak.Type { return f.params }

func (f *funcDef) Result() cloak.Type { return f.result }

// Call coerces arguments against the declared signature, runs the
// implementation, and coerces the result. Pointer and struct parameters
// must arrive as handles; scalar parameters accept any compatible Go
// number.
func (f *funcDef) Call(ctx context.Context, args ...any) (any, error) {
	if len(args) != len(f.params) {
		return nil, errors.Arity(f.name, len(f.params), len(args))
	}

	coerced := make([]any, len(args))
	for i, a := range args {
		v, err := f.lib.coerce(a, f.params[i], errors.PhaseCall, f.name, "")
		if err != nil {
			return nil, err
		}
		coerced[i] = v
	}

	ret, err := f.impl(coerced)
	if err != nil {
		return nil, err
	}

	if f.result == nil || f.result.Kind() == cloak.KindVoid {
		return nil, nil
	}
	if h, ok := ret.(cloak.Handle); ok {
		return h, nil
	}
	return f.lib.coerce(ret, f.result, errors.PhaseCall, f.name, "")
}
