package wasmns

import (
	"context"
	"strconv"

	"github.com/tetratelabs/wazero/api"

	cloak "github.com/cloakffi/cloak"
	"github.com/cloakffi/cloak/errors"
)

// fn adapts an exported guest function to the foreign function capability.
// Arguments are lowered to the wasm calling convention (everything is a
// uint64 on the wire) and the single result is lifted per the declared
// signature.
type fn struct {
	mod    *Module
	name   string
	ef     api.Function
	params []cloak.Type
	result cloak.Type
}

var _ cloak.Function = (*fn)(nil)

func (f *fn) Name() string         { return f.name }
func (f *fn) Params() []cloak.Type { return f.params }
func (f *fn) Result() cloak.Type   { return f.result }

// Call invokes the exported function.
func (f *fn) Call(ctx context.Context, args ...any) (any, error) {
	if len(args) != len(f.params) {
		return nil, errors.Arity(f.name, len(f.params), len(args))
	}

	raw := make([]uint64, len(args))
	for i, a := range args {
		v, err := f.lower(a, f.params[i], i)
		if err != nil {
			return nil, err
		}
		raw[i] = v
	}

	res, err := f.ef.Call(ctx, raw...)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCall, errors.KindInvalidInput, err, "call "+f.name)
	}
	return f.lift(res)
}

func (f *fn) lower(v any, t cloak.Type, pos int) (uint64, error) {
	switch t.Kind() {
	case cloak.KindPointer, cloak.KindStruct, cloak.KindUnion:
		switch h := v.(type) {
		case nil:
			return 0, nil
		case *Ptr:
			if h == nil {
				return 0, nil
			}
			return uint64(h.addr), nil
		case cloak.Handle:
			return h.ID(), nil
		}
		return 0, errors.TypeMismatch(errors.PhaseCall, f.name, argName(pos), v, t.Name())
	}

	switch t.Name() {
	case "int":
		i, ok := toInt64(v)
		if !ok {
			return 0, errors.TypeMismatch(errors.PhaseCall, f.name, argName(pos), v, "int")
		}
		return api.EncodeI32(int32(i)), nil
	case "float":
		fl, ok := toFloat64(v)
		if !ok {
			return 0, errors.TypeMismatch(errors.PhaseCall, f.name, argName(pos), v, "float")
		}
		return api.EncodeF32(float32(fl)), nil
	case "double":
		fl, ok := toFloat64(v)
		if !ok {
			return 0, errors.TypeMismatch(errors.PhaseCall, f.name, argName(pos), v, "double")
		}
		return api.EncodeF64(fl), nil
	case "unsigned long long":
		i, ok := toInt64(v)
		if !ok {
			return 0, errors.TypeMismatch(errors.PhaseCall, f.name, argName(pos), v, "unsigned long long")
		}
		return uint64(i), nil
	}
	return 0, errors.Unsupported(errors.PhaseCall, "parameter type "+t.Name())
}

func (f *fn) lift(res []uint64) (any, error) {
	if f.result.Kind() == cloak.KindVoid {
		return nil, nil
	}
	if len(res) == 0 {
		return nil, errors.InvalidInput(errors.PhaseCall, f.name+" returned no value")
	}

	switch f.result.Kind() {
	case cloak.KindPointer:
		return &Ptr{mod: f.mod, typ: f.result, addr: uint32(res[0])}, nil
	case cloak.KindStruct, cloak.KindUnion:
		return &Ptr{mod: f.mod, typ: f.result, addr: uint32(res[0])}, nil
	}

	switch f.result.Name() {
	case "int":
		return api.DecodeI32(res[0]), nil
	case "float":
		return api.DecodeF32(res[0]), nil
	case "double":
		return api.DecodeF64(res[0]), nil
	case "unsigned long long":
		return res[0], nil
	}
	return nil, errors.Unsupported(errors.PhaseCall, "result type "+f.result.Name())
}

func argName(pos int) string {
	return "arg" + strconv.Itoa(pos)
}
