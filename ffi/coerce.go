package ffi

import (
	cloak "github.com/cloakffi/cloak"
	"github.com/cloakffi/cloak/errors"
)

// coerce converts a Go value to the in-memory representation of a declared
// type: int -> int32, float -> float32, double -> float64,
// unsigned long long -> uint64. Struct, union, and pointer types expect a
// *Value handle; nil becomes a real NULL handle of the declared type so
// that every handle crossing the boundary has a usable Type and IsNil.
func (l *Library) coerce(v any, t cloak.Type, phase errors.Phase, typeName, attr string) (any, error) {
	switch t.Kind() {
	case cloak.KindStruct, cloak.KindUnion, cloak.KindPointer:
		if v == nil {
			return l.Null(t), nil
		}
		if h, ok := v.(*Value); ok {
			if h == nil {
				return l.Null(t), nil
			}
			return h, nil
		}
		if h, ok := v.(cloak.Handle); ok {
			return h, nil
		}
		return nil, errors.TypeMismatch(phase, typeName, attr, v, t.Name())
	case cloak.KindVoid:
		return nil, nil
	}

	switch t.Name() {
	case "int":
		if i, ok := toInt64(v); ok {
			return int32(i), nil
		}
	case "float":
		if f, ok := toFloat64(v); ok {
			return float32(f), nil
		}
	case "double":
		if f, ok := toFloat64(v); ok {
			return f, nil
		}
	case "unsigned long long":
		if i, ok := toInt64(v); ok {
			return uint64(i), nil
		}
		if u, ok := v.(uint64); ok {
			return u, nil
		}
	}
	return nil, errors.TypeMismatch(phase, typeName, attr, v, t.Name())
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}
