package ffi

import (
	cloak "github.com/cloakffi/cloak"
	"github.com/cloakffi/cloak/errors"
)

// structInst is a live struct or union value in the arena.
type structInst struct {
	typ    cloak.Type
	fields map[string]any
}

// cellInst is a primitive cell or array in the arena, referenced through a
// pointer handle.
type cellInst struct {
	elem cloak.Type
	vals []any
}

// Value is the ffi package's handle: a typed reference into the arena.
// A Value with slot 0 is NULL.
type Value struct {
	lib  *Library
	typ  cloak.Type
	slot uint32
}

var (
	_ cloak.Handle   = (*Value)(nil)
	_ cloak.Validity = (*Value)(nil)
)

// Type returns the declared type of the referenced value.
func (v *Value) Type() cloak.Type { return v.typ }

// ID returns the arena slot, which identifies the referenced value.
func (v *Value) ID() uint64 { return uint64(v.slot) }

// IsNil reports whether this is a NULL handle.
func (v *Value) IsNil() bool { return v.slot == 0 }

// Valid reports whether the referenced value is still live in the arena.
// Freed values make their handles stale.
func (v *Value) Valid() bool {
	if v.slot == 0 {
		return false
	}
	return v.lib.arena.valid(v.slot)
}

func (v *Value) structInst(phase errors.Phase) (*structInst, error) {
	raw, ok := v.lib.arena.get(v.slot)
	if !ok {
		return nil, errors.UnwrapFailed(v.typ.Name(), "handle is stale or NULL")
	}
	si, ok := raw.(*structInst)
	if !ok {
		return nil, errors.Unsupported(phase, "handle does not reference a struct or union")
	}
	return si, nil
}

func (v *Value) cellInst(phase errors.Phase) (*cellInst, error) {
	raw, ok := v.lib.arena.get(v.slot)
	if !ok {
		return nil, errors.UnwrapFailed(v.typ.Name(), "handle is stale or NULL")
	}
	ci, ok := raw.(*cellInst)
	if !ok {
		return nil, errors.Unsupported(phase, "handle does not reference a primitive cell")
	}
	return ci, nil
}

// Get reads a struct or union field.
func (v *Value) Get(field string) (any, error) {
	si, err := v.structInst(errors.PhaseGet)
	if err != nil {
		return nil, err
	}
	val, ok := si.fields[field]
	if !ok {
		return nil, errors.FieldUnknown(errors.PhaseGet, si.typ.Name(), field)
	}
	return val, nil
}

// Set writes a struct or union field, coercing the value to the declared
// field type. Incompatible values fail with a TypeMismatch error.
func (v *Value) Set(field string, value any) error {
	si, err := v.structInst(errors.PhaseSet)
	if err != nil {
		return err
	}

	var ft cloak.Type
	for _, f := range si.typ.Fields() {
		if f.Name == field {
			ft = f.Type
			break
		}
	}
	if ft == nil {
		return errors.FieldUnknown(errors.PhaseSet, si.typ.Name(), field)
	}

	coerced, err := v.lib.coerce(value, ft, errors.PhaseSet, si.typ.Name(), field)
	if err != nil {
		return err
	}
	si.fields[field] = coerced
	return nil
}

// Deref reads the pointee of a pointer-to-primitive handle.
func (v *Value) Deref() (any, error) {
	ci, err := v.cellInst(errors.PhaseGet)
	if err != nil {
		return nil, err
	}
	return ci.vals[0], nil
}

// SetDeref writes the pointee of a pointer-to-primitive handle.
func (v *Value) SetDeref(value any) error {
	ci, err := v.cellInst(errors.PhaseSet)
	if err != nil {
		return err
	}
	coerced, err := v.lib.coerce(value, ci.elem, errors.PhaseSet, v.typ.Name(), "*")
	if err != nil {
		return err
	}
	ci.vals[0] = coerced
	return nil
}

// Len returns the element count of an array cell (1 for plain cells).
func (v *Value) Len() (int, error) {
	ci, err := v.cellInst(errors.PhaseGet)
	if err != nil {
		return 0, err
	}
	return len(ci.vals), nil
}

// At reads array element i.
func (v *Value) At(i int) (any, error) {
	ci, err := v.cellInst(errors.PhaseGet)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(ci.vals) {
		return nil, errors.InvalidInput(errors.PhaseGet, "array index out of range")
	}
	return ci.vals[i], nil
}

// SetAt writes array element i.
func (v *Value) SetAt(i int, value any) error {
	ci, err := v.cellInst(errors.PhaseSet)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(ci.vals) {
		return errors.InvalidInput(errors.PhaseSet, "array index out of range")
	}
	coerced, err := v.lib.coerce(value, ci.elem, errors.PhaseSet, v.typ.Name(), "[]")
	if err != nil {
		return err
	}
	ci.vals[i] = coerced
	return nil
}
