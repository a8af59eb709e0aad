package wasmns

import (
	cloak "github.com/cloakffi/cloak"
	"github.com/cloakffi/cloak/errors"
)

// Ptr is an address handle into guest linear memory. It borrows the
// memory it points at; the guest owns allocation and reclamation.
type Ptr struct {
	mod  *Module
	typ  cloak.Type
	addr uint32
}

var _ cloak.Handle = (*Ptr)(nil)

// Type returns the declared type of the referenced value.
func (p *Ptr) Type() cloak.Type { return p.typ }

// ID returns the guest address. Address equality is value identity.
func (p *Ptr) ID() uint64 { return uint64(p.addr) }

// IsNil reports whether the handle is NULL (address zero).
func (p *Ptr) IsNil() bool { return p.addr == 0 }

// Addr returns the raw guest address.
func (p *Ptr) Addr() uint32 { return p.addr }

// structLayout returns the layout the handle presents fields of,
// dereferencing one level of pointer.
func (p *Ptr) structLayout() *structType {
	t := p.typ
	if t != nil && t.Kind() == cloak.KindPointer {
		t = t.Elem()
	}
	st, _ := t.(*structType)
	return st
}

func (p *Ptr) fieldAt(phase errors.Phase, field string) (cloak.Type, uint32, error) {
	st := p.structLayout()
	if st == nil {
		return nil, 0, errors.Unsupported(phase, "handle does not reference a struct")
	}
	if p.addr == 0 {
		return nil, 0, errors.InvalidInput(phase, "NULL dereference")
	}
	for _, f := range st.fields {
		if f.Name == field {
			return f.Type, p.addr + st.offsets[field], nil
		}
	}
	return nil, 0, errors.FieldUnknown(phase, st.name, field)
}

// Get reads a struct field from guest memory.
func (p *Ptr) Get(field string) (any, error) {
	ft, addr, err := p.fieldAt(errors.PhaseGet, field)
	if err != nil {
		return nil, err
	}
	switch ft.Kind() {
	case cloak.KindPrimitive:
		return p.readPrim(errors.PhaseGet, ft, addr)
	case cloak.KindPointer:
		v, ok := p.mod.Memory().ReadUint32Le(addr)
		if !ok {
			return nil, errors.InvalidInput(errors.PhaseGet, "field address out of memory range")
		}
		return &Ptr{mod: p.mod, typ: ft, addr: v}, nil
	case cloak.KindStruct, cloak.KindUnion:
		// Embedded structs are referenced in place.
		return &Ptr{mod: p.mod, typ: ft, addr: addr}, nil
	}
	return nil, errors.Unsupported(errors.PhaseGet, "field type "+ft.Name())
}

// Set writes a struct field into guest memory.
func (p *Ptr) Set(field string, value any) error {
	ft, addr, err := p.fieldAt(errors.PhaseSet, field)
	if err != nil {
		return err
	}
	switch ft.Kind() {
	case cloak.KindPrimitive:
		return p.writePrim(errors.PhaseSet, ft, addr, field, value)
	case cloak.KindPointer:
		var target uint32
		switch v := value.(type) {
		case nil:
		case *Ptr:
			if v != nil {
				target = v.addr
			}
		case cloak.Handle:
			target = uint32(v.ID())
		default:
			return errors.TypeMismatch(errors.PhaseSet, p.typeName(), field, value, ft.Name())
		}
		if !p.mod.Memory().WriteUint32Le(addr, target) {
			return errors.InvalidInput(errors.PhaseSet, "field address out of memory range")
		}
		return nil
	}
	return errors.Unsupported(errors.PhaseSet, "field type "+ft.Name())
}

// Deref reads the pointee of a pointer-to-primitive handle.
func (p *Ptr) Deref() (any, error) {
	elem, err := p.pointee(errors.PhaseGet)
	if err != nil {
		return nil, err
	}
	return p.readPrim(errors.PhaseGet, elem, p.addr)
}

// SetDeref writes the pointee of a pointer-to-primitive handle.
func (p *Ptr) SetDeref(value any) error {
	elem, err := p.pointee(errors.PhaseSet)
	if err != nil {
		return err
	}
	return p.writePrim(errors.PhaseSet, elem, p.addr, "*", value)
}

func (p *Ptr) pointee(phase errors.Phase) (cloak.Type, error) {
	if p.typ == nil || p.typ.Kind() != cloak.KindPointer || p.typ.Elem() == nil ||
		p.typ.Elem().Kind() != cloak.KindPrimitive {
		return nil, errors.Unsupported(phase, "handle is not a pointer to a primitive")
	}
	if p.addr == 0 {
		return nil, errors.InvalidInput(phase, "NULL dereference")
	}
	return p.typ.Elem(), nil
}

func (p *Ptr) typeName() string {
	if p.typ == nil {
		return ""
	}
	return p.typ.Name()
}

func (p *Ptr) readPrim(phase errors.Phase, t cloak.Type, addr uint32) (any, error) {
	mem := p.mod.Memory()
	switch t.Name() {
	case "int":
		v, ok := mem.ReadUint32Le(addr)
		if !ok {
			break
		}
		return int32(v), nil
	case "float":
		v, ok := mem.ReadFloat32Le(addr)
		if !ok {
			break
		}
		return v, nil
	case "double":
		v, ok := mem.ReadFloat64Le(addr)
		if !ok {
			break
		}
		return v, nil
	case "unsigned long long":
		v, ok := mem.ReadUint64Le(addr)
		if !ok {
			break
		}
		return v, nil
	default:
		return nil, errors.Unsupported(phase, "primitive type "+t.Name())
	}
	return nil, errors.InvalidInput(phase, "address out of memory range")
}

func (p *Ptr) writePrim(phase errors.Phase, t cloak.Type, addr uint32, attr string, value any) error {
	mem := p.mod.Memory()
	var ok bool
	switch t.Name() {
	case "int":
		i, convOK := toInt64(value)
		if !convOK {
			return errors.TypeMismatch(phase, p.typeName(), attr, value, "int")
		}
		ok = mem.WriteUint32Le(addr, uint32(int32(i)))
	case "float":
		f, convOK := toFloat64(value)
		if !convOK {
			return errors.TypeMismatch(phase, p.typeName(), attr, value, "float")
		}
		ok = mem.WriteFloat32Le(addr, float32(f))
	case "double":
		f, convOK := toFloat64(value)
		if !convOK {
			return errors.TypeMismatch(phase, p.typeName(), attr, value, "double")
		}
		ok = mem.WriteFloat64Le(addr, f)
	case "unsigned long long":
		i, convOK := toInt64(value)
		if !convOK {
			return errors.TypeMismatch(phase, p.typeName(), attr, value, "unsigned long long")
		}
		ok = mem.WriteUint64Le(addr, uint64(i))
	default:
		return errors.Unsupported(phase, "primitive type "+t.Name())
	}
	if !ok {
		return errors.InvalidInput(phase, "address out of memory range")
	}
	return nil
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
