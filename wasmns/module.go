package wasmns

import (
	"context"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	cloak "github.com/cloakffi/cloak"
	"github.com/cloakffi/cloak/errors"
)

// Module presents an instantiated guest module as a foreign namespace.
// Handles are addresses into the guest's linear memory; field reads and
// writes go straight to memory at the offsets the interface descriptor
// declares, and calls go through the module's exported functions.
type Module struct {
	mod   api.Module
	iface *Interface
	types map[string]cloak.Type
	funcs map[string]*fn
	alloc api.Function
}

var _ cloak.Namespace = (*Module)(nil)

// New wraps an already instantiated guest module. Every declared function
// must be exported by the module.
func New(mod api.Module, iface *Interface) (*Module, error) {
	types, err := resolveTypes(iface)
	if err != nil {
		return nil, err
	}

	m := &Module{
		mod:   mod,
		iface: iface,
		types: types,
		funcs: make(map[string]*fn, len(iface.Funcs)),
	}

	for _, fd := range iface.Funcs {
		ef := mod.ExportedFunction(fd.Name)
		if ef == nil {
			return nil, errors.NotFound(errors.PhaseResolve, "exported function", fd.Name)
		}
		params := make([]cloak.Type, len(fd.Params))
		for i, p := range fd.Params {
			t, ok := typeByName(types, p)
			if !ok {
				return nil, errors.NotFound(errors.PhaseResolve, "type", p)
			}
			params[i] = t
		}
		result := cloak.Type(voidType{})
		if fd.Result != "" {
			t, ok := typeByName(types, fd.Result)
			if !ok {
				return nil, errors.NotFound(errors.PhaseResolve, "type", fd.Result)
			}
			result = t
		}
		m.funcs[fd.Name] = &fn{mod: m, name: fd.Name, ef: ef, params: params, result: result}
	}

	if iface.Alloc != "" {
		m.alloc = mod.ExportedFunction(iface.Alloc)
		if m.alloc == nil {
			return nil, errors.NotFound(errors.PhaseResolve, "exported function", iface.Alloc)
		}
	}

	if mod.Memory() == nil {
		return nil, errors.InvalidInput(errors.PhaseResolve, "guest module exports no memory")
	}
	return m, nil
}

// Load compiles and instantiates a guest binary on the given runtime and
// wraps it. The caller owns the runtime's lifecycle.
func Load(ctx context.Context, r wazero.Runtime, bin []byte, iface *Interface) (*Module, error) {
	mod, err := r.Instantiate(ctx, bin)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseResolve, errors.KindInvalidInput, err,
			"instantiate guest module")
	}
	logger().Debug("guest module instantiated", nameField(iface.Name))
	return New(mod, iface)
}

// Function looks up a declared function by name.
func (m *Module) Function(name string) (cloak.Function, bool) {
	f, ok := m.funcs[name]
	if !ok {
		return nil, false
	}
	return f, true
}

// Functions lists declared functions in name order.
func (m *Module) Functions() []cloak.Function {
	out := make([]cloak.Function, 0, len(m.funcs))
	for _, f := range m.funcs {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Type looks up a declared type by name, following pointer suffixes.
func (m *Module) Type(name string) (cloak.Type, bool) {
	return typeByName(m.types, name)
}

// NewValue allocates zeroed guest memory for a struct, union, or pointee
// and returns an address handle. Requires a declared allocator.
func (m *Module) NewValue(t cloak.Type) (cloak.Handle, error) {
	var size uint32
	switch t.Kind() {
	case cloak.KindStruct, cloak.KindUnion:
		size = sizeOf(t)
	case cloak.KindPointer:
		if t.Elem() == nil {
			return nil, errors.InvalidInput(errors.PhaseAlloc, "pointer type has no pointee")
		}
		size = sizeOf(t.Elem())
	default:
		return nil, errors.Unsupported(errors.PhaseAlloc, "cannot allocate non-composite type "+t.Name())
	}
	if size == 0 {
		return nil, errors.Unsupported(errors.PhaseAlloc, "type "+t.Name()+" has no known size")
	}

	addr, err := m.allocate(size)
	if err != nil {
		return nil, err
	}
	return &Ptr{mod: m, typ: t, addr: addr}, nil
}

func (m *Module) allocate(size uint32) (uint32, error) {
	if m.alloc == nil {
		return 0, errors.Unsupported(errors.PhaseAlloc, "interface declares no allocator")
	}
	res, err := m.alloc.Call(context.Background(), api.EncodeI32(int32(size)))
	if err != nil {
		return 0, errors.AllocationFailed(m.iface.Alloc, err)
	}
	addr := uint32(res[0])
	if addr == 0 {
		return 0, errors.AllocationFailed(m.iface.Alloc, nil)
	}
	if !m.mod.Memory().Write(addr, make([]byte, size)) {
		return 0, errors.InvalidInput(errors.PhaseAlloc, "allocated address out of memory range")
	}
	return addr, nil
}

// Null returns a NULL handle of the given pointer type.
func (m *Module) Null(t cloak.Type) *Ptr {
	return &Ptr{mod: m, typ: t, addr: 0}
}

// Memory exposes the guest's linear memory, mainly for tests.
func (m *Module) Memory() api.Memory { return m.mod.Memory() }
