// Package wasmgen emits small core WebAssembly modules in binary format.
// It covers just enough of the encoding (type, function, memory, global,
// export, and code sections) to assemble self-contained guest modules for
// demos and tests without shipping prebuilt .wasm artifacts.
package wasmgen

// Value types.
const (
	I32 byte = 0x7F
	I64 byte = 0x7E
	F32 byte = 0x7D
	F64 byte = 0x7C
)

// Section ids.
const (
	sectionType     byte = 1
	sectionFunction byte = 3
	sectionMemory   byte = 5
	sectionGlobal   byte = 6
	sectionExport   byte = 7
	sectionCode     byte = 10
)

// Export kinds.
const (
	kindFunc   byte = 0x00
	kindMemory byte = 0x02
)

// FuncType is a core function signature.
type FuncType struct {
	Params  []byte
	Results []byte
}

// Local declares Count consecutive locals of one value type.
type Local struct {
	Count uint32
	Type  byte
}

type funcEntry struct {
	typeIdx uint32
	locals  []Local
	body    []byte
	export  string
}

type globalEntry struct {
	typ     byte
	mutable bool
	init    []byte
}

// Module accumulates functions, globals, and a memory, then encodes the
// whole thing as a wasm binary. Function indices are assigned in AddFunc
// order; the module imports nothing, so they start at zero.
type Module struct {
	types     []FuncType
	funcs     []funcEntry
	globals   []globalEntry
	memMin    uint32
	memExport string
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{}
}

// SetMemory declares one linear memory with the given minimum page count
// and exports it under exportName.
func (m *Module) SetMemory(minPages uint32, exportName string) {
	m.memMin = minPages
	m.memExport = exportName
}

// AddGlobalI32 declares an i32 global and returns its index.
func (m *Module) AddGlobalI32(mutable bool, init int32) uint32 {
	w := newWriter()
	w.byte(0x41) // i32.const
	w.s32(init)
	w.byte(0x0B) // end
	m.globals = append(m.globals, globalEntry{typ: I32, mutable: mutable, init: w.bytes()})
	return uint32(len(m.globals) - 1)
}

// AddFunc declares a function with the given signature, locals, and body
// and returns its index. The body must include the trailing end opcode.
// An empty export name keeps the function internal.
func (m *Module) AddFunc(export string, ft FuncType, locals []Local, body []byte) uint32 {
	m.funcs = append(m.funcs, funcEntry{
		typeIdx: m.typeIdx(ft),
		locals:  locals,
		body:    body,
		export:  export,
	})
	return uint32(len(m.funcs) - 1)
}

func (m *Module) typeIdx(ft FuncType) uint32 {
	for i, t := range m.types {
		if typeEq(t, ft) {
			return uint32(i)
		}
	}
	m.types = append(m.types, ft)
	return uint32(len(m.types) - 1)
}

func typeEq(a, b FuncType) bool {
	if len(a.Params) != len(b.Params) || len(a.Results) != len(b.Results) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	for i := range a.Results {
		if a.Results[i] != b.Results[i] {
			return false
		}
	}
	return true
}

// Encode renders the module in wasm binary format.
func (m *Module) Encode() []byte {
	w := newWriter()
	w.raw([]byte{0x00, 0x61, 0x73, 0x6D}) // \0asm
	w.raw([]byte{0x01, 0x00, 0x00, 0x00}) // version 1

	if len(m.types) > 0 {
		sec := newWriter()
		sec.u32(uint32(len(m.types)))
		for _, ft := range m.types {
			sec.byte(0x60)
			sec.u32(uint32(len(ft.Params)))
			sec.raw(ft.Params)
			sec.u32(uint32(len(ft.Results)))
			sec.raw(ft.Results)
		}
		w.section(sectionType, sec.bytes())
	}

	if len(m.funcs) > 0 {
		sec := newWriter()
		sec.u32(uint32(len(m.funcs)))
		for _, f := range m.funcs {
			sec.u32(f.typeIdx)
		}
		w.section(sectionFunction, sec.bytes())
	}

	if m.memExport != "" || m.memMin > 0 {
		sec := newWriter()
		sec.u32(1)
		sec.byte(0x00) // min only
		sec.u32(m.memMin)
		w.section(sectionMemory, sec.bytes())
	}

	if len(m.globals) > 0 {
		sec := newWriter()
		sec.u32(uint32(len(m.globals)))
		for _, g := range m.globals {
			sec.byte(g.typ)
			if g.mutable {
				sec.byte(0x01)
			} else {
				sec.byte(0x00)
			}
			sec.raw(g.init)
		}
		w.section(sectionGlobal, sec.bytes())
	}

	var exports int
	for _, f := range m.funcs {
		if f.export != "" {
			exports++
		}
	}
	if m.memExport != "" {
		exports++
	}
	if exports > 0 {
		sec := newWriter()
		sec.u32(uint32(exports))
		for i, f := range m.funcs {
			if f.export == "" {
				continue
			}
			sec.name(f.export)
			sec.byte(kindFunc)
			sec.u32(uint32(i))
		}
		if m.memExport != "" {
			sec.name(m.memExport)
			sec.byte(kindMemory)
			sec.u32(0)
		}
		w.section(sectionExport, sec.bytes())
	}

	if len(m.funcs) > 0 {
		sec := newWriter()
		sec.u32(uint32(len(m.funcs)))
		for _, f := range m.funcs {
			entry := newWriter()
			entry.u32(uint32(len(f.locals)))
			for _, l := range f.locals {
				entry.u32(l.Count)
				entry.byte(l.Type)
			}
			entry.raw(f.body)

			sec.u32(uint32(len(entry.bytes())))
			sec.raw(entry.bytes())
		}
		w.section(sectionCode, sec.bytes())
	}

	return w.bytes()
}
