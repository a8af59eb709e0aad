package wasmgen

// Instruction opcodes used by the assembled bodies.
const (
	opLocalGet  byte = 0x20
	opLocalSet  byte = 0x21
	opGlobalGet byte = 0x23
	opGlobalSet byte = 0x24
	opI32Load   byte = 0x28
	opI32Store  byte = 0x36
	opI32Const  byte = 0x41
	opI32Add    byte = 0x6A
	opI32Sub    byte = 0x6B
	opF64Sqrt   byte = 0x9F
	opF64Add    byte = 0xA0
	opF64Mul    byte = 0xA2
	opConvF64S  byte = 0xB7
	opCall      byte = 0x10
	opEnd       byte = 0x0B
)

// PointModule assembles a guest module implementing a point library: an
// exported memory, a bump allocator, and the point_t constructor,
// accessors, and distance function. The layout is two i32 fields, x at
// offset 0 and y at offset 4. The allocator never reuses memory, so
// del_point is a no-op and address 0 stays reserved as NULL.
func PointModule() []byte {
	m := NewModule()
	m.SetMemory(1, "memory")

	// Heap pointer. Starts past address 0 so NULL is never handed out.
	m.AddGlobalI32(true, 8)

	// alloc(size) -> old heap pointer, heap pointer += size.
	alloc := m.AddFunc("alloc",
		FuncType{Params: []byte{I32}, Results: []byte{I32}},
		nil,
		[]byte{
			opGlobalGet, 0,
			opGlobalGet, 0,
			opLocalGet, 0,
			opI32Add,
			opGlobalSet, 0,
			opEnd,
		})

	// make_point(x, y) -> p
	m.AddFunc("make_point",
		FuncType{Params: []byte{I32, I32}, Results: []byte{I32}},
		[]Local{{Count: 1, Type: I32}},
		[]byte{
			opI32Const, 8,
			opCall, byte(alloc),
			opLocalSet, 2,
			opLocalGet, 2, opLocalGet, 0, opI32Store, 2, 0,
			opLocalGet, 2, opLocalGet, 1, opI32Store, 2, 4,
			opLocalGet, 2,
			opEnd,
		})

	// del_point(p): nothing to reclaim with a bump allocator.
	m.AddFunc("del_point",
		FuncType{Params: []byte{I32}},
		nil,
		[]byte{opEnd})

	m.AddFunc("point_x",
		FuncType{Params: []byte{I32}, Results: []byte{I32}},
		nil,
		[]byte{opLocalGet, 0, opI32Load, 2, 0, opEnd})

	m.AddFunc("point_y",
		FuncType{Params: []byte{I32}, Results: []byte{I32}},
		nil,
		[]byte{opLocalGet, 0, opI32Load, 2, 4, opEnd})

	// point_setx(p, v) -> p
	m.AddFunc("point_setx",
		FuncType{Params: []byte{I32, I32}, Results: []byte{I32}},
		nil,
		[]byte{
			opLocalGet, 0, opLocalGet, 1, opI32Store, 2, 0,
			opLocalGet, 0,
			opEnd,
		})

	m.AddFunc("point_sety",
		FuncType{Params: []byte{I32, I32}, Results: []byte{I32}},
		nil,
		[]byte{
			opLocalGet, 0, opLocalGet, 1, opI32Store, 2, 4,
			opLocalGet, 0,
			opEnd,
		})

	// point_dist(p1, p2) -> sqrt(dx*dx + dy*dy)
	m.AddFunc("point_dist",
		FuncType{Params: []byte{I32, I32}, Results: []byte{F64}},
		[]Local{{Count: 2, Type: F64}},
		[]byte{
			opLocalGet, 1, opI32Load, 2, 0,
			opLocalGet, 0, opI32Load, 2, 0,
			opI32Sub, opConvF64S, opLocalSet, 2,
			opLocalGet, 1, opI32Load, 2, 4,
			opLocalGet, 0, opI32Load, 2, 4,
			opI32Sub, opConvF64S, opLocalSet, 3,
			opLocalGet, 2, opLocalGet, 2, opF64Mul,
			opLocalGet, 3, opLocalGet, 3, opF64Mul,
			opF64Add, opF64Sqrt,
			opEnd,
		})

	// set_ptr_succ(i, j) stores i+1 through j and returns 42.
	m.AddFunc("set_ptr_succ",
		FuncType{Params: []byte{I32, I32}, Results: []byte{I32}},
		nil,
		[]byte{
			opLocalGet, 1,
			opLocalGet, 0, opI32Const, 1, opI32Add,
			opI32Store, 2, 0,
			opI32Const, 42,
			opEnd,
		})

	return m.Encode()
}
