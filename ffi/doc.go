// Package ffi is an in-memory implementation of the foreign namespace
// capability.
//
// A Library holds declared types, registered functions, and an arena of
// live foreign values. Handles are typed references into the arena; slot
// numbers give them stable identity, and freeing a value makes every
// handle to it stale (Valid() reports false).
//
//	lib := ffi.NewLibrary()
//	point := lib.DefineStruct("point_t",
//	    cloak.Field{Name: "x", Type: ffi.Int},
//	    cloak.Field{Name: "y", Type: ffi.Int},
//	)
//	lib.RegisterFunc("point_x", []cloak.Type{ffi.PointerTo(point)}, ffi.Int,
//	    func(args []any) (any, error) {
//	        return args[0].(*ffi.Value).Get("x")
//	    })
//
// Values are stored in their C representation: int as int32, float as
// float32, double as float64, unsigned long long as uint64. Argument and
// field writes coerce compatible Go numbers and reject everything else
// with a TypeMismatch error, which is how the proxy layer's type errors
// originate.
//
// The package stands in for a real binding runtime in tests and the demo
// CLI; the proxy layer never depends on it directly.
package ffi
