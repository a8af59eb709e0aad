// Package wasmns binds a WebAssembly guest module as a foreign namespace.
//
// A guest compiled from C-style code exports plain functions over scalar
// wasm types; struct layout lives in linear memory and is invisible to the
// host. The Interface descriptor restores what a header would declare:
// struct field offsets and C-style function signatures. With it, a Module
// presents the guest as a cloak.Namespace, so the proxy layer works over
// wasm exactly as it does over any other binding substrate:
//
//	r := wazero.NewRuntime(ctx)
//	defer r.Close(ctx)
//
//	ns, err := wasmns.Load(ctx, r, guestBinary, iface)
//	if err != nil {
//		...
//	}
//	reg := proxy.NewRegistry()
//	pt, err := proxy.Construct(ctx, ns, reg, "make_point", 3, 4)
//
// Handles are guest addresses. Field access reads and writes linear memory
// directly at the declared offsets; calls lower arguments to the wasm
// calling convention and lift the declared result type back, wrapping
// pointer results as new address handles. Allocation via NewValue requires
// the descriptor to name an exported allocator with signature (i32) -> i32.
//
// The package tracks no liveness: a handle to memory the guest has freed
// still reads and writes whatever sits at that address. That matches the
// semantics of the underlying library, not a safety layer on top of it.
package wasmns
