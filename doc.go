// Package cloak maps foreign function signatures and C struct/union fields
// onto object-attribute access.
//
// Many C APIs are sets of free functions that take a common struct pointer
// as their first argument. cloak presents such an API as objects: field
// access reads and writes through the underlying foreign handle, and
// method-style access resolves to foreign functions taking the wrapped type
// as their first parameter. Foreign values returned across the boundary are
// recursively wrapped into proxies; proxies passed as arguments are
// unwrapped back into their handles.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	cloak/               Root package with the foreign namespace capability
//	                     interfaces (Namespace, Function, Type, Handle)
//	├── proxy/           Proxy objects, bound methods, wrap/unwrap
//	├── registry/        Type name to proxy factory registry
//	├── ffi/             In-memory Namespace implementation
//	├── wasmns/          wazero-backed Namespace over a WASM module
//	├── testlib/         Arithmetic/struct fixture library for tests
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Wrap a constructor result and use attribute access:
//
//	ns := testlib.New()
//	reg := registry.New(proxy.Default)
//
//	p, err := proxy.Construct(ctx, ns, reg, "make_point", 3, 4)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pt := p.(*proxy.Proxy)
//
//	x, _ := pt.Get("x")          // struct field read
//	m, _ := pt.Method("setx")    // resolves point_setx
//	m.Invoke(ctx, 8)             // point_setx(self, 8)
//
// # The Foreign Namespace Capability
//
// The proxy layer is backend-agnostic. Anything implementing Namespace can
// be cloaked: the in-memory ffi package, the wasmns adapter over a wazero
// module, or a user-supplied binding layer. The capability is deliberately
// small: look up functions and types by name, read/write fields through a
// typed handle, invoke a function with positional arguments.
//
// # Ownership
//
// Proxies borrow their handles. Nothing in this layer copies, frees, or
// reference-counts foreign memory; callers drive explicit release functions
// (construct/destroy pairs) exactly as they would without the proxies.
package cloak
