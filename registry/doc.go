// Package registry maps foreign type names to proxy factories.
//
// When a foreign value crosses the boundary back into Go, the registry
// decides how it is presented: a registered factory for its type name, the
// default proxy for any other struct or union, or nothing at all for
// primitive scalars and pointers to primitives (those pass through raw).
//
// A registry is explicit state, created once at startup and threaded
// through wrapping:
//
//	reg := registry.New(proxy.Default)
//	reg.Register("point_t", NewPoint)
//
// Custom proxy classes embed the default proxy and register a constructor,
// typically from init():
//
//	type Point struct{ *proxy.Proxy }
//
//	func init() {
//	    reg.MustRegister("point_t", func(h cloak.Handle, ns cloak.Namespace, r *registry.Registry) registry.Wrapper {
//	        return &Point{proxy.New(h, ns, r)}
//	    })
//	}
//
// Registration is single-threaded startup work; lookups afterwards are
// read-only and take no locks. Concurrent registration is unsupported.
package registry
