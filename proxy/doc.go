// Package proxy presents foreign struct/union/pointer values as objects.
//
// A Proxy wraps one foreign handle. Attribute reads resolve against the
// wrapped type's fields first, then against namespace functions whose first
// parameter accepts the wrapped type ("bound method emulation"):
//
//	pt, _ := proxy.Construct(ctx, ns, reg, "make_point", 3, 4)
//	p := pt.(*proxy.Proxy)
//
//	x, _ := p.Get("x")           // field read -> 3
//	_ = p.Set("x", 8)            // field write through the handle
//
//	m, _ := p.Method("setx")     // resolves point_setx(point_t*, int)
//	_, _ = m.Invoke(ctx, 5)      // point_setx(self, 5)
//
// Method names resolve exactly, or through the prefix transform derived
// from the type name: on a point_t proxy, "setx" finds point_setx. Every
// value crossing the boundary is wrapped or unwrapped by the two free
// functions Wrap and Unwrap: struct/union handles become proxies per the
// registry, scalars pass through, proxy arguments collapse back to their
// handles.
//
// Foreign function values wrap into *BoundMethod with no receiver, so a
// wrapped function pointer is invoked with the same unwrap-call-wrap rule,
// minus the implicit self.
//
// # Out-parameters
//
// C functions returning through pointer parameters can be bound with Out
// and InOut positions (positions count the receiver). Out positions vanish
// from the Invoke argument list; the call returns a []any of the wrapped
// return value followed by the final pointee values:
//
//	f, _ := proxy.Func(ns, reg, "set_ptr_succ", proxy.Out(1))
//	res, _ := f.Invoke(ctx, 4)   // []any{42, 5}
//
// # Failure semantics
//
// All failures are synchronous and surface at the failing access: unknown
// names are AttributeNotFound, incompatible writes are TypeMismatch from
// the handle layer, stale wrappers are UnwrapError (best-effort). Nothing
// is retried or swallowed.
package proxy
