package proxy

import (
	cloak "github.com/cloakffi/cloak"
	"github.com/cloakffi/cloak/errors"
	"github.com/cloakffi/cloak/registry"
)

// Wrap converts a value produced by a foreign call or field read into its
// caller-facing representation. Handles to structs, unions, and pointers to
// them become proxies per the registry; foreign function values become
// callable bound references; primitive scalars and pointers to primitives
// pass through unchanged. Wrap is applied uniformly at every boundary
// crossing back into Go.
func Wrap(v any, ns cloak.Namespace, reg *registry.Registry) any {
	switch val := v.(type) {
	case nil:
		return nil
	case cloak.Function:
		return &BoundMethod{fn: val, ns: ns, reg: reg}
	case cloak.Handle:
		if reg != nil {
			if f := reg.Resolve(val.Type()); f != nil {
				return f(val, ns, reg)
			}
		}
		return val
	default:
		return v
	}
}

// Unwrap converts a proxy back into its underlying handle. Non-proxy values
// are returned as-is, so Unwrap is safe to apply to every argument of a
// foreign call.
func Unwrap(v any) any {
	if w, ok := v.(registry.Wrapper); ok {
		return w.Handle()
	}
	return v
}

// unwrapChecked is Unwrap with best-effort staleness detection: a wrapper
// with no handle, or whose handle reports itself invalid, is an UnwrapError.
// Handles that cannot report validity are passed through untested.
func unwrapChecked(v any) (any, error) {
	w, ok := v.(registry.Wrapper)
	if !ok {
		return v, nil
	}
	h := w.Handle()
	if h == nil {
		return nil, errors.UnwrapFailed("", "wrapper has no underlying handle")
	}
	if vd, ok := h.(cloak.Validity); ok && !vd.Valid() {
		return nil, errors.UnwrapFailed(typeNameOf(h), "handle is stale")
	}
	return h, nil
}

func typeNameOf(h cloak.Handle) string {
	if h == nil || h.Type() == nil {
		return ""
	}
	return h.Type().Name()
}
