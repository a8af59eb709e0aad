package proxy

import (
	"strings"

	cloak "github.com/cloakffi/cloak"
	"github.com/cloakffi/cloak/errors"
	"github.com/cloakffi/cloak/registry"
)

// Proxy presents a foreign struct, union, or pointer value as an object
// with named-field access and method-style calls. It wraps exactly one
// handle, borrowed from the caller; the proxy never copies or frees the
// underlying foreign memory.
//
// A Proxy is a pure facade: every operation is a stateless translation of
// one access into a foreign read, write, or call.
type Proxy struct {
	handle cloak.Handle
	ns     cloak.Namespace
	reg    *registry.Registry
}

// New wraps a handle. ns is the namespace methods resolve against, reg
// decides how nested results are wrapped.
func New(h cloak.Handle, ns cloak.Namespace, reg *registry.Registry) *Proxy {
	return &Proxy{handle: h, ns: ns, reg: reg}
}

// Default is the proxy factory used by registries for unregistered struct
// and union types.
var Default registry.Factory = func(h cloak.Handle, ns cloak.Namespace, reg *registry.Registry) registry.Wrapper {
	return New(h, ns, reg)
}

// NewRegistry creates a registry whose default factory produces *Proxy.
func NewRegistry() *registry.Registry {
	return registry.New(Default)
}

// Handle returns the wrapped foreign handle.
func (p *Proxy) Handle() cloak.Handle { return p.handle }

// Namespace returns the owning foreign namespace.
func (p *Proxy) Namespace() cloak.Namespace { return p.ns }

// TypeName returns the resolved type name of the wrapped handle.
func (p *Proxy) TypeName() string {
	if p.handle == nil || p.handle.Type() == nil {
		return ""
	}
	return p.handle.Type().Name()
}

// structType returns the struct/union type the proxy presents fields of,
// dereferencing one level of pointer.
func (p *Proxy) structType() cloak.Type {
	if p.handle == nil {
		return nil
	}
	t := p.handle.Type()
	if t != nil && t.Kind() == cloak.KindPointer {
		t = t.Elem()
	}
	return t
}

func (p *Proxy) fieldType(name string) (cloak.Type, bool) {
	st := p.structType()
	if st == nil {
		return nil, false
	}
	for _, f := range st.Fields() {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// Get resolves an attribute read. Field names read through the handle,
// with struct/union/pointer-to-struct results wrapped via the registry and
// scalars returned untouched. Names that are not fields resolve to methods:
// namespace functions taking the wrapped type as their first parameter,
// under the exact name or the type-prefix transform (point_t + "setx" ->
// point_setx). Anything else is an AttributeNotFound error.
func (p *Proxy) Get(name string) (any, error) {
	if _, ok := p.fieldType(name); ok {
		v, err := p.handle.Get(name)
		if err != nil {
			return nil, err
		}
		return Wrap(v, p.ns, p.reg), nil
	}

	if m := p.findMethod(name); m != nil {
		return m, nil
	}

	return nil, errors.AttributeNotFound(p.TypeName(), name)
}

// Set resolves an attribute write. The value is unwrapped if it is a proxy;
// type mismatches surface from the underlying handle write. Names that are
// not fields fail with AttributeNotFound.
func (p *Proxy) Set(name string, value any) error {
	if _, ok := p.fieldType(name); !ok {
		return errors.AttributeNotFound(p.TypeName(), name)
	}
	raw, err := unwrapChecked(value)
	if err != nil {
		return err
	}
	return p.handle.Set(name, raw)
}

// Method resolves a method-style attribute and applies call options.
// It fails with AttributeNotFound when no namespace function matches.
func (p *Proxy) Method(name string, opts ...CallOption) (*BoundMethod, error) {
	m := p.findMethod(name)
	if m == nil {
		return nil, errors.AttributeNotFound(p.TypeName(), name)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// findMethod searches the namespace for a function whose first parameter
// accepts the wrapped handle, under the exact name or the prefix transform.
func (p *Proxy) findMethod(name string) *BoundMethod {
	if p.ns == nil {
		return nil
	}

	candidates := []string{name}
	if prefix := methodPrefix(p.structTypeName()); prefix != "" {
		candidates = append(candidates, prefix+"_"+name)
	}

	for _, fname := range candidates {
		fn, ok := p.ns.Function(fname)
		if !ok {
			continue
		}
		if !p.acceptsSelf(fn) {
			continue
		}
		logger().Debug("resolved method",
			typeField(p.TypeName()), attrField(name), funcField(fn.Name()))
		return &BoundMethod{fn: fn, self: p, ns: p.ns, reg: p.reg}
	}
	return nil
}

func (p *Proxy) structTypeName() string {
	if st := p.structType(); st != nil {
		return st.Name()
	}
	return ""
}

// acceptsSelf reports whether fn's first parameter type matches the wrapped
// handle's type, directly or through one level of pointer.
func (p *Proxy) acceptsSelf(fn cloak.Function) bool {
	params := fn.Params()
	if len(params) == 0 || params[0] == nil {
		return false
	}
	param := params[0]

	selfName := p.TypeName()
	structName := p.structTypeName()

	if param.Name() == selfName || param.Name() == structName {
		return true
	}
	if param.Kind() == cloak.KindPointer && param.Elem() != nil {
		return param.Elem().Name() == structName
	}
	return false
}

// methodPrefix derives the shortened-method-name prefix from a type name:
// "point_t" -> "point". Types without the _t convention use their own name.
func methodPrefix(typeName string) string {
	if typeName == "" {
		return ""
	}
	return strings.TrimSuffix(typeName, "_t")
}

// Equal reports whether other wraps (or is) the same underlying foreign
// value. Comparison is on handle identity, not wrapper identity.
func (p *Proxy) Equal(other any) bool {
	if p.handle == nil {
		return false
	}
	var oh cloak.Handle
	switch o := other.(type) {
	case cloak.Handle:
		oh = o
	case registry.Wrapper:
		oh = o.Handle()
	default:
		return false
	}
	if oh == nil {
		return false
	}
	return p.handle.ID() == oh.ID()
}
