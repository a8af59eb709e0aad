package proxy

import (
	"context"
	stderrors "errors"
	"testing"

	cloak "github.com/cloakffi/cloak"
	"github.com/cloakffi/cloak/errors"
	"github.com/cloakffi/cloak/ffi"
	"github.com/cloakffi/cloak/registry"
	"github.com/cloakffi/cloak/testlib"
)

func newPoint(t *testing.T, ns cloak.Namespace, reg *registry.Registry, x, y int) *Proxy {
	t.Helper()
	v, err := Construct(context.Background(), ns, reg, "make_point", x, y)
	if err != nil {
		t.Fatalf("make_point: %v", err)
	}
	p, ok := v.(*Proxy)
	if !ok {
		t.Fatalf("make_point wrapped as %T, want *Proxy", v)
	}
	return p
}

func getInt(t *testing.T, p *Proxy, name string) int32 {
	t.Helper()
	v, err := p.Get(name)
	if err != nil {
		t.Fatalf("Get(%s): %v", name, err)
	}
	i, ok := v.(int32)
	if !ok {
		t.Fatalf("Get(%s) = %T, want int32", name, v)
	}
	return i
}

func invokeInt(t *testing.T, m *BoundMethod, args ...any) int32 {
	t.Helper()
	v, err := m.Invoke(context.Background(), args...)
	if err != nil {
		t.Fatalf("%s: %v", m.Name(), err)
	}
	i, ok := v.(int32)
	if !ok {
		t.Fatalf("%s = %T, want int32", m.Name(), v)
	}
	return i
}

func TestGetField(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	p := newPoint(t, ns, reg, 4, 2)
	if got := getInt(t, p, "x"); got != 4 {
		t.Errorf("p.x = %d, want 4", got)
	}
	if got := getInt(t, p, "y"); got != 2 {
		t.Errorf("p.y = %d, want 2", got)
	}
}

func TestSetFieldVisibleToMethods(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	p := newPoint(t, ns, reg, 1, 1)
	if err := p.Set("x", 9); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// The write goes through to the foreign value, so the accessor
	// function sees it.
	m, err := p.Method("x")
	if err != nil {
		t.Fatalf("Method: %v", err)
	}
	if got := invokeInt(t, m); got != 9 {
		t.Errorf("point_x after Set = %d, want 9", got)
	}
}

func TestMethodDispatchPrefixTransform(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()
	ctx := context.Background()

	p := newPoint(t, ns, reg, 0, 0)

	// "setx" on a point_t resolves point_setx.
	v, err := p.Get("setx")
	if err != nil {
		t.Fatalf("Get(setx): %v", err)
	}
	m, ok := v.(*BoundMethod)
	if !ok {
		t.Fatalf("Get(setx) = %T, want *BoundMethod", v)
	}
	if m.Name() != "point_setx" {
		t.Errorf("resolved %q, want point_setx", m.Name())
	}

	ret, err := m.Invoke(ctx, 7)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	// point_setx returns the point itself, re-wrapped.
	rp, ok := ret.(*Proxy)
	if !ok {
		t.Fatalf("Invoke returned %T, want *Proxy", ret)
	}
	if !p.Equal(rp) {
		t.Error("returned proxy does not wrap the same point")
	}
	if got := getInt(t, p, "x"); got != 7 {
		t.Errorf("p.x after setx(7) = %d, want 7", got)
	}
}

func TestMethodMutationVisibleAcrossProxies(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()
	ctx := context.Background()

	p := newPoint(t, ns, reg, 0, 0)
	q := New(p.Handle(), ns, reg)

	m, err := p.Method("sety")
	if err != nil {
		t.Fatalf("Method: %v", err)
	}
	if _, err := m.Invoke(ctx, 5); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got := getInt(t, q, "y"); got != 5 {
		t.Errorf("second proxy sees y = %d, want 5", got)
	}
}

func TestPointDist(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()
	ctx := context.Background()

	p1 := newPoint(t, ns, reg, 0, 0)
	p2 := newPoint(t, ns, reg, 3, 4)

	m, err := p1.Method("dist")
	if err != nil {
		t.Fatalf("Method(dist): %v", err)
	}
	got, err := m.Invoke(ctx, p2)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got != 5.0 {
		t.Errorf("dist((0,0),(3,4)) = %v, want 5.0", got)
	}
}

func TestAttributeNotFound(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	p := newPoint(t, ns, reg, 0, 0)

	_, err := p.Get("z")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindAttributeNotFound}) {
		t.Errorf("Get(z) error = %v, want attribute_not_found", err)
	}

	err = p.Set("z", 1)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindAttributeNotFound}) {
		t.Errorf("Set(z) error = %v, want attribute_not_found", err)
	}

	// Setting a method name is not a field write either.
	err = p.Set("setx", 1)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindAttributeNotFound}) {
		t.Errorf("Set(setx) error = %v, want attribute_not_found", err)
	}
}

func TestSetTypeMismatch(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	p := newPoint(t, ns, reg, 0, 0)
	err := p.Set("x", "not a number")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseSet, Kind: errors.KindTypeMismatch}) {
		t.Errorf("Set(x, string) error = %v, want type_mismatch", err)
	}
}

func TestEqualOnHandleIdentity(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	p := newPoint(t, ns, reg, 1, 2)
	q := New(p.Handle(), ns, reg)
	r := newPoint(t, ns, reg, 1, 2)

	if !p.Equal(q) {
		t.Error("proxies over the same handle are not Equal")
	}
	if !p.Equal(p.Handle()) {
		t.Error("proxy is not Equal to its own handle")
	}
	if p.Equal(r) {
		t.Error("distinct points compare Equal")
	}
	if p.Equal(42) {
		t.Error("proxy compares Equal to a scalar")
	}
}

func TestWrapScalarPassthrough(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	for _, v := range []any{int32(1), float32(2.5), 3.5, uint64(4), "s", nil} {
		if got := Wrap(v, ns, reg); got != v {
			t.Errorf("Wrap(%v) = %v, want passthrough", v, got)
		}
	}
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	p := newPoint(t, ns, reg, 1, 2)
	h := p.Handle()

	if got := Unwrap(p); got != any(h) {
		t.Errorf("Unwrap(proxy) = %v, want its handle", got)
	}
	if got := Unwrap(int32(7)); got != int32(7) {
		t.Errorf("Unwrap(7) = %v, want 7", got)
	}

	rewrapped := Wrap(h, ns, reg)
	rp, ok := rewrapped.(*Proxy)
	if !ok {
		t.Fatalf("Wrap(handle) = %T, want *Proxy", rewrapped)
	}
	if !rp.Equal(p) {
		t.Error("re-wrapped proxy lost handle identity")
	}
}

func TestStaleHandleRejectedOnCall(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()
	ctx := context.Background()

	p := newPoint(t, ns, reg, 1, 2)
	m, err := p.Method("del_point")
	if err != nil {
		t.Fatalf("Method(del_point): %v", err)
	}
	if _, err := m.Invoke(ctx); err != nil {
		t.Fatalf("del_point: %v", err)
	}

	// The foreign value is gone; the proxy must refuse to unwrap.
	m2, err := p.Method("x")
	if err != nil {
		t.Fatalf("Method(x): %v", err)
	}
	_, err = m2.Invoke(ctx)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseWrap, Kind: errors.KindUnwrap}) {
		t.Errorf("call on freed point error = %v, want unwrap error", err)
	}
}

type vec struct {
	p *Proxy
}

func (v *vec) Handle() cloak.Handle { return v.p.Handle() }

func TestCustomFactory(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()
	reg.Register("point_t", func(h cloak.Handle, ns cloak.Namespace, r *registry.Registry) registry.Wrapper {
		return &vec{p: New(h, ns, r)}
	})

	v, err := Construct(context.Background(), ns, reg, "make_point", 3, 4)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if _, ok := v.(*vec); !ok {
		t.Fatalf("Construct wrapped as %T, want *vec", v)
	}
}

func TestMethodOnFunctionName(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	// The full function name resolves too, not only the shortened form.
	p := newPoint(t, ns, reg, 6, 0)
	m, err := p.Method("point_x")
	if err != nil {
		t.Fatalf("Method(point_x): %v", err)
	}
	if got := invokeInt(t, m); got != 6 {
		t.Errorf("point_x = %d, want 6", got)
	}
}

func TestGetFreshPointerField(t *testing.T) {
	ns := ffi.NewLibrary()
	point := ns.DefineStruct("point_t",
		cloak.Field{Name: "x", Type: ffi.Int},
		cloak.Field{Name: "y", Type: ffi.Int},
	)
	ns.DefineStruct("holder_t",
		cloak.Field{Name: "next", Type: ffi.PointerTo(point)},
	)
	reg := NewRegistry()

	v, err := NewStruct(ns, reg, "holder_t")
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	h := v.(*Proxy)

	// A pointer field nobody has written yet reads as a wrapped NULL.
	got, err := h.Get("next")
	if err != nil {
		t.Fatalf("Get(next): %v", err)
	}
	np, ok := got.(*Proxy)
	if !ok {
		t.Fatalf("Get(next) = %T, want *Proxy", got)
	}
	if np.Handle() == nil || !np.Handle().IsNil() {
		t.Error("fresh pointer field did not wrap a NULL handle")
	}
	if np.TypeName() != "point_t*" {
		t.Errorf("fresh pointer field type = %q, want point_t*", np.TypeName())
	}
}
