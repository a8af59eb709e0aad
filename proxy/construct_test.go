package proxy

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/cloakffi/cloak/errors"
	"github.com/cloakffi/cloak/testlib"
)

func TestConstruct(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	v, err := Construct(context.Background(), ns, reg, "make_point", 3, 4)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	p, ok := v.(*Proxy)
	if !ok {
		t.Fatalf("Construct = %T, want *Proxy", v)
	}
	if got := getInt(t, p, "x"); got != 3 {
		t.Errorf("p.x = %d, want 3", got)
	}
	if got := getInt(t, p, "y"); got != 4 {
		t.Errorf("p.y = %d, want 4", got)
	}
}

func TestConstructUnknownFunction(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	_, err := Construct(context.Background(), ns, reg, "make_line", 1, 2)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindNotFound}) {
		t.Errorf("error = %v, want not_found", err)
	}
}

func TestConstructUnwrapsArguments(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()
	ctx := context.Background()

	p1, _ := Construct(ctx, ns, reg, "make_point", 0, 0)
	p2, _ := Construct(ctx, ns, reg, "make_point", 3, 4)

	// Proxies pass straight into foreign calls.
	got, err := Construct(ctx, ns, reg, "point_dist", p1, p2)
	if err != nil {
		t.Fatalf("point_dist: %v", err)
	}
	if got != 5.0 {
		t.Errorf("dist = %v, want 5.0", got)
	}
}

func TestNewStruct(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	v, err := NewStruct(ns, reg, "point_t", 7, 8)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	p, ok := v.(*Proxy)
	if !ok {
		t.Fatalf("NewStruct = %T, want *Proxy", v)
	}
	if got := getInt(t, p, "x"); got != 7 {
		t.Errorf("p.x = %d, want 7", got)
	}
	if got := getInt(t, p, "y"); got != 8 {
		t.Errorf("p.y = %d, want 8", got)
	}
}

func TestNewStructPartialValues(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	v, err := NewStruct(ns, reg, "point_t", 7)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	p := v.(*Proxy)
	if got := getInt(t, p, "y"); got != 0 {
		t.Errorf("unset field y = %d, want 0", got)
	}
}

func TestNewStructErrors(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	if _, err := NewStruct(ns, reg, "line_t"); err == nil {
		t.Error("unknown type did not error")
	}
	if _, err := NewStruct(ns, reg, "int"); err == nil {
		t.Error("non-composite type did not error")
	}
	if _, err := NewStruct(ns, reg, "point_t", 1, 2, 3); err == nil {
		t.Error("excess values did not error")
	}
}

func TestFuncNotFound(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	_, err := Func(ns, reg, "no_such_fn")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindNotFound}) {
		t.Errorf("error = %v, want not_found", err)
	}
}
