package proxy

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/cloakffi/cloak"
	"github.com/cloakffi/cloak/errors"
	"github.com/cloakffi/cloak/ffi"
	"github.com/cloakffi/cloak/testlib"
)

func invoke(t *testing.T, m *BoundMethod, args ...any) any {
	t.Helper()
	got, err := m.Invoke(context.Background(), args...)
	if err != nil {
		t.Fatalf("%s: %v", m.Name(), err)
	}
	return got
}

func TestOutParameter(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	m, err := Func(ns, reg, "set_ptr_succ", Out(1))
	if err != nil {
		t.Fatalf("Func: %v", err)
	}

	got := invoke(t, m, 4)
	res, ok := got.([]any)
	if !ok {
		t.Fatalf("Invoke = %T, want []any", got)
	}
	if len(res) != 2 {
		t.Fatalf("Invoke returned %d values, want 2", len(res))
	}
	if res[0] != int32(42) {
		t.Errorf("return value = %v, want 42", res[0])
	}
	if res[1] != int32(5) {
		t.Errorf("out value = %v, want 5", res[1])
	}
}

func TestInOutParameter(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	m, err := Func(ns, reg, "set_ptr_add", InOut(1))
	if err != nil {
		t.Fatalf("Func: %v", err)
	}

	res := invoke(t, m, 0, 10).([]any)
	if res[0] != int32(23) {
		t.Errorf("return value = %v, want 23", res[0])
	}
	if res[1] != int32(11) {
		t.Errorf("in-out value = %v, want 11", res[1])
	}
}

func TestFloatOutParameter(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	m, err := Func(ns, reg, "set_ptrf", Out(1))
	if err != nil {
		t.Fatalf("Func: %v", err)
	}

	res := invoke(t, m, float32(4)).([]any)
	if res[0] != float32(42) {
		t.Errorf("return value = %v, want 42", res[0])
	}
	if res[1] != float32(5) {
		t.Errorf("out value = %v, want 5", res[1])
	}
}

func TestIncrPtrfPointeeUntouched(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	// Called with an explicit cell rather than an out position, to observe
	// the pointee directly. The function returns 42.0 without writing it.
	cell, err := ns.NewCell(ffi.Float, 3)
	if err != nil {
		t.Fatalf("NewCell: %v", err)
	}
	m, err := Func(ns, reg, "incr_ptrf")
	if err != nil {
		t.Fatalf("Func: %v", err)
	}

	if got := invoke(t, m, cell); got != float32(42) {
		t.Errorf("incr_ptrf = %v, want 42", got)
	}
	if v, _ := cell.Deref(); v != float32(3) {
		t.Errorf("pointee = %v, want 3 (unchanged)", v)
	}
}

func TestMixedOutInOut(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	m, err := Func(ns, reg, "complicated", Out(1), InOut(2, 4))
	if err != nil {
		t.Fatalf("Func: %v", err)
	}

	res := invoke(t, m, 4, 10, uint64(7), 1.5).([]any)
	if len(res) != 4 {
		t.Fatalf("Invoke returned %d values, want 4", len(res))
	}
	if res[0] != 42.0 {
		t.Errorf("return value = %v, want 42.0", res[0])
	}
	if res[1] != float32(5) {
		t.Errorf("out float = %v, want 5", res[1])
	}
	if res[2] != int32(11) {
		t.Errorf("in-out int = %v, want 11", res[2])
	}
	if res[3] != 8.5 {
		t.Errorf("in-out double = %v, want 8.5", res[3])
	}
}

func TestCheckNull(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()
	ctx := context.Background()

	m, err := Func(ns, reg, "myintp_null", CheckNull())
	if err != nil {
		t.Fatalf("Func: %v", err)
	}
	_, err = m.Invoke(ctx, 1)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseCall, Kind: errors.KindNullReturn}) {
		t.Errorf("error = %v, want null_return", err)
	}

	// Without the option a NULL return is an ordinary value.
	m2, err := Func(ns, reg, "myintp_null")
	if err != nil {
		t.Fatalf("Func: %v", err)
	}
	if _, err := m2.Invoke(ctx, 1); err != nil {
		t.Errorf("unchecked NULL return errored: %v", err)
	}
}

func TestOutPositionValidation(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()
	ctx := context.Background()

	// Position past the signature.
	m, _ := Func(ns, reg, "set_ptr_succ", Out(5))
	if _, err := m.Invoke(ctx, 4); err == nil {
		t.Error("out-of-range position did not error")
	}

	// Position naming a non-pointer parameter.
	m2, _ := Func(ns, reg, "set_ptr_succ", Out(0))
	if _, err := m2.Invoke(ctx, 4); err == nil {
		t.Error("non-pointer out position did not error")
	}
}

func TestArrayArgument(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	a, err := ns.NewArray(ffi.Int, 8, 9)
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	m, err := Func(ns, reg, "myint_add_array")
	if err != nil {
		t.Fatalf("Func: %v", err)
	}
	if got := invoke(t, m, 5, a, 2); got != int32(0) {
		t.Errorf("myint_add_array = %v, want 0", got)
	}
	if v, _ := a.At(0); v != int32(13) {
		t.Errorf("a[0] = %v, want 13", v)
	}
	if v, _ := a.At(1); v != int32(14) {
		t.Errorf("a[1] = %v, want 14", v)
	}
}

func TestFreeFunctionCalls(t *testing.T) {
	ns := testlib.New()
	reg := NewRegistry()

	tests := []struct {
		fn   string
		args []any
		want any
	}{
		{"myint_succ", []any{1}, int32(2)},
		{"myint_add", []any{1, 2}, int32(3)},
		{"myint_mult", []any{6, 7}, int32(42)},
		{"myfloat_add", []any{float32(1.25), float32(2.25)}, float32(3.5)},
	}
	for _, tt := range tests {
		m, err := Func(ns, reg, tt.fn)
		if err != nil {
			t.Fatalf("Func(%s): %v", tt.fn, err)
		}
		if got := invoke(t, m, tt.args...); got != tt.want {
			t.Errorf("%s(%v) = %v, want %v", tt.fn, tt.args, got, tt.want)
		}
	}
}

func TestCheckNullOnNilImplResult(t *testing.T) {
	ns := ffi.NewLibrary()
	point := ns.DefineStruct("point_t",
		cloak.Field{Name: "x", Type: ffi.Int},
		cloak.Field{Name: "y", Type: ffi.Int},
	)
	ns.RegisterFunc("find_point", nil, ffi.PointerTo(point), func(args []any) (any, error) {
		return nil, nil
	})
	reg := NewRegistry()

	m, err := Func(ns, reg, "find_point", CheckNull())
	if err != nil {
		t.Fatalf("Func: %v", err)
	}
	_, err = m.Invoke(context.Background())
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseCall, Kind: errors.KindNullReturn}) {
		t.Errorf("error = %v, want null_return", err)
	}
}
