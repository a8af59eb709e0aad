package ffi

import (
	"context"
	stderrors "errors"
	"testing"

	cloak "github.com/cloakffi/cloak"
	"github.com/cloakffi/cloak/errors"
)

func pointLib(t *testing.T) (*Library, cloak.Type) {
	t.Helper()
	lib := NewLibrary()
	point := lib.DefineStruct("point_t",
		cloak.Field{Name: "x", Type: Int},
		cloak.Field{Name: "y", Type: Int},
	)
	return lib, point
}

func TestNewValue_StructFieldsZeroed(t *testing.T) {
	lib, point := pointLib(t)

	h, err := lib.NewValue(PointerTo(point))
	if err != nil {
		t.Fatalf("NewValue: %v", err)
	}
	if h.Type().Kind() != cloak.KindPointer {
		t.Errorf("handle kind = %v, want pointer", h.Type().Kind())
	}

	x, err := h.Get("x")
	if err != nil {
		t.Fatalf("Get(x): %v", err)
	}
	if x != int32(0) {
		t.Errorf("fresh x = %v, want 0", x)
	}
}

func TestFieldWriteRead(t *testing.T) {
	lib, point := pointLib(t)
	h, err := lib.NewValue(point)
	if err != nil {
		t.Fatalf("NewValue: %v", err)
	}

	if err := h.Set("x", 7); err != nil {
		t.Fatalf("Set(x): %v", err)
	}
	x, err := h.Get("x")
	if err != nil {
		t.Fatalf("Get(x): %v", err)
	}
	if x != int32(7) {
		t.Errorf("x = %v, want 7", x)
	}
}

func TestFieldTypeMismatch(t *testing.T) {
	lib, point := pointLib(t)
	h, _ := lib.NewValue(point)

	err := h.Set("x", "not a number")
	if err == nil {
		t.Fatal("Set(x, string) succeeded")
	}
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseSet, Kind: errors.KindTypeMismatch}) {
		t.Errorf("error = %v, want type_mismatch", err)
	}
}

func TestFieldUnknown(t *testing.T) {
	lib, point := pointLib(t)
	h, _ := lib.NewValue(point)

	if _, err := h.Get("z"); err == nil {
		t.Error("Get(z) succeeded on struct without z")
	}
	if err := h.Set("z", 1); err == nil {
		t.Error("Set(z) succeeded on struct without z")
	}
}

func TestNullHandle(t *testing.T) {
	lib, point := pointLib(t)
	null := lib.Null(PointerTo(point))

	if !null.IsNil() {
		t.Error("Null handle IsNil = false")
	}
	if null.Valid() {
		t.Error("Null handle Valid = true")
	}
	if _, err := null.Get("x"); err == nil {
		t.Error("Get through NULL handle succeeded")
	}
}

func TestFreeMakesHandlesStale(t *testing.T) {
	lib, point := pointLib(t)
	h, _ := lib.NewValue(point)

	v := h.(*Value)
	if !v.Valid() {
		t.Fatal("fresh handle not valid")
	}

	lib.Free(h)
	if v.Valid() {
		t.Error("handle still valid after Free")
	}
	if _, err := v.Get("x"); err == nil {
		t.Error("Get through freed handle succeeded")
	}
}

func TestSlotReuseAfterFree(t *testing.T) {
	lib, point := pointLib(t)

	a, _ := lib.NewValue(point)
	before := lib.Live()
	lib.Free(a)
	b, _ := lib.NewValue(point)

	if got := lib.Live(); got != before {
		t.Errorf("Live = %d after free+alloc, want %d", got, before)
	}
	if a.ID() != b.ID() {
		t.Errorf("freed slot not reused: %d then %d", a.ID(), b.ID())
	}
}

func TestCellsAndArrays(t *testing.T) {
	lib := NewLibrary()

	cell, err := lib.NewCell(Int, 5)
	if err != nil {
		t.Fatalf("NewCell: %v", err)
	}
	v, err := cell.Deref()
	if err != nil {
		t.Fatalf("Deref: %v", err)
	}
	if v != int32(5) {
		t.Errorf("cell = %v, want 5", v)
	}
	if err := cell.SetDeref(9); err != nil {
		t.Fatalf("SetDeref: %v", err)
	}
	if v, _ := cell.Deref(); v != int32(9) {
		t.Errorf("cell after SetDeref = %v, want 9", v)
	}

	arr, err := lib.NewArray(Int, 1, 2, 3)
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	if n, _ := arr.Len(); n != 3 {
		t.Errorf("Len = %d, want 3", n)
	}
	if err := arr.SetAt(2, 30); err != nil {
		t.Fatalf("SetAt: %v", err)
	}
	if v, _ := arr.At(2); v != int32(30) {
		t.Errorf("arr[2] = %v, want 30", v)
	}
	if _, err := arr.At(3); err == nil {
		t.Error("At(3) on length-3 array succeeded")
	}
}

func TestTypeLookup(t *testing.T) {
	lib, _ := pointLib(t)

	if _, ok := lib.Type("point_t"); !ok {
		t.Error("Type(point_t) not found")
	}
	if _, ok := lib.Type("int"); !ok {
		t.Error("Type(int) not found")
	}

	pp, ok := lib.Type("point_t*")
	if !ok {
		t.Fatal("Type(point_t*) not found")
	}
	if pp.Kind() != cloak.KindPointer || pp.Elem().Name() != "point_t" {
		t.Errorf("point_t* resolved to %s/%v", pp.Name(), pp.Kind())
	}

	if _, ok := lib.Type("missing_t"); ok {
		t.Error("Type(missing_t) found")
	}
}

func TestFunctionCall(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary()
	lib.RegisterFunc("add", []cloak.Type{Int, Int}, Int, func(args []any) (any, error) {
		return args[0].(int32) + args[1].(int32), nil
	})

	fn, ok := lib.Function("add")
	if !ok {
		t.Fatal("Function(add) not found")
	}

	// Plain Go ints are coerced to the declared int representation.
	got, err := fn.Call(ctx, 2, 3)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != int32(5) {
		t.Errorf("add(2, 3) = %v, want 5", got)
	}

	if _, err := fn.Call(ctx, 1); err == nil {
		t.Error("Call with wrong arity succeeded")
	}
	if _, err := fn.Call(ctx, "a", "b"); err == nil {
		t.Error("Call with string args succeeded")
	}
}

func TestFunctionsSorted(t *testing.T) {
	lib := NewLibrary()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		lib.RegisterFunc(name, nil, Int, func(args []any) (any, error) { return int32(0), nil })
	}

	fns := lib.Functions()
	if len(fns) != 3 {
		t.Fatalf("Functions returned %d entries, want 3", len(fns))
	}
	want := []string{"alpha", "mid", "zeta"}
	for i, fn := range fns {
		if fn.Name() != want[i] {
			t.Errorf("Functions[%d] = %s, want %s", i, fn.Name(), want[i])
		}
	}
}

func TestPointerFieldStartsAsNullHandle(t *testing.T) {
	lib, point := pointLib(t)
	holder := lib.DefineStruct("holder_t",
		cloak.Field{Name: "next", Type: PointerTo(point)},
	)

	h, err := lib.NewValue(holder)
	if err != nil {
		t.Fatalf("NewValue: %v", err)
	}
	v, err := h.Get("next")
	if err != nil {
		t.Fatalf("Get(next): %v", err)
	}
	ptr, ok := v.(*Value)
	if !ok || ptr == nil {
		t.Fatalf("fresh pointer field = %#v, want a *Value NULL handle", v)
	}
	if !ptr.IsNil() {
		t.Error("fresh pointer field is not NULL")
	}
	if ptr.Type() == nil || ptr.Type().Name() != "point_t*" {
		t.Errorf("fresh pointer field type = %v, want point_t*", ptr.Type())
	}
}

func TestNilAssignmentBecomesNullHandle(t *testing.T) {
	lib, point := pointLib(t)
	holder := lib.DefineStruct("holder_t",
		cloak.Field{Name: "next", Type: PointerTo(point)},
	)

	h, err := lib.NewValue(holder)
	if err != nil {
		t.Fatalf("NewValue: %v", err)
	}
	for _, val := range []any{nil, (*Value)(nil)} {
		if err := h.Set("next", val); err != nil {
			t.Fatalf("Set(next, %#v): %v", val, err)
		}
		v, err := h.Get("next")
		if err != nil {
			t.Fatalf("Get(next): %v", err)
		}
		ptr := v.(*Value)
		if ptr == nil || !ptr.IsNil() {
			t.Errorf("Set(next, %#v) stored %#v, want a NULL handle", val, v)
		}
	}
}

func TestNilResultBecomesNullHandle(t *testing.T) {
	lib, point := pointLib(t)
	pointPtr := PointerTo(point)

	lib.RegisterFunc("find_point", []cloak.Type{Int}, pointPtr, func(args []any) (any, error) {
		return nil, nil
	})

	fn, _ := lib.Function("find_point")
	ret, err := fn.Call(context.Background(), 1)
	if err != nil {
		t.Fatalf("find_point: %v", err)
	}
	ptr, ok := ret.(*Value)
	if !ok || ptr == nil {
		t.Fatalf("nil result = %#v, want a *Value NULL handle", ret)
	}
	if !ptr.IsNil() {
		t.Error("nil result handle is not NULL")
	}
}
