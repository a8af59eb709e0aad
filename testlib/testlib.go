// Package testlib builds the fixture library used to exercise the proxy
// layer: integer/float arithmetic, output-parameter functions, and a small
// point struct with constructor, accessors, and a distance function.
//
// The fixture has a fixed observable ABI; its quirks are preserved as
// built. In particular incr_ptrf leaves its pointee unchanged and returns
// 42.0.
package testlib

import (
	"math"

	cloak "github.com/cloakffi/cloak"
	"github.com/cloakffi/cloak/ffi"
)

// New builds the fixture library.
func New() *ffi.Library {
	lib := ffi.NewLibrary()

	point := lib.DefineStruct("point_t",
		cloak.Field{Name: "x", Type: ffi.Int},
		cloak.Field{Name: "y", Type: ffi.Int},
	)
	pointPtr := ffi.PointerTo(point)
	intPtr := ffi.PointerTo(ffi.Int)
	floatPtr := ffi.PointerTo(ffi.Float)
	doublePtr := ffi.PointerTo(ffi.Double)

	ints := func(n int) []cloak.Type {
		ts := make([]cloak.Type, n)
		for i := range ts {
			ts[i] = ffi.Int
		}
		return ts
	}

	lib.RegisterFunc("myint_succ", ints(1), ffi.Int, func(args []any) (any, error) {
		return args[0].(int32) + 1, nil
	})
	lib.RegisterFunc("myint_succ2", ints(1), ffi.Int, func(args []any) (any, error) {
		return args[0].(int32) + 2, nil
	})
	lib.RegisterFunc("myint_doubled", ints(1), ffi.Int, func(args []any) (any, error) {
		return args[0].(int32) * 2, nil
	})
	lib.RegisterFunc("myint_add", ints(2), ffi.Int, func(args []any) (any, error) {
		return args[0].(int32) + args[1].(int32), nil
	})
	lib.RegisterFunc("myint_add2", ints(2), ffi.Int, func(args []any) (any, error) {
		return args[0].(int32) + 2*args[1].(int32), nil
	})
	lib.RegisterFunc("myint_mult", ints(2), ffi.Int, func(args []any) (any, error) {
		return args[0].(int32) * args[1].(int32), nil
	})
	lib.RegisterFunc("myintp_null", ints(1), intPtr, func(args []any) (any, error) {
		return lib.Null(intPtr), nil
	})

	lib.RegisterFunc("myfloat_succ", []cloak.Type{ffi.Float}, ffi.Float, func(args []any) (any, error) {
		return args[0].(float32) + 1.0, nil
	})
	lib.RegisterFunc("myfloat_add", []cloak.Type{ffi.Float, ffi.Float}, ffi.Float, func(args []any) (any, error) {
		return args[0].(float32) + args[1].(float32), nil
	})
	lib.RegisterFunc("myfloatp_null", []cloak.Type{ffi.Float}, floatPtr, func(args []any) (any, error) {
		return lib.Null(floatPtr), nil
	})

	lib.RegisterFunc("set_ptr_succ", []cloak.Type{ffi.Int, intPtr}, ffi.Int, func(args []any) (any, error) {
		j := args[1].(*ffi.Value)
		if err := j.SetDeref(args[0].(int32) + 1); err != nil {
			return nil, err
		}
		return int32(42), nil
	})
	lib.RegisterFunc("set_ptr_add", []cloak.Type{ffi.Int, intPtr}, ffi.Int, func(args []any) (any, error) {
		j := args[1].(*ffi.Value)
		cur, err := j.Deref()
		if err != nil {
			return nil, err
		}
		if err := j.SetDeref(cur.(int32) + 1); err != nil {
			return nil, err
		}
		return int32(23), nil
	})
	lib.RegisterFunc("set_ptrf", []cloak.Type{ffi.Float, floatPtr}, ffi.Float, func(args []any) (any, error) {
		j := args[1].(*ffi.Value)
		if err := j.SetDeref(args[0].(float32) + 1.0); err != nil {
			return nil, err
		}
		return float32(42.0), nil
	})
	// Faithful to the shared library as built: the pointee is left
	// unchanged and 42.0 is returned.
	lib.RegisterFunc("incr_ptrf", []cloak.Type{floatPtr}, ffi.Float, func(args []any) (any, error) {
		return float32(42.0), nil
	})

	lib.RegisterFunc("complicated",
		[]cloak.Type{ffi.Int, floatPtr, intPtr, ffi.ULongLong, doublePtr},
		ffi.Double,
		func(args []any) (any, error) {
			in := args[0].(int32)
			out := args[1].(*ffi.Value)
			inout := args[2].(*ffi.Value)
			in2 := args[3].(uint64)
			inout2 := args[4].(*ffi.Value)

			if err := out.SetDeref(float32(in) + 1.0); err != nil {
				return nil, err
			}
			cur, err := inout.Deref()
			if err != nil {
				return nil, err
			}
			if err := inout.SetDeref(cur.(int32) + 1); err != nil {
				return nil, err
			}
			cur2, err := inout2.Deref()
			if err != nil {
				return nil, err
			}
			if err := inout2.SetDeref(float64(float32(in2)) + cur2.(float64)); err != nil {
				return nil, err
			}
			return 42.0, nil
		})

	lib.RegisterFunc("myint_add_array", []cloak.Type{ffi.Int, intPtr, ffi.Int}, ffi.Int,
		func(args []any) (any, error) {
			j := args[0].(int32)
			a := args[1].(*ffi.Value)
			n := int(args[2].(int32))
			for i := 0; i < n; i++ {
				cur, err := a.At(i)
				if err != nil {
					return nil, err
				}
				if err := a.SetAt(i, cur.(int32)+j); err != nil {
					return nil, err
				}
			}
			return int32(0), nil
		})

	lib.RegisterFunc("make_point", ints(2), pointPtr, func(args []any) (any, error) {
		p, err := lib.NewValue(pointPtr)
		if err != nil {
			return nil, err
		}
		if err := p.Set("x", args[0]); err != nil {
			return nil, err
		}
		if err := p.Set("y", args[1]); err != nil {
			return nil, err
		}
		return p, nil
	})
	lib.RegisterFunc("del_point", []cloak.Type{pointPtr}, ffi.Void, func(args []any) (any, error) {
		lib.Free(args[0].(*ffi.Value))
		return nil, nil
	})
	lib.RegisterFunc("point_x", []cloak.Type{pointPtr}, ffi.Int, func(args []any) (any, error) {
		return args[0].(*ffi.Value).Get("x")
	})
	lib.RegisterFunc("point_y", []cloak.Type{pointPtr}, ffi.Int, func(args []any) (any, error) {
		return args[0].(*ffi.Value).Get("y")
	})
	lib.RegisterFunc("point_setx", []cloak.Type{pointPtr, ffi.Int}, pointPtr, func(args []any) (any, error) {
		p := args[0].(*ffi.Value)
		if err := p.Set("x", args[1]); err != nil {
			return nil, err
		}
		return p, nil
	})
	lib.RegisterFunc("point_sety", []cloak.Type{pointPtr, ffi.Int}, pointPtr, func(args []any) (any, error) {
		p := args[0].(*ffi.Value)
		if err := p.Set("y", args[1]); err != nil {
			return nil, err
		}
		return p, nil
	})
	lib.RegisterFunc("point_dist", []cloak.Type{pointPtr, pointPtr}, ffi.Double, func(args []any) (any, error) {
		p1 := args[0].(*ffi.Value)
		p2 := args[1].(*ffi.Value)
		x1, err := p1.Get("x")
		if err != nil {
			return nil, err
		}
		y1, err := p1.Get("y")
		if err != nil {
			return nil, err
		}
		x2, err := p2.Get("x")
		if err != nil {
			return nil, err
		}
		y2, err := p2.Get("y")
		if err != nil {
			return nil, err
		}
		dx := float64(x2.(int32) - x1.(int32))
		dy := float64(y2.(int32) - y1.(int32))
		return math.Sqrt(dx*dx + dy*dy), nil
	})

	return lib
}
