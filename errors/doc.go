// Package errors provides structured error types for the cloak library.
//
// Errors are categorized by Phase (where in the attribute access or call the
// error occurred) and Kind (error category). The Error type carries the
// foreign type name, the attribute involved, a detail message, and a cause
// chain, so a failing access reads like:
//
//	[resolve] attribute_not_found at point_t.z: no field or method "z" on point_t
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseSet, errors.KindTypeMismatch).
//		TypeName("point_t").
//		Attr("x").
//		Detail("cannot assign string to int field").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.AttributeNotFound("point_t", "z")
//	err := errors.NullReturn("myintp_null", args)
//
// All errors implement the standard error interface and support errors.Is/As;
// Is matches on Phase and Kind.
package errors
