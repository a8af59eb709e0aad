package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in an attribute access or call the error occurred
type Phase string

const (
	PhaseResolve Phase = "resolve" // attribute/method resolution
	PhaseGet     Phase = "get"     // field read
	PhaseSet     Phase = "set"     // field write
	PhaseCall    Phase = "call"    // foreign function invocation
	PhaseWrap    Phase = "wrap"    // wrap/unwrap at the boundary
	PhaseAlloc   Phase = "alloc"   // foreign value allocation
)

// Kind categorizes the error
type Kind string

const (
	KindAttributeNotFound Kind = "attribute_not_found"
	KindTypeMismatch      Kind = "type_mismatch"
	KindUnwrap            Kind = "unwrap"
	KindNullReturn        Kind = "null_return"
	KindNotFound          Kind = "not_found"
	KindArity             Kind = "arity"
	KindInvalidInput      Kind = "invalid_input"
	KindUnsupported       Kind = "unsupported"
	KindAllocation        Kind = "allocation"
	KindFieldUnknown      Kind = "field_unknown"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	TypeName string
	Attr     string
	Detail   string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.TypeName != "" || e.Attr != "" {
		b.WriteString(" at ")
		b.WriteString(e.TypeName)
		if e.Attr != "" {
			b.WriteByte('.')
			b.WriteString(e.Attr)
		}
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// TypeName sets the foreign type name the error relates to
func (b *Builder) TypeName(t string) *Builder {
	b.err.TypeName = t
	return b
}

// Attr sets the attribute (field or method) name
func (b *Builder) Attr(name string) *Builder {
	b.err.Attr = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// AttributeNotFound creates an error for a name matching neither a field
// nor a resolvable method
func AttributeNotFound(typeName, attr string) *Error {
	return &Error{
		Phase:    PhaseResolve,
		Kind:     KindAttributeNotFound,
		TypeName: typeName,
		Attr:     attr,
		Detail:   fmt.Sprintf("no field or method %q on %s", attr, typeName),
	}
}

// TypeMismatch creates a type mismatch error for a field or parameter
func TypeMismatch(phase Phase, typeName, attr string, value any, want string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		TypeName: typeName,
		Attr:     attr,
		Value:    value,
		Detail:   fmt.Sprintf("value %v (%T) is not compatible with %s", value, value, want),
	}
}

// UnwrapFailed creates an error for a wrapper whose handle is stale or invalid
func UnwrapFailed(typeName, detail string) *Error {
	return &Error{
		Phase:    PhaseWrap,
		Kind:     KindUnwrap,
		TypeName: typeName,
		Detail:   detail,
	}
}

// NullReturn creates an error for a NULL pointer returned by a checked call
func NullReturn(funcName string, args []any) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindNullReturn,
		Attr:   funcName,
		Detail: fmt.Sprintf("NULL returned by %s with args %v", funcName, args),
	}
}

// NotFound creates a generic lookup failure error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Arity creates an argument count error for a foreign call
func Arity(funcName string, want, got int) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindArity,
		Attr:   funcName,
		Detail: fmt.Sprintf("%s requires exactly %d arguments (%d given)", funcName, want, got),
	}
}

// FieldUnknown creates an unknown field error
func FieldUnknown(phase Phase, typeName, fieldName string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindFieldUnknown,
		TypeName: typeName,
		Attr:     fieldName,
		Detail:   fmt.Sprintf("unknown field %q", fieldName),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(typeName string, cause error) *Error {
	return &Error{
		Phase:    PhaseAlloc,
		Kind:     KindAllocation,
		TypeName: typeName,
		Cause:    cause,
		Detail:   fmt.Sprintf("failed to allocate %s", typeName),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
