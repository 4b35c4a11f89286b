package blackboard

import (
	"fmt"
	"reflect"

	"github.com/spf13/cast"
)

// Value is a type-erased container for one value of any type. It remembers the
// concrete type it was built from so the value can later be reclaimed with that
// exact type. The zero Value is empty, which is distinct from holding a zero value.
type Value struct {
	v   any
	typ reflect.Type
}

var valueType = reflect.TypeFor[Value]()

// NewValue wraps v. When T is an interface type the dynamic type of v is recorded;
// a nil interface produces an empty Value.
func NewValue[T any](v T) Value {
	typ := reflect.TypeFor[T]()
	if typ.Kind() == reflect.Interface {
		boxed := any(v)
		if boxed == nil {
			return Value{}
		}
		if inner, ok := boxed.(Value); ok {
			return inner
		}
		return Value{v: boxed, typ: reflect.TypeOf(boxed)}
	}
	return Value{v: v, typ: typ}
}

// Empty reports whether the container holds no value.
func (v Value) Empty() bool {
	return v.typ == nil
}

// Type returns the concrete stored type, or nil when empty.
func (v Value) Type() reflect.Type {
	return v.typ
}

// Interface returns the stored value.
func (v Value) Interface() any {
	return v.v
}

// IsType reports whether the stored concrete type is exactly t.
func (v Value) IsType(t reflect.Type) bool {
	return v.typ != nil && v.typ == t
}

func (v Value) String() string {
	if v.Empty() {
		return "<empty>"
	}
	return fmt.Sprintf("%v", v.v)
}

// CopyInto copies the content of v into dst. The copy is allowed only when dst is
// empty, holds the same type, or both hold numbers and v converts losslessly into
// the type of dst (dst keeps its type).
func (v Value) CopyInto(dst *Value) error {
	switch {
	case dst.Empty():
		*dst = v
		return nil
	case dst.typ == v.typ:
		dst.v = v.v
		return nil
	case isNumeric(dst.typ) && isNumeric(v.typ):
		if out, ok := convertNumber(v.v, dst.typ); ok {
			dst.v = out
			return nil
		}
	}
	return &TypeMismatchError{Op: "copy", Declared: dst.typ, Attempted: v.typ}
}

// Cast reclaims the value held by v as a T. Casting is deny-by-default: it succeeds
// for the exact stored type, an interface the stored value implements, a lossless
// numeric conversion, or formatting a number or bool as a string.
func Cast[T any](v Value) (T, error) {
	var zero T
	if v.Empty() {
		return zero, ErrUninitialized
	}
	if out, ok := v.v.(T); ok {
		return out, nil
	}

	requested := reflect.TypeFor[T]()
	if isNumeric(requested) && isNumeric(v.typ) {
		if out, ok := convertNumber(v.v, requested); ok {
			return out.(T), nil
		}
	}
	if requested.Kind() == reflect.String && (isNumeric(v.typ) || v.typ.Kind() == reflect.Bool) {
		if s, err := cast.ToStringE(v.v); err == nil {
			return reflect.ValueOf(s).Convert(requested).Interface().(T), nil
		}
	}
	return zero, &CastError{Stored: v.typ, Requested: requested}
}
