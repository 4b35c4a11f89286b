package blackboard

import (
	"encoding"
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cast"
)

// StringParser converts the textual representation of a value into the declared
// type of an entry.
type StringParser func(text string) (any, error)

// TypeInfo describes the declared type of an entry. A TypeInfo without a type
// accepts any type: the entry is not strongly typed until its first typed write.
type TypeInfo struct {
	typ    reflect.Type
	parser StringParser
}

var (
	durationType        = reflect.TypeFor[time.Duration]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// TypeOf declares T, together with the default string parser for T when one exists.
func TypeOf[T any]() TypeInfo {
	return TypeFor(reflect.TypeFor[T]())
}

// TypeFor declares t. Declaring Value or an interface type is equivalent to AnyType.
func TypeFor(t reflect.Type) TypeInfo {
	if t == nil || t == valueType || t.Kind() == reflect.Interface {
		return AnyType()
	}
	return TypeInfo{typ: t, parser: defaultParser(t)}
}

// AnyType declares an entry that takes the type of its first typed write.
func AnyType() TypeInfo {
	return TypeInfo{}
}

// WithParser returns a copy of t using p to convert text into the declared type.
func (t TypeInfo) WithParser(p StringParser) TypeInfo {
	t.parser = p
	return t
}

// Type returns the declared type, nil when any type is accepted.
func (t TypeInfo) Type() reflect.Type {
	return t.typ
}

// IsStronglyTyped reports whether the declared type is fixed.
func (t TypeInfo) IsStronglyTyped() bool {
	return t.typ != nil
}

// HasParser reports whether text can be converted into the declared type.
func (t TypeInfo) HasParser() bool {
	return t.parser != nil
}

// TypeName returns a readable name of the declared type.
func (t TypeInfo) TypeName() string {
	return typeName(t.typ)
}

// ParseString converts text into a Value of the declared type.
func (t TypeInfo) ParseString(text string) (Value, error) {
	if !t.IsStronglyTyped() {
		return NewValue(text), nil
	}
	if t.parser == nil {
		return Value{}, fmt.Errorf("no string parser registered for type [%s]", t.TypeName())
	}
	out, err := t.parser(text)
	if err != nil {
		return Value{}, fmt.Errorf("failed to parse %q as [%s]: %w", text, t.TypeName(), err)
	}
	if out == nil || reflect.TypeOf(out) != t.typ {
		return Value{}, fmt.Errorf("string parser for [%s] returned [%T]", t.TypeName(), out)
	}
	return Value{v: out, typ: t.typ}, nil
}

func defaultParser(t reflect.Type) StringParser {
	if t == durationType {
		return func(text string) (any, error) {
			return cast.ToDurationE(text)
		}
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return func(text string) (any, error) {
			ptr := reflect.New(t)
			if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
				return nil, err
			}
			return ptr.Elem().Interface(), nil
		}
	}

	k := t.Kind()
	switch {
	case k == reflect.String:
		return func(text string) (any, error) {
			return reflect.ValueOf(text).Convert(t).Interface(), nil
		}
	case k == reflect.Bool:
		return func(text string) (any, error) {
			b, err := cast.ToBoolE(text)
			if err != nil {
				return nil, err
			}
			return reflect.ValueOf(b).Convert(t).Interface(), nil
		}
	case isIntKind(k):
		return func(text string) (any, error) {
			i, err := cast.ToInt64E(text)
			if err != nil {
				return nil, err
			}
			out := reflect.New(t).Elem()
			if out.OverflowInt(i) {
				return nil, fmt.Errorf("value %d overflows [%s]", i, t)
			}
			out.SetInt(i)
			return out.Interface(), nil
		}
	case isUintKind(k):
		return func(text string) (any, error) {
			u, err := cast.ToUint64E(text)
			if err != nil {
				return nil, err
			}
			out := reflect.New(t).Elem()
			if out.OverflowUint(u) {
				return nil, fmt.Errorf("value %d overflows [%s]", u, t)
			}
			out.SetUint(u)
			return out.Interface(), nil
		}
	case isFloatKind(k):
		return func(text string) (any, error) {
			f, err := cast.ToFloat64E(text)
			if err != nil {
				return nil, err
			}
			out := reflect.New(t).Elem()
			if out.OverflowFloat(f) {
				return nil, fmt.Errorf("value %g overflows [%s]", f, t)
			}
			out.SetFloat(f)
			return out.Interface(), nil
		}
	}
	return nil
}
