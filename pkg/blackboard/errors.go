package blackboard

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrKeyNotFound is returned when a name resolves neither locally, through the
	// remap table, nor through the parent chain.
	ErrKeyNotFound = errors.New("key not found")

	// ErrUninitialized is returned when an entry exists but was never assigned.
	ErrUninitialized = errors.New("entry has not been initialized")

	// ErrCast is the sentinel wrapped by every CastError.
	ErrCast = errors.New("cast failed")

	// ErrTypeMismatch is the sentinel wrapped by every TypeMismatchError.
	ErrTypeMismatch = errors.New("type mismatch")
)

// TypeMismatchError reports an attempt to change the declared type of a strongly
// typed entry. It is a contract violation by the caller and is always surfaced.
type TypeMismatchError struct {
	Op        string // "set", "create", "copy" or "import"
	Key       string
	Declared  reflect.Type
	Attempted reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("blackboard %s(%s): once declared, the type of a port shall not change. "+
		"Previously declared type [%s], current type [%s]",
		e.Op, e.Key, typeName(e.Declared), typeName(e.Attempted))
}

// Unwrap enables errors.Is(err, ErrTypeMismatch).
func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}

// CastError reports a read whose requested type is incompatible with the stored value.
type CastError struct {
	Stored    reflect.Type
	Requested reflect.Type
}

func (e *CastError) Error() string {
	return fmt.Sprintf("no safe conversion between [%s] and [%s]",
		typeName(e.Stored), typeName(e.Requested))
}

// Unwrap enables errors.Is(err, ErrCast).
func (e *CastError) Unwrap() error {
	return ErrCast
}

// IsNotFound returns true if err reports a name that could not be resolved.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// IsTypeMismatch returns true if err reports a rejected change of declared type.
func IsTypeMismatch(err error) bool {
	return errors.Is(err, ErrTypeMismatch)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "any"
	}
	return t.String()
}
