package blackboard

import (
	"errors"
	"reflect"
	"sync"
)

// Entry is one named slot of a blackboard: a value, its declared type and the
// lock serializing every access to both.
type Entry struct {
	mu    sync.Mutex
	value Value
	info  TypeInfo
}

func newEntry(info TypeInfo, initial Value) *Entry {
	return &Entry{info: info, value: initial}
}

// Info returns the declared type of the entry.
func (e *Entry) Info() TypeInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.info
}

// Snapshot returns a copy of the current value and declared type.
func (e *Entry) Snapshot() (Value, TypeInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value, e.info
}

// assign applies the type-safety protocol of a write. static is the compile-time
// type the caller wrote with; raw marks a caller passing a Value, which replaces
// the container instead of being copied into it.
func (e *Entry) assign(key string, incoming Value, static reflect.Type, raw bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	// First typed write binds the type of an entry declared generically.
	if !e.info.IsStronglyTyped() {
		e.info = TypeFor(incoming.Type())
		e.value = incoming
		return nil
	}

	declared := e.info.Type()
	if declared != static && declared != incoming.Type() {
		mismatching := true
		if incoming.Type().Kind() == reflect.String {
			if parsed, err := e.info.ParseString(reflect.ValueOf(incoming.v).String()); err == nil {
				incoming = parsed
				mismatching = false
			}
		}
		if mismatching && isNumeric(incoming.Type()) && isNumeric(declared) {
			if out, ok := convertNumber(incoming.v, declared); ok {
				incoming = Value{v: out, typ: declared}
				mismatching = false
			}
		}
		if mismatching {
			attempted := static
			if raw {
				attempted = incoming.Type()
			}
			return &TypeMismatchError{Op: "set", Key: key, Declared: declared, Attempted: attempted}
		}
	}

	if raw {
		e.value = incoming
		return nil
	}
	if err := incoming.CopyInto(&e.value); err != nil {
		var mismatch *TypeMismatchError
		if errors.As(err, &mismatch) {
			mismatch.Op, mismatch.Key = "set", key
		}
		return err
	}
	return nil
}
