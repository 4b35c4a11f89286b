package blackboard

import (
	"errors"
	"fmt"
	"reflect"
)

// Get returns the value of key as a T.
//
// It fails with ErrKeyNotFound when key does not resolve, ErrUninitialized when the
// entry was declared but never assigned, and a *CastError when the stored value
// cannot be safely converted to T.
func Get[T any](bb *Blackboard, key string) (T, error) {
	value, found, err := Lookup[T](bb, key)
	if err != nil {
		return value, err
	}
	if !found {
		return value, fmt.Errorf("blackboard get(): missing key [%s]: %w", key, ErrKeyNotFound)
	}
	return value, nil
}

// Lookup is Get reporting a missing key as found == false instead of an error.
func Lookup[T any](bb *Blackboard, key string) (value T, found bool, err error) {
	locked := bb.GetAnyLocked(key)
	if locked == nil {
		return value, false, nil
	}
	defer locked.Release()

	held := locked.Value()
	if held.Empty() {
		return value, true, fmt.Errorf("blackboard get(): entry [%s]: %w", key, ErrUninitialized)
	}
	value, err = Cast[T](*held)
	if err != nil {
		return value, true, fmt.Errorf("blackboard get(): entry [%s]: %w", key, err)
	}
	return value, true, nil
}

// Set writes value under key.
//
// A name that does not resolve is created with the type of value as its declared
// type; a string creates an entry that is not yet strongly typed, since text often
// arrives before the final port type is known. Writing an existing strongly typed
// entry with another type succeeds only when the text can be parsed into the
// declared type or the number converts into it without loss. Otherwise a
// *TypeMismatchError is returned and the entry keeps its value.
//
// Passing a Value replaces the stored container directly once the type check passed.
func Set[T any](bb *Blackboard, key string, value T) error {
	static := reflect.TypeFor[T]()
	incoming, raw := any(value).(Value)
	if !raw {
		incoming = NewValue(value)
	}
	if incoming.Empty() {
		return fmt.Errorf("blackboard set(%s): cannot assign an empty value", key)
	}

	info := TypeFor(incoming.Type())
	if static.Kind() == reflect.String {
		info = AnyType()
	}
	return bb.write("set", key, incoming, static, info, raw)
}

// write resolves key, creating it with info when absent, and applies the
// type-safety protocol to an existing entry.
func (bb *Blackboard) write(op, key string, incoming Value, static reflect.Type, info TypeInfo, raw bool) error {
	if entry := bb.GetEntry(key); entry != nil {
		return bb.assign(op, key, entry, incoming, static, raw)
	}

	entry, created, err := bb.createEntry(key, info, incoming, false)
	if err != nil {
		return err
	}
	if !created {
		// Created concurrently, or found through the scope hierarchy.
		return bb.assign(op, key, entry, incoming, static, raw)
	}
	bb.emit(EventEntrySet, map[string]any{"key": key, "type": typeName(incoming.Type())})
	return nil
}

func (bb *Blackboard) assign(op, key string, entry *Entry, incoming Value, static reflect.Type, raw bool) error {
	if err := entry.assign(key, incoming, static, raw); err != nil {
		var mismatch *TypeMismatchError
		if errors.As(err, &mismatch) {
			mismatch.Op = op
			bb.emit(EventEntryTypeMismatch, map[string]any{
				"key": key, "declared": typeName(mismatch.Declared), "attempted": typeName(mismatch.Attempted),
			})
		}
		return err
	}
	bb.emit(EventEntrySet, map[string]any{"key": key, "type": typeName(incoming.Type())})
	return nil
}
