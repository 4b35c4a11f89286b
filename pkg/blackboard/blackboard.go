package blackboard

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
	"weak"

	"github.com/google/uuid"
)

// Blackboard is a typed key/value store shared by concurrently running components.
//
// Two locks protect it: a structural lock over the name -> entry map, the remap
// table and the auto-remap flag, and one lock per entry over its value and declared
// type. The structural lock is never acquired while an entry lock is held.
//
// A blackboard may reference a parent without owning it. Names that miss locally
// are forwarded to the parent through the remap table or, when auto-remapping is
// enabled, under the same name. Writes follow the same path: setting a remapped
// name writes the parent's entry.
type Blackboard struct {
	id       string
	observer Observer
	parent   weak.Pointer[Blackboard]

	mu        sync.Mutex
	storage   map[string]*Entry
	remap     map[string]string
	autoRemap bool
}

// Option configures a Blackboard on creation.
type Option func(*Blackboard)

// WithParent makes parent the scope consulted for remapped names. The reference is
// weak: once parent is unreachable, lookups through it report not found.
func WithParent(parent *Blackboard) Option {
	return func(bb *Blackboard) {
		if parent != nil {
			bb.parent = weak.Make(parent)
		}
	}
}

// WithObserver sets the observer receiving blackboard events.
func WithObserver(observer Observer) Option {
	return func(bb *Blackboard) {
		if observer != nil {
			bb.observer = observer
		}
	}
}

// WithAutoRemapping sets the initial auto-remapping policy.
func WithAutoRemapping(enabled bool) Option {
	return func(bb *Blackboard) {
		bb.autoRemap = enabled
	}
}

// New creates an empty blackboard.
func New(opts ...Option) *Blackboard {
	bb := &Blackboard{
		id:       uuid.New().String(),
		observer: NoOpObserver{},
		storage:  make(map[string]*Entry),
		remap:    make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(bb)
		}
	}
	return bb
}

// IsPrivateKey reports whether key is private to its scope. Private keys start
// with an underscore and are never auto-remapped to the parent.
func IsPrivateKey(key string) bool {
	return strings.HasPrefix(key, "_")
}

// ID returns the unique identifier of this blackboard.
func (bb *Blackboard) ID() string {
	return bb.id
}

// Parent returns the parent blackboard, or nil when there is none or it is gone.
func (bb *Blackboard) Parent() *Blackboard {
	return bb.parent.Value()
}

// EnableAutoRemapping toggles forwarding of unmapped names to the parent.
func (bb *Blackboard) EnableAutoRemapping(enabled bool) {
	bb.mu.Lock()
	bb.autoRemap = enabled
	bb.mu.Unlock()
}

// AddSubtreeRemapping resolves internal, within this blackboard, as external in the parent.
func (bb *Blackboard) AddSubtreeRemapping(internal, external string) {
	bb.mu.Lock()
	bb.remap[internal] = external
	bb.mu.Unlock()

	bb.emit(EventBoardRemap, map[string]any{"internal": internal, "external": external})
}

// Remappings returns a copy of the remap table.
func (bb *Blackboard) Remappings() map[string]string {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	return maps.Clone(bb.remap)
}

// GetEntry resolves key locally, then through the remap table, then through
// auto-remapping. It returns nil when the name does not resolve. Only one
// blackboard's structural lock is held at a time.
func (bb *Blackboard) GetEntry(key string) *Entry {
	bb.mu.Lock()
	if entry, ok := bb.storage[key]; ok {
		bb.mu.Unlock()
		return entry
	}
	external, remapped := bb.remap[key]
	auto := bb.autoRemap
	bb.mu.Unlock()

	parent := bb.parent.Value()
	if parent == nil {
		return nil
	}
	if remapped {
		return parent.GetEntry(external)
	}
	if auto && !IsPrivateKey(key) {
		return parent.GetEntry(key)
	}
	return nil
}

// GetAnyLocked returns a guard holding the lock of the entry key resolves to, or
// nil when it does not resolve.
func (bb *Blackboard) GetAnyLocked(key string) *Locked {
	entry := bb.GetEntry(key)
	if entry == nil {
		return nil
	}
	return lockEntry(entry)
}

// WithLocked runs fn with exclusive access to the value of key. The entry lock is
// released when fn returns, fails or panics.
func (bb *Blackboard) WithLocked(key string, fn func(v *Value) error) error {
	locked := bb.GetAnyLocked(key)
	if locked == nil {
		return fmt.Errorf("blackboard: missing key [%s]: %w", key, ErrKeyNotFound)
	}
	defer locked.Release()
	return fn(locked.Value())
}

// EntryInfo returns the declared type of a local entry.
func (bb *Blackboard) EntryInfo(key string) (TypeInfo, bool) {
	bb.mu.Lock()
	entry, ok := bb.storage[key]
	bb.mu.Unlock()
	if !ok {
		return TypeInfo{}, false
	}
	return entry.Info(), true
}

// CreateEntry declares key with info without assigning a value. Declaring an
// existing strongly typed entry with a different strong type is an error; any
// other redeclaration keeps the existing entry. Remapped names are declared in
// the parent.
func (bb *Blackboard) CreateEntry(key string, info TypeInfo) error {
	if key == "" {
		return fmt.Errorf("blackboard: entry name cannot be empty")
	}
	_, _, err := bb.createEntry(key, info, Value{}, true)
	return err
}

// createEntry returns the entry for key, creating it with initial as its first
// value when absent. created reports whether this call inserted the entry. With
// declare set, an existing entry must agree with info; otherwise it is returned
// as is and the caller applies the assignment protocol.
func (bb *Blackboard) createEntry(key string, info TypeInfo, initial Value, declare bool) (entry *Entry, created bool, err error) {
	bb.mu.Lock()
	if existing, ok := bb.storage[key]; ok {
		bb.mu.Unlock()
		if !declare {
			return existing, false, nil
		}
		prev := existing.Info()
		if prev.IsStronglyTyped() && info.IsStronglyTyped() && prev.Type() != info.Type() {
			bb.emit(EventEntryTypeMismatch, map[string]any{
				"key": key, "declared": prev.TypeName(), "attempted": info.TypeName(),
			})
			return nil, false, &TypeMismatchError{Op: "create", Key: key, Declared: prev.Type(), Attempted: info.Type()}
		}
		return existing, false, nil
	}

	external, remapped := bb.remap[key]
	auto := bb.autoRemap && !IsPrivateKey(key)
	parent := bb.parent.Value()
	if parent != nil && (remapped || auto) {
		bb.mu.Unlock()
		if !remapped {
			external = key
		}
		return parent.createEntry(external, info, initial, declare)
	}

	entry = newEntry(info, initial)
	bb.storage[key] = entry
	bb.mu.Unlock()

	bb.emit(EventEntryCreate, map[string]any{"key": key, "type": info.TypeName()})
	return entry, true, nil
}

// Unset removes a local entry. Removing a missing name is a no-op. It waits for
// any holder of the entry lock to finish before returning, so it must not be
// called while holding a guard on the same entry.
func (bb *Blackboard) Unset(key string) {
	bb.mu.Lock()
	entry, ok := bb.storage[key]
	delete(bb.storage, key)
	bb.mu.Unlock()

	if !ok {
		return
	}
	// Wait out an in-flight guard on the removed entry.
	entry.mu.Lock()
	entry.mu.Unlock()

	bb.emit(EventEntryUnset, map[string]any{"key": key})
}

// Clear removes every local entry. Remappings and the parent are kept.
func (bb *Blackboard) Clear() {
	bb.mu.Lock()
	n := len(bb.storage)
	bb.storage = make(map[string]*Entry)
	bb.mu.Unlock()

	bb.emit(EventBoardClear, map[string]any{"entries": n})
}

// Keys returns the sorted names of local entries.
func (bb *Blackboard) Keys() []string {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	return slices.Sorted(maps.Keys(bb.storage))
}

// localEntries copies the name -> entry map so entries can be locked after the
// structural lock has been released.
func (bb *Blackboard) localEntries() map[string]*Entry {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	return maps.Clone(bb.storage)
}

// CloneInto replaces the entries of dst with copies of the entries of bb. The
// remappings and parent of dst are left unchanged.
func (bb *Blackboard) CloneInto(dst *Blackboard) {
	entries := bb.localEntries()
	copies := make(map[string]*Entry, len(entries))
	for key, entry := range entries {
		value, info := entry.Snapshot()
		copies[key] = newEntry(info, value)
	}

	dst.mu.Lock()
	dst.storage = copies
	dst.mu.Unlock()
}

// DebugMessage writes every local entry with its type and value, followed by the
// remap table. Write errors are ignored.
func (bb *Blackboard) DebugMessage(w io.Writer) {
	entries := bb.localEntries()
	remaps := bb.Remappings()

	for _, key := range slices.Sorted(maps.Keys(entries)) {
		value, info := entries[key].Snapshot()
		name := info.TypeName()
		if !info.IsStronglyTyped() && !value.Empty() {
			name = typeName(value.Type())
		}
		if value.Empty() {
			fmt.Fprintf(w, "%s (%s)\n", key, name)
			continue
		}
		fmt.Fprintf(w, "%s (%s) = %v\n", key, name, value)
	}
	for _, from := range slices.Sorted(maps.Keys(remaps)) {
		fmt.Fprintf(w, "[%s] remapped to port of parent tree [%s]\n", from, remaps[from])
	}
}

func (bb *Blackboard) emit(eventType EventType, data map[string]any) {
	bb.observer.OnEvent(context.Background(), Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "blackboard:" + bb.id,
		Data:      data,
	})
}
