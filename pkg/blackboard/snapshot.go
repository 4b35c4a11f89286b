package blackboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"
	"time"
)

// Record is the exported form of one entry: its name, the tag of its concrete
// type and the serialized value. The container format around records belongs to
// the codec consuming them.
type Record struct {
	Name  string          `json:"name"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type codec struct {
	tag    string
	typ    reflect.Type
	encode func(any) ([]byte, error)
	decode func([]byte) (any, error)
}

// Codecs maps concrete types to serializers identified by a type tag. It is safe
// for concurrent use.
type Codecs struct {
	mu     sync.RWMutex
	byType map[reflect.Type]*codec
	byTag  map[string]*codec
}

// NewCodecs creates a registry with JSON codecs for the built-in scalar types and
// time.Duration.
func NewCodecs() *Codecs {
	c := &Codecs{
		byType: make(map[reflect.Type]*codec),
		byTag:  make(map[string]*codec),
	}
	mustRegister[bool](c, "bool")
	mustRegister[string](c, "string")
	mustRegister[int](c, "int")
	mustRegister[int8](c, "int8")
	mustRegister[int16](c, "int16")
	mustRegister[int32](c, "int32")
	mustRegister[int64](c, "int64")
	mustRegister[uint](c, "uint")
	mustRegister[uint8](c, "uint8")
	mustRegister[uint16](c, "uint16")
	mustRegister[uint32](c, "uint32")
	mustRegister[uint64](c, "uint64")
	mustRegister[float32](c, "float32")
	mustRegister[float64](c, "float64")
	mustRegister[time.Duration](c, "duration")
	return c
}

func mustRegister[T any](c *Codecs, tag string) {
	if err := Register[T](c, tag); err != nil {
		panic(err)
	}
}

// Register adds a JSON codec for T under tag.
func Register[T any](c *Codecs, tag string) error {
	return RegisterFunc(c, tag,
		func(v T) ([]byte, error) { return json.Marshal(v) },
		func(data []byte) (T, error) {
			var v T
			err := json.Unmarshal(data, &v)
			return v, err
		})
}

// RegisterFunc adds a codec for T under tag using enc and dec. Registering a tag
// or a type twice is an error.
func RegisterFunc[T any](c *Codecs, tag string, enc func(T) ([]byte, error), dec func([]byte) (T, error)) error {
	if tag == "" {
		return fmt.Errorf("codec tag cannot be empty")
	}
	typ := reflect.TypeFor[T]()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byTag[tag]; exists {
		return fmt.Errorf("codec tag %q already registered", tag)
	}
	if prev, exists := c.byType[typ]; exists {
		return fmt.Errorf("type [%s] already registered as %q", typ, prev.tag)
	}

	entry := &codec{
		tag:    tag,
		typ:    typ,
		encode: func(v any) ([]byte, error) { return enc(v.(T)) },
		decode: func(data []byte) (any, error) { return dec(data) },
	}
	c.byType[typ] = entry
	c.byTag[tag] = entry
	return nil
}

// TagOf returns the tag registered for t.
func (c *Codecs) TagOf(t reflect.Type) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.byType[t]; ok {
		return entry.tag, true
	}
	return "", false
}

func (c *Codecs) lookupType(t reflect.Type) *codec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byType[t]
}

func (c *Codecs) lookupTag(tag string) *codec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byTag[tag]
}

// Export returns one record per local entry holding a value, sorted by name.
// Entries without a value, without a registered codec, or failing to encode are
// skipped.
func (bb *Blackboard) Export(codecs *Codecs) []Record {
	entries := bb.localEntries()
	records := make([]Record, 0, len(entries))

	for _, key := range slices.Sorted(maps.Keys(entries)) {
		value, _ := entries[key].Snapshot()
		if value.Empty() {
			continue
		}
		c := codecs.lookupType(value.Type())
		if c == nil {
			bb.emit(EventSnapshotSkip, map[string]any{"key": key, "reason": "no codec for " + typeName(value.Type())})
			continue
		}
		data, err := c.encode(value.Interface())
		if err != nil {
			bb.emit(EventSnapshotSkip, map[string]any{"key": key, "reason": err.Error()})
			continue
		}
		records = append(records, Record{Name: key, Type: c.tag, Value: data})
	}

	bb.emit(EventSnapshotExport, map[string]any{"entries": len(records)})
	return records
}

// Import writes every record into the blackboard with the same type-safety
// protocol as Set. Entries not mentioned are left untouched. Records with an
// unknown type tag are skipped; decode failures and type mismatches are joined
// into the returned error while the remaining records are still applied.
func (bb *Blackboard) Import(codecs *Codecs, records []Record) error {
	var errs []error
	applied := 0

	for _, rec := range records {
		c := codecs.lookupTag(rec.Type)
		if c == nil {
			bb.emit(EventSnapshotSkip, map[string]any{"key": rec.Name, "reason": "unknown type tag " + rec.Type})
			continue
		}
		decoded, err := c.decode(rec.Value)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to decode entry [%s] as %s: %w", rec.Name, rec.Type, err))
			continue
		}
		incoming := Value{v: decoded, typ: c.typ}
		if err := bb.write("import", rec.Name, incoming, c.typ, TypeFor(c.typ), false); err != nil {
			errs = append(errs, err)
			continue
		}
		applied++
	}

	bb.emit(EventSnapshotImport, map[string]any{"entries": applied, "failed": len(errs)})
	return errors.Join(errs...)
}
