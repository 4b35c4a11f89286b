package blackboard

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests are meant to run under -race.

func TestConcurrentReadModifyWrite(t *testing.T) {
	bb := New()
	require.NoError(t, Set(bb, "counter", 0))

	const workers, iterations = 16, 200

	var wg conc.WaitGroup
	for range workers {
		wg.Go(func() {
			for range iterations {
				err := bb.WithLocked("counter", func(v *Value) error {
					n, err := Cast[int](*v)
					if err != nil {
						return err
					}
					*v = NewValue(n + 1)
					return nil
				})
				assert.NoError(t, err)
			}
		})
	}
	wg.Wait()

	got, err := Get[int](bb, "counter")
	require.NoError(t, err)
	assert.Equal(t, workers*iterations, got)
}

func TestConcurrentCreation(t *testing.T) {
	bb := New()

	var wg conc.WaitGroup
	for i := range 32 {
		wg.Go(func() {
			assert.NoError(t, Set(bb, "contested", i))
		})
		wg.Go(func() {
			assert.NoError(t, Set(bb, fmt.Sprintf("own-%02d", i), i))
		})
	}
	wg.Wait()

	assert.Len(t, bb.Keys(), 33)
	info, ok := bb.EntryInfo("contested")
	require.True(t, ok)
	assert.Equal(t, "int", info.TypeName())

	got, err := Get[int](bb, "contested")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got, 0)
	assert.Less(t, got, 32)
}

func TestConcurrentWritesToDeclaredEntry(t *testing.T) {
	bb := New()
	require.NoError(t, bb.CreateEntry("ticks", TypeOf[int64]()))

	const writers = 64
	var wg conc.WaitGroup
	for i := range writers {
		wg.Go(func() {
			assert.NoError(t, Set(bb, "ticks", int64(i)*1_000_003))
		})
	}
	wg.Wait()

	got, err := Get[int64](bb, "ticks")
	require.NoError(t, err)
	assert.Zero(t, got%1_000_003, "value must be one of the written ones")
	assert.Less(t, got, int64(writers)*1_000_003)
}

// Whichever numeric type creates the name first, the other write converts into it.
func TestConcurrentCreationWithConvertibleTypes(t *testing.T) {
	for round := range 200 {
		bb := New()
		key := fmt.Sprintf("k-%d", round)

		var wg conc.WaitGroup
		for i := range 8 {
			wg.Go(func() {
				if i%2 == 0 {
					assert.NoError(t, Set(bb, key, int32(i)))
					return
				}
				assert.NoError(t, Set(bb, key, i))
			})
		}
		wg.Wait()

		got, err := Get[int](bb, key)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, 0)
		assert.Less(t, got, 8)
	}
}

func TestConcurrentImportWithConvertibleTypes(t *testing.T) {
	codecs := NewCodecs()
	for range 100 {
		bb := New()

		var wg conc.WaitGroup
		for _, tag := range []string{"int32", "int64", "int", "uint8"} {
			wg.Go(func() {
				err := bb.Import(codecs, []Record{{Name: "level", Type: tag, Value: json.RawMessage(`7`)}})
				assert.NoError(t, err)
			})
		}
		wg.Wait()

		got, err := Get[int](bb, "level")
		require.NoError(t, err)
		assert.Equal(t, 7, got)
	}
}

func TestConcurrentMixedOperations(t *testing.T) {
	parent := New()
	child := New(WithParent(parent), WithAutoRemapping(true))
	child.AddSubtreeRemapping("speed", "velocity")
	codecs := NewCodecs()

	var wg conc.WaitGroup
	for i := range 8 {
		wg.Go(func() {
			for j := range 100 {
				_ = Set(child, "speed", float64(j))
				_ = Set(child, fmt.Sprintf("key-%d", i), j)
			}
		})
		wg.Go(func() {
			for range 100 {
				_, _, _ = Lookup[float64](parent, "velocity")
				_, _, _ = Lookup[int](child, fmt.Sprintf("key-%d", i))
				_ = parent.Keys()
			}
		})
		wg.Go(func() {
			for range 20 {
				_ = parent.Export(codecs)
				dst := New()
				parent.CloneInto(dst)
				_ = dst.Keys()
			}
		})
	}
	wg.Go(func() {
		for range 20 {
			child.Unset("_scratch")
			_ = Set(child, "_scratch", 1)
		}
	})
	wg.Wait()

	got, err := Get[float64](parent, "velocity")
	require.NoError(t, err)
	assert.Equal(t, 99.0, got)
}

func TestTypeBindingUnderContention(t *testing.T) {
	bb := New()
	require.NoError(t, bb.CreateEntry("port", TypeOf[int32]()))

	var wg conc.WaitGroup
	var rejected [16]bool
	for i := range 16 {
		wg.Go(func() {
			if i%2 == 0 {
				assert.NoError(t, Set(bb, "port", "12"))
				return
			}
			rejected[i] = IsTypeMismatch(Set(bb, "port", "not a number"))
		})
	}
	wg.Wait()

	for i := 1; i < 16; i += 2 {
		assert.True(t, rejected[i])
	}
	got, err := Get[int32](bb, "port")
	require.NoError(t, err)
	assert.Equal(t, int32(12), got)
}
