package blackboard

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport(t *testing.T) {
	bb := New()
	require.NoError(t, Set(bb, "speed", 1.5))
	require.NoError(t, Set(bb, "name", "robot"))
	require.NoError(t, Set(bb, "timeout", 3*time.Second))
	require.NoError(t, Set(bb, "pose", point{X: 1, Y: 2}))
	require.NoError(t, bb.CreateEntry("declared", TypeOf[int]()))

	records := bb.Export(NewCodecs())

	names := make([]string, 0, len(records))
	for _, rec := range records {
		names = append(names, rec.Name)
	}
	assert.Equal(t, []string{"name", "speed", "timeout"}, names,
		"sorted, without empty entries or types lacking a codec")

	assert.Equal(t, "string", records[0].Type)
	assert.JSONEq(t, `"robot"`, string(records[0].Value))
	assert.Equal(t, "float64", records[1].Type)
	assert.JSONEq(t, `1.5`, string(records[1].Value))
	assert.Equal(t, "duration", records[2].Type)
}

func TestImport(t *testing.T) {
	codecs := NewCodecs()

	t.Run("round trip declares types strongly", func(t *testing.T) {
		src := New()
		require.NoError(t, Set(src, "speed", 1.5))
		require.NoError(t, Set(src, "name", "robot"))
		require.NoError(t, Set(src, "retries", uint8(3)))

		dst := New()
		require.NoError(t, dst.Import(codecs, src.Export(codecs)))

		assert.Equal(t, src.Keys(), dst.Keys())
		retries, err := Get[uint8](dst, "retries")
		require.NoError(t, err)
		assert.Equal(t, uint8(3), retries)

		info, ok := dst.EntryInfo("name")
		require.True(t, ok)
		assert.Equal(t, reflect.TypeFor[string](), info.Type())
	})

	t.Run("is additive", func(t *testing.T) {
		dst := New()
		require.NoError(t, Set(dst, "untouched", true))
		require.NoError(t, dst.Import(codecs, []Record{
			{Name: "added", Type: "int", Value: json.RawMessage(`5`)},
		}))
		assert.Equal(t, []string{"added", "untouched"}, dst.Keys())
	})

	t.Run("converts into existing declarations", func(t *testing.T) {
		dst := New()
		require.NoError(t, dst.CreateEntry("count", TypeOf[uint8]()))

		require.NoError(t, dst.Import(codecs, []Record{
			{Name: "count", Type: "int", Value: json.RawMessage(`100`)},
		}))
		got, err := Get[uint8](dst, "count")
		require.NoError(t, err)
		assert.Equal(t, uint8(100), got)

		err = dst.Import(codecs, []Record{
			{Name: "count", Type: "int", Value: json.RawMessage(`300`)},
		})
		assert.True(t, IsTypeMismatch(err))
	})

	t.Run("failures are joined and the rest applied", func(t *testing.T) {
		dst := New()
		require.NoError(t, Set(dst, "speed", true))

		err := dst.Import(codecs, []Record{
			{Name: "speed", Type: "float64", Value: json.RawMessage(`2.5`)},
			{Name: "broken", Type: "int", Value: json.RawMessage(`"x"`)},
			{Name: "count", Type: "int", Value: json.RawMessage(`7`)},
		})
		require.Error(t, err)
		assert.True(t, IsTypeMismatch(err))
		assert.Contains(t, err.Error(), "failed to decode entry [broken] as int")

		got, err := Get[int](dst, "count")
		require.NoError(t, err)
		assert.Equal(t, 7, got)

		speed, err := Get[bool](dst, "speed")
		require.NoError(t, err)
		assert.True(t, speed)
	})

	t.Run("unknown tags are skipped", func(t *testing.T) {
		dst := New()
		require.NoError(t, dst.Import(codecs, []Record{
			{Name: "mystery", Type: "quaternion", Value: json.RawMessage(`[0,0,0,1]`)},
		}))
		assert.Empty(t, dst.Keys())
	})

	t.Run("writes through remapped names", func(t *testing.T) {
		parent := New()
		child := New(WithParent(parent))
		child.AddSubtreeRemapping("local", "global")

		require.NoError(t, child.Import(codecs, []Record{
			{Name: "local", Type: "string", Value: json.RawMessage(`"up"`)},
		}))
		got, err := Get[string](parent, "global")
		require.NoError(t, err)
		assert.Equal(t, "up", got)
	})
}

func TestCodecs(t *testing.T) {
	t.Run("custom JSON codec", func(t *testing.T) {
		codecs := NewCodecs()
		require.NoError(t, Register[point](codecs, "point"))

		tag, ok := codecs.TagOf(reflect.TypeFor[point]())
		require.True(t, ok)
		assert.Equal(t, "point", tag)

		src := New()
		require.NoError(t, Set(src, "pose", point{X: 3, Y: 4}))
		records := src.Export(codecs)
		require.Len(t, records, 1)
		assert.JSONEq(t, `{"X":3,"Y":4}`, string(records[0].Value))

		dst := New()
		require.NoError(t, dst.Import(codecs, records))
		got, err := Get[point](dst, "pose")
		require.NoError(t, err)
		assert.Equal(t, point{X: 3, Y: 4}, got)
	})

	t.Run("custom encoding functions", func(t *testing.T) {
		codecs := NewCodecs()
		require.NoError(t, RegisterFunc(codecs, "point-text",
			func(p point) ([]byte, error) { return json.Marshal(fmt.Sprintf("%d;%d", p.X, p.Y)) },
			func(data []byte) (point, error) {
				var s string
				if err := json.Unmarshal(data, &s); err != nil {
					return point{}, err
				}
				var p point
				_, err := fmt.Sscanf(strings.ReplaceAll(s, ";", " "), "%d %d", &p.X, &p.Y)
				return p, err
			}))

		src := New()
		require.NoError(t, Set(src, "pose", point{X: 5, Y: 6}))
		records := src.Export(codecs)
		require.Len(t, records, 1)
		assert.JSONEq(t, `"5;6"`, string(records[0].Value))

		dst := New()
		require.NoError(t, dst.Import(codecs, records))
		got, err := Get[point](dst, "pose")
		require.NoError(t, err)
		assert.Equal(t, point{X: 5, Y: 6}, got)
	})

	t.Run("registration errors", func(t *testing.T) {
		codecs := NewCodecs()
		assert.Error(t, Register[point](codecs, ""))
		assert.Error(t, Register[point](codecs, "int"), "tag already taken")
		assert.Error(t, Register[int](codecs, "integer"), "type already registered")

		_, ok := codecs.TagOf(reflect.TypeFor[point]())
		assert.False(t, ok)
	})
}
