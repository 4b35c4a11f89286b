package snapshotstore

import (
	"encoding/json"
	"testing"

	"github.com/dyluth/warren/pkg/blackboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toStringHash simulates what Redis hands back from HGETALL
func toStringHash(t *testing.T, hash map[string]interface{}) map[string]string {
	out := make(map[string]string, len(hash))
	for k, v := range hash {
		s, ok := v.(string)
		require.True(t, ok, "hash field %q should be a string", k)
		out[k] = s
	}
	return out
}

func TestRecordsRoundTrip(t *testing.T) {
	original := []blackboard.Record{
		{Name: "pose", Type: "float64", Value: json.RawMessage(`1.25`)},
		{Name: "_private", Type: "bool", Value: json.RawMessage(`true`)},
		{Name: "timeout", Type: "duration", Value: json.RawMessage(`1500000000`)},
	}

	hash, err := RecordsToHash(original)
	require.NoError(t, err)
	assert.Len(t, hash, 3)

	result, err := HashToRecords(toStringHash(t, hash))
	require.NoError(t, err)
	require.Len(t, result, 3)

	// Sorted by name
	assert.Equal(t, "_private", result[0].Name)
	assert.Equal(t, "pose", result[1].Name)
	assert.Equal(t, "timeout", result[2].Name)

	assert.Equal(t, "float64", result[1].Type)
	assert.JSONEq(t, `1.25`, string(result[1].Value))
	assert.Equal(t, "duration", result[2].Type)
}

func TestRecordsToHash(t *testing.T) {
	t.Run("stores type and value as JSON", func(t *testing.T) {
		hash, err := RecordsToHash([]blackboard.Record{
			{Name: "goal", Type: "string", Value: json.RawMessage(`"dock"`)},
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"string","value":"dock"}`, hash["goal"].(string))
	})

	t.Run("empty input gives empty hash", func(t *testing.T) {
		hash, err := RecordsToHash(nil)
		require.NoError(t, err)
		assert.Empty(t, hash)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := RecordsToHash([]blackboard.Record{{Type: "int", Value: json.RawMessage(`1`)}})
		assert.Error(t, err)
	})

	t.Run("rejects invalid raw JSON", func(t *testing.T) {
		_, err := RecordsToHash([]blackboard.Record{{Name: "x", Type: "int", Value: json.RawMessage(`{`)}})
		assert.Error(t, err)
	})
}

func TestHashToRecords(t *testing.T) {
	t.Run("rejects malformed field", func(t *testing.T) {
		_, err := HashToRecords(map[string]string{"x": "not json"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"x"`)
	})

	t.Run("empty hash gives empty records", func(t *testing.T) {
		records, err := HashToRecords(map[string]string{})
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

// TestRecordsFeedImport verifies records restored from a hash import into a blackboard
func TestRecordsFeedImport(t *testing.T) {
	codecs := blackboard.NewCodecs()
	src := blackboard.New()
	require.NoError(t, blackboard.Set(src, "count", int32(7)))
	require.NoError(t, blackboard.Set(src, "name", "warren"))

	hash, err := RecordsToHash(src.Export(codecs))
	require.NoError(t, err)
	records, err := HashToRecords(toStringHash(t, hash))
	require.NoError(t, err)

	dst := blackboard.New()
	require.NoError(t, dst.Import(codecs, records))

	count, err := blackboard.Get[int32](dst, "count")
	require.NoError(t, err)
	assert.Equal(t, int32(7), count)

	name, err := blackboard.Get[string](dst, "name")
	require.NoError(t, err)
	assert.Equal(t, "warren", name)
}
