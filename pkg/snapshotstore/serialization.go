package snapshotstore

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dyluth/warren/pkg/blackboard"
)

// Serialization helpers for converting between snapshot records and Redis hashes
//
// A snapshot is stored as one hash per board: the field is the entry name and the
// value is a small JSON document carrying the type tag and the encoded value.

// hashField is the JSON document stored in each hash field.
type hashField struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// RecordsToHash converts snapshot records to a Redis hash.
func RecordsToHash(records []blackboard.Record) (map[string]interface{}, error) {
	hash := make(map[string]interface{}, len(records))
	for _, rec := range records {
		if rec.Name == "" {
			return nil, fmt.Errorf("record with empty name")
		}
		data, err := json.Marshal(hashField{Type: rec.Type, Value: rec.Value})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record %q: %w", rec.Name, err)
		}
		hash[rec.Name] = string(data)
	}
	return hash, nil
}

// HashToRecords converts a Redis hash back to snapshot records sorted by name.
func HashToRecords(hash map[string]string) ([]blackboard.Record, error) {
	records := make([]blackboard.Record, 0, len(hash))
	for name, raw := range hash {
		var field hashField
		if err := json.Unmarshal([]byte(raw), &field); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record %q: %w", name, err)
		}
		records = append(records, blackboard.Record{
			Name:  name,
			Type:  field.Type,
			Value: field.Value,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
	return records, nil
}
