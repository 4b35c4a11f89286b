package filter

import (
	"fmt"
	"path/filepath"

	"github.com/dyluth/warren/pkg/blackboard"
)

// Criteria defines filtering criteria for snapshot records.
// All filters are ANDed together - a record must match ALL criteria to pass.
type Criteria struct {
	NameGlob    string // Glob pattern for the entry name, empty = no filter
	TypeGlob    string // Glob pattern for the type tag, empty = no filter
	HidePrivate bool   // Drop entries whose name starts with an underscore
}

// Matches returns true if the record matches all filter criteria.
// Empty/zero criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(rec blackboard.Record) bool {
	if c.HidePrivate && blackboard.IsPrivateKey(rec.Name) {
		return false
	}

	if c.NameGlob != "" {
		matched, err := filepath.Match(c.NameGlob, rec.Name)
		if err != nil || !matched {
			return false
		}
	}

	if c.TypeGlob != "" {
		matched, err := filepath.Match(c.TypeGlob, rec.Type)
		if err != nil || !matched {
			return false
		}
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.NameGlob != "" || c.TypeGlob != "" || c.HidePrivate
}

// Validate reports malformed glob patterns.
func (c *Criteria) Validate() error {
	for _, pattern := range []string{c.NameGlob, c.TypeGlob} {
		if pattern == "" {
			continue
		}
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid pattern '%s': %w", pattern, err)
		}
	}
	return nil
}

// Apply returns the records matching c, keeping their order.
// A nil Criteria matches everything.
func Apply(c *Criteria, records []blackboard.Record) []blackboard.Record {
	if c == nil || !c.HasFilters() {
		return records
	}
	kept := make([]blackboard.Record, 0, len(records))
	for _, rec := range records {
		if c.Matches(rec) {
			kept = append(kept, rec)
		}
	}
	return kept
}
