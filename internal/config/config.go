package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/dyluth/warren/pkg/blackboard"
	"gopkg.in/yaml.v3"
)

// BoardConfig represents the top-level board description file
type BoardConfig struct {
	Version string  `yaml:"version"`
	Scopes  []Scope `yaml:"scopes"`
}

// Scope describes one blackboard of the tree
type Scope struct {
	Name      string            `yaml:"name"`
	Parent    string            `yaml:"parent,omitempty"`     // Must name a scope declared earlier
	AutoRemap bool              `yaml:"auto_remap,omitempty"` // Forward unmapped names to the parent
	Remap     map[string]string `yaml:"remap,omitempty"`      // internal name -> parent name
	Entries   []Entry           `yaml:"entries,omitempty"`
}

// Entry declares one port and, optionally, its initial value in textual form
type Entry struct {
	Name  string  `yaml:"name"`
	Type  string  `yaml:"type,omitempty"` // Defaults to "any"
	Value *string `yaml:"value,omitempty"`
}

var typeNames = map[string]blackboard.TypeInfo{
	"any":      blackboard.AnyType(),
	"bool":     blackboard.TypeOf[bool](),
	"int":      blackboard.TypeOf[int](),
	"int8":     blackboard.TypeOf[int8](),
	"int16":    blackboard.TypeOf[int16](),
	"int32":    blackboard.TypeOf[int32](),
	"int64":    blackboard.TypeOf[int64](),
	"uint":     blackboard.TypeOf[uint](),
	"uint8":    blackboard.TypeOf[uint8](),
	"uint16":   blackboard.TypeOf[uint16](),
	"uint32":   blackboard.TypeOf[uint32](),
	"uint64":   blackboard.TypeOf[uint64](),
	"float32":  blackboard.TypeOf[float32](),
	"float64":  blackboard.TypeOf[float64](),
	"string":   blackboard.TypeOf[string](),
	"duration": blackboard.TypeOf[time.Duration](),
}

// TypeNames returns the sorted type names accepted in entry declarations
func TypeNames() []string {
	names := make([]string, 0, len(typeNames))
	for name := range typeNames {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ParseTypeName maps a type name of the board file to its declaration.
// An empty name declares an entry accepting any type.
func ParseTypeName(name string) (blackboard.TypeInfo, error) {
	if name == "" {
		return blackboard.AnyType(), nil
	}
	info, ok := typeNames[name]
	if !ok {
		return blackboard.TypeInfo{}, fmt.Errorf("unknown type '%s' (valid: %v)", name, TypeNames())
	}
	return info, nil
}

// Validate performs strict validation on the configuration
func (c *BoardConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	// Required: at least one scope
	if len(c.Scopes) == 0 {
		return fmt.Errorf("no scopes defined")
	}

	declared := make(map[string]bool, len(c.Scopes))
	for i := range c.Scopes {
		scope := &c.Scopes[i]
		if err := scope.Validate(declared); err != nil {
			return err
		}
		declared[scope.Name] = true
	}

	return nil
}

// Validate checks a single scope against the scopes declared before it
func (s *Scope) Validate(declared map[string]bool) error {
	if s.Name == "" {
		return fmt.Errorf("scope name is required")
	}
	if declared[s.Name] {
		return fmt.Errorf("duplicate scope name '%s'", s.Name)
	}

	if s.Parent != "" {
		if s.Parent == s.Name {
			return fmt.Errorf("scope '%s' cannot be its own parent", s.Name)
		}
		if !declared[s.Parent] {
			return fmt.Errorf("scope '%s': parent '%s' must be declared before it", s.Name, s.Parent)
		}
	} else if s.AutoRemap || len(s.Remap) > 0 {
		return fmt.Errorf("scope '%s': remap and auto_remap require a parent", s.Name)
	}

	for internal, external := range s.Remap {
		if internal == "" || external == "" {
			return fmt.Errorf("scope '%s': remap names cannot be empty", s.Name)
		}
	}

	seen := make(map[string]bool, len(s.Entries))
	for _, entry := range s.Entries {
		if entry.Name == "" {
			return fmt.Errorf("scope '%s': entry name is required", s.Name)
		}
		if seen[entry.Name] {
			return fmt.Errorf("scope '%s': duplicate entry '%s'", s.Name, entry.Name)
		}
		seen[entry.Name] = true

		if _, err := ParseTypeName(entry.Type); err != nil {
			return fmt.Errorf("scope '%s' entry '%s': %w", s.Name, entry.Name, err)
		}
	}

	return nil
}

// Parse decodes and validates a board description
func Parse(data []byte) (*BoardConfig, error) {
	var config BoardConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Load reads and validates a board description from the specified path
func Load(path string) (*BoardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}
