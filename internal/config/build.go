package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/dyluth/warren/pkg/blackboard"
)

// Tree holds the blackboards built from a BoardConfig. Children only reference
// their parents weakly, so the tree keeps every scope alive while it is in use.
type Tree struct {
	names  []string
	boards map[string]*blackboard.Blackboard
}

// Names returns the scope names in declaration order.
func (t *Tree) Names() []string {
	return slices.Clone(t.names)
}

// Board returns the blackboard of scope name.
func (t *Tree) Board(name string) (*blackboard.Blackboard, bool) {
	bb, ok := t.boards[name]
	return bb, ok
}

// Build creates one blackboard per scope, wires parents and remappings, declares
// every entry and assigns the initial values. Values are written as text, so they
// are parsed into the declared type of the port. opts apply to every board.
func Build(cfg *BoardConfig, opts ...blackboard.Option) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	tree := &Tree{
		names:  make([]string, 0, len(cfg.Scopes)),
		boards: make(map[string]*blackboard.Blackboard, len(cfg.Scopes)),
	}

	for _, scope := range cfg.Scopes {
		scopeOpts := slices.Clone(opts)
		if scope.Parent != "" {
			scopeOpts = append(scopeOpts,
				blackboard.WithParent(tree.boards[scope.Parent]),
				blackboard.WithAutoRemapping(scope.AutoRemap))
		}
		bb := blackboard.New(scopeOpts...)

		for _, internal := range slices.Sorted(maps.Keys(scope.Remap)) {
			bb.AddSubtreeRemapping(internal, scope.Remap[internal])
		}

		for _, entry := range scope.Entries {
			info, err := ParseTypeName(entry.Type)
			if err != nil {
				return nil, fmt.Errorf("scope '%s' entry '%s': %w", scope.Name, entry.Name, err)
			}
			if err := bb.CreateEntry(entry.Name, info); err != nil {
				return nil, fmt.Errorf("scope '%s': failed to declare entry '%s': %w", scope.Name, entry.Name, err)
			}
			if entry.Value == nil {
				continue
			}
			if err := blackboard.Set(bb, entry.Name, *entry.Value); err != nil {
				return nil, fmt.Errorf("scope '%s': failed to set entry '%s': %w", scope.Name, entry.Name, err)
			}
		}

		tree.names = append(tree.names, scope.Name)
		tree.boards[scope.Name] = bb
	}

	return tree, nil
}
