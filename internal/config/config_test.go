package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/dyluth/warren/pkg/blackboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	config, err := Load(filepath.Join("testdata", "board.yml"))
	require.NoError(t, err)
	assert.Equal(t, "1.0", config.Version)
	require.Len(t, config.Scopes, 2)

	root := config.Scopes[0]
	assert.Equal(t, "root", root.Name)
	assert.Empty(t, root.Parent)
	require.Len(t, root.Entries, 5)
	require.NotNil(t, root.Entries[2].Value)
	assert.Equal(t, "3", *root.Entries[2].Value, "scalars are kept as text")
	assert.Nil(t, root.Entries[4].Value)

	nav := config.Scopes[1]
	assert.Equal(t, "root", nav.Parent)
	assert.True(t, nav.AutoRemap)
	assert.Equal(t, map[string]string{"target": "goal"}, nav.Remap)
}

func TestLoad_FileNotFound(t *testing.T) {
	config, err := Load("/nonexistent/board.yml")
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "board.yml")

	invalidYAML := `version: "1.0"
scopes:
  - this is invalid
    yaml syntax
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidYAML), 0644))

	config, err := Load(configPath)
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  BoardConfig
		wantErr string
	}{
		{
			name:    "unsupported version",
			config:  BoardConfig{Version: "2.0", Scopes: []Scope{{Name: "root"}}},
			wantErr: "unsupported version: 2.0",
		},
		{
			name:    "no scopes",
			config:  BoardConfig{Version: "1.0"},
			wantErr: "no scopes defined",
		},
		{
			name:    "missing scope name",
			config:  BoardConfig{Version: "1.0", Scopes: []Scope{{}}},
			wantErr: "scope name is required",
		},
		{
			name:    "duplicate scope",
			config:  BoardConfig{Version: "1.0", Scopes: []Scope{{Name: "a"}, {Name: "a"}}},
			wantErr: "duplicate scope name 'a'",
		},
		{
			name:    "parent declared later",
			config:  BoardConfig{Version: "1.0", Scopes: []Scope{{Name: "child", Parent: "root"}, {Name: "root"}}},
			wantErr: "parent 'root' must be declared before it",
		},
		{
			name:    "own parent",
			config:  BoardConfig{Version: "1.0", Scopes: []Scope{{Name: "loop", Parent: "loop"}}},
			wantErr: "cannot be its own parent",
		},
		{
			name:    "remap without parent",
			config:  BoardConfig{Version: "1.0", Scopes: []Scope{{Name: "root", Remap: map[string]string{"a": "b"}}}},
			wantErr: "require a parent",
		},
		{
			name: "empty remap target",
			config: BoardConfig{Version: "1.0", Scopes: []Scope{
				{Name: "root"},
				{Name: "child", Parent: "root", Remap: map[string]string{"a": ""}},
			}},
			wantErr: "remap names cannot be empty",
		},
		{
			name:    "missing entry name",
			config:  BoardConfig{Version: "1.0", Scopes: []Scope{{Name: "root", Entries: []Entry{{Type: "int"}}}}},
			wantErr: "entry name is required",
		},
		{
			name:    "duplicate entry",
			config:  BoardConfig{Version: "1.0", Scopes: []Scope{{Name: "root", Entries: []Entry{{Name: "x"}, {Name: "x"}}}}},
			wantErr: "duplicate entry 'x'",
		},
		{
			name:    "unknown type",
			config:  BoardConfig{Version: "1.0", Scopes: []Scope{{Name: "root", Entries: []Entry{{Name: "x", Type: "complex128"}}}}},
			wantErr: "unknown type 'complex128'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseTypeName(t *testing.T) {
	info, err := ParseTypeName("duration")
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[time.Duration](), info.Type())

	info, err = ParseTypeName("")
	require.NoError(t, err)
	assert.False(t, info.IsStronglyTyped())

	_, err = ParseTypeName("map")
	assert.Error(t, err)

	assert.Contains(t, TypeNames(), "float32")
	assert.Len(t, TypeNames(), 16)
}

func TestBuild(t *testing.T) {
	config, err := Load(filepath.Join("testdata", "board.yml"))
	require.NoError(t, err)

	tree, err := Build(config)
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "navigate"}, tree.Names())

	root, ok := tree.Board("root")
	require.True(t, ok)
	nav, ok := tree.Board("navigate")
	require.True(t, ok)
	assert.Same(t, root, nav.Parent())

	_, ok = tree.Board("missing")
	assert.False(t, ok)

	t.Run("values are parsed into the declared types", func(t *testing.T) {
		battery, err := blackboard.Get[float64](root, "battery")
		require.NoError(t, err)
		assert.Equal(t, 0.8, battery)

		retries, err := blackboard.Get[uint8](root, "retries")
		require.NoError(t, err)
		assert.Equal(t, uint8(3), retries)

		timeout, err := blackboard.Get[time.Duration](root, "timeout")
		require.NoError(t, err)
		assert.Equal(t, 1500*time.Millisecond, timeout)
	})

	t.Run("declared entries without a value", func(t *testing.T) {
		info, ok := root.EntryInfo("pose")
		require.True(t, ok)
		assert.False(t, info.IsStronglyTyped())
	})

	t.Run("remapped names resolve in the parent", func(t *testing.T) {
		target, err := blackboard.Get[string](nav, "target")
		require.NoError(t, err)
		assert.Equal(t, "dock", target)
	})

	t.Run("auto remapped declarations land in the parent", func(t *testing.T) {
		info, ok := root.EntryInfo("speed")
		require.True(t, ok)
		assert.Equal(t, reflect.TypeFor[float32](), info.Type())

		speed, err := blackboard.Get[float32](nav, "speed")
		require.NoError(t, err)
		assert.Equal(t, float32(0.5), speed)
	})

	t.Run("private entries stay in the child", func(t *testing.T) {
		assert.Equal(t, []string{"_attempt"}, nav.Keys())
	})
}

func TestBuild_Errors(t *testing.T) {
	t.Run("conflicting declarations across scopes", func(t *testing.T) {
		config, err := Parse([]byte(`version: "1.0"
scopes:
  - name: root
    entries:
      - name: goal
        type: string
  - name: child
    parent: root
    remap:
      target: goal
    entries:
      - name: target
        type: int
`))
		require.NoError(t, err)

		_, err = Build(config)
		require.Error(t, err)
		assert.True(t, blackboard.IsTypeMismatch(err))
		assert.Contains(t, err.Error(), "failed to declare entry 'target'")
	})

	t.Run("value not parseable into the declared type", func(t *testing.T) {
		config, err := Parse([]byte(`version: "1.0"
scopes:
  - name: root
    entries:
      - name: count
        type: uint8
        value: "-1"
`))
		require.NoError(t, err)

		_, err = Build(config)
		require.Error(t, err)
		assert.True(t, blackboard.IsTypeMismatch(err))
	})

	t.Run("invalid configuration", func(t *testing.T) {
		_, err := Build(&BoardConfig{Version: "0.1"})
		assert.Error(t, err)
	})
}

func TestBuild_AppliesOptions(t *testing.T) {
	config, err := Parse([]byte(`version: "1.0"
scopes:
  - name: root
    entries:
      - name: a
        type: int
        value: "1"
`))
	require.NoError(t, err)

	obs := &countingObserver{}
	_, err = Build(config, blackboard.WithObserver(obs))
	require.NoError(t, err)
	assert.NotZero(t, obs.count)
}

type countingObserver struct {
	count int
}

func (o *countingObserver) OnEvent(_ context.Context, _ blackboard.Event) {
	o.count++
}
