//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dyluth/warren/internal/watch"
	"github.com/dyluth/warren/pkg/blackboard"
	"github.com/dyluth/warren/pkg/snapshotstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// E2EEnvironment represents an isolated E2E test environment: a Redis container,
// a board file in a temp directory and a unique instance name.
type E2EEnvironment struct {
	T            *testing.T
	TmpDir       string
	BoardFile    string
	InstanceName string
	RedisURL     string
	Client       *snapshotstore.Client
	Ctx          context.Context
}

// SetupE2EEnvironment creates a fully isolated E2E test environment
// with temp directory, warren.yml and unique instance name
func SetupE2EEnvironment(t *testing.T, boardYML string) *E2EEnvironment {
	ctx := context.Background()

	tmpDir := t.TempDir()
	boardFile := filepath.Join(tmpDir, "warren.yml")
	require.NoError(t, os.WriteFile(boardFile, []byte(boardYML), 0644), "Failed to write warren.yml")

	// Unique instance name with microseconds so runs sharing a server never collide
	instanceName := fmt.Sprintf("test-e2e-%s", time.Now().Format("20060102-150405-000000"))

	redisURL := StartRedis(t)
	opts, err := redis.ParseURL(redisURL)
	require.NoError(t, err)

	client, err := snapshotstore.NewClient(opts, instanceName)
	require.NoError(t, err, "Failed to create snapshot client")
	t.Cleanup(func() { client.Close() })

	return &E2EEnvironment{
		T:            t,
		TmpDir:       tmpDir,
		BoardFile:    boardFile,
		InstanceName: instanceName,
		RedisURL:     redisURL,
		Client:       client,
		Ctx:          ctx,
	}
}

// GlobalArgs returns the warren flags pointing at this environment.
func (env *E2EEnvironment) GlobalArgs() []string {
	return []string{"--redis-url", env.RedisURL, "--name", env.InstanceName}
}

// WaitForBoard waits for board to be saved (up to 10 seconds) and returns its records.
func (env *E2EEnvironment) WaitForBoard(board string) []blackboard.Record {
	records, err := watch.PollForBoard(env.Ctx, env.Client, board, 10*time.Second)
	require.NoError(env.T, err, "board '%s' was never saved", board)
	return records
}

// AssertEntry checks that the saved snapshot of board holds name with the given
// type tag and JSON value.
func (env *E2EEnvironment) AssertEntry(board, name, typeTag, valueJSON string) {
	for _, rec := range env.WaitForBoard(board) {
		if rec.Name != name {
			continue
		}
		require.Equal(env.T, typeTag, rec.Type, "type of '%s' on board '%s'", name, board)
		require.JSONEq(env.T, valueJSON, string(rec.Value), "value of '%s' on board '%s'", name, board)
		return
	}
	env.T.Fatalf("entry '%s' not found on board '%s'", name, board)
}

// RestoreBoard pulls board into a fresh blackboard.
func (env *E2EEnvironment) RestoreBoard(board string) *blackboard.Blackboard {
	bb := blackboard.New()
	require.NoError(env.T, snapshotstore.Pull(env.Ctx, env.Client, board, bb, blackboard.NewCodecs()))
	return bb
}

// SaveRaw writes records directly, bypassing any blackboard.
func (env *E2EEnvironment) SaveRaw(board string, records map[string]any) {
	out := make([]blackboard.Record, 0, len(records))
	for name, value := range records {
		data, err := json.Marshal(value)
		require.NoError(env.T, err)
		out = append(out, blackboard.Record{Name: name, Type: fmt.Sprintf("%T", value), Value: data})
	}
	require.NoError(env.T, env.Client.SaveSnapshot(env.Ctx, board, out))
}
