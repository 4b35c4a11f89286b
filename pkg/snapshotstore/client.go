package snapshotstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dyluth/warren/pkg/blackboard"
	"github.com/redis/go-redis/v9"
)

// Client provides instance-scoped Redis operations for blackboard snapshots.
// All keys and channels are automatically namespaced with the instance name.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb          *redis.Client
	instanceName string
}

// SnapshotEvent announces that a board snapshot was saved.
type SnapshotEvent struct {
	Board     string `json:"board"`
	Entries   int    `json:"entries"`
	SavedAtMs int64  `json:"saved_at_ms"`
}

// NewClient creates a new snapshot client for the specified instance.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - instanceName: warren instance identifier (must not be empty)
//
// Returns an error if instanceName is empty.
func NewClient(redisOpts *redis.Options, instanceName string) (*Client, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	return &Client{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// InstanceName returns the namespace of this client.
func (c *Client) InstanceName() string {
	return c.instanceName
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// SaveSnapshot replaces the stored snapshot of board with records and publishes a
// SnapshotEvent. The replacement runs in a MULTI/EXEC transaction so readers never
// observe a half-written snapshot.
func (c *Client) SaveSnapshot(ctx context.Context, board string, records []blackboard.Record) error {
	if board == "" {
		return fmt.Errorf("board name cannot be empty")
	}

	hash, err := RecordsToHash(records)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	key := SnapshotKey(c.instanceName, board)
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(hash) > 0 {
			pipe.HSet(ctx, key, hash)
		}
		pipe.SAdd(ctx, BoardsKey(c.instanceName), board)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write snapshot to Redis: %w", err)
	}

	event := SnapshotEvent{
		Board:     board,
		Entries:   len(records),
		SavedAtMs: time.Now().UnixMilli(),
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot event: %w", err)
	}

	channel := SnapshotEventsChannel(c.instanceName)
	if err := c.rdb.Publish(ctx, channel, eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish snapshot event: %w", err)
	}

	return nil
}

// LoadSnapshot retrieves the records of board sorted by name.
// Returns (nil, redis.Nil) if the board was never saved.
// Use IsNotFound() to check for not-found errors.
func (c *Client) LoadSnapshot(ctx context.Context, board string) ([]blackboard.Record, error) {
	exists, err := c.rdb.SIsMember(ctx, BoardsKey(c.instanceName), board).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check board index: %w", err)
	}
	if !exists {
		return nil, redis.Nil
	}

	hashData, err := c.rdb.HGetAll(ctx, SnapshotKey(c.instanceName, board)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot from Redis: %w", err)
	}

	records, err := HashToRecords(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize snapshot: %w", err)
	}

	return records, nil
}

// ListBoards returns the sorted names of every saved board.
// Returns an empty slice if none were saved (not an error).
func (c *Client) ListBoards(ctx context.Context) ([]string, error) {
	boards, err := c.rdb.SMembers(ctx, BoardsKey(c.instanceName)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	sort.Strings(boards)
	return boards, nil
}

// DeleteSnapshot removes the snapshot of board. Deleting a missing board is a no-op.
func (c *Client) DeleteSnapshot(ctx context.Context, board string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, SnapshotKey(c.instanceName, board))
		pipe.SRem(ctx, BoardsKey(c.instanceName), board)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Push exports bb with codecs and saves it as board.
func Push(ctx context.Context, c *Client, board string, bb *blackboard.Blackboard, codecs *blackboard.Codecs) error {
	return c.SaveSnapshot(ctx, board, bb.Export(codecs))
}

// Pull loads the snapshot of board and imports it into bb.
func Pull(ctx context.Context, c *Client, board string, bb *blackboard.Blackboard, codecs *blackboard.Codecs) error {
	records, err := c.LoadSnapshot(ctx, board)
	if err != nil {
		return err
	}
	if err := bb.Import(codecs, records); err != nil {
		return fmt.Errorf("failed to import snapshot %q: %w", board, err)
	}
	return nil
}

// Subscription represents an active Pub/Sub subscription to snapshot events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *SnapshotEvent
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of snapshot events.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *SnapshotEvent {
	return s.events
}

// Errors returns the channel of subscription errors.
// The subscription continues after errors - messages are skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeSnapshotEvents subscribes to snapshot events for this instance.
// Caller must call subscription.Close() when done.
// Context cancellation also stops the subscription.
//
// Events are delivered on a buffered channel (size 10). Redis Pub/Sub is
// at-most-once: events published while the subscriber is slow may be dropped.
func (c *Client) SubscribeSnapshotEvents(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, SnapshotEventsChannel(c.instanceName))

	// Wait for the subscription to be confirmed so no event published right after
	// this call is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to snapshot events: %w", err)
	}

	eventsChan := make(chan *SnapshotEvent, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event SnapshotEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal snapshot event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
