package snapshotstore

import "fmt"

// Redis key pattern helpers
//
// All keys and Pub/Sub channels are namespaced by instance name so several warren
// instances can share one Redis server.
//
// Key pattern: warren:{instance_name}:{entity}[:{name}...]
// Channel pattern: warren:{instance_name}:{event_type}_events

// SnapshotKey returns the Redis key of a board snapshot hash.
// Pattern: warren:{instance_name}:board:{board}:snapshot
func SnapshotKey(instanceName, board string) string {
	return fmt.Sprintf("warren:%s:board:%s:snapshot", instanceName, board)
}

// BoardsKey returns the Redis key of the set indexing every saved board.
// Pattern: warren:{instance_name}:boards
func BoardsKey(instanceName string) string {
	return fmt.Sprintf("warren:%s:boards", instanceName)
}

// SnapshotEventsChannel returns the Pub/Sub channel announcing saved snapshots.
// Pattern: warren:{instance_name}:snapshot_events
func SnapshotEventsChannel(instanceName string) string {
	return fmt.Sprintf("warren:%s:snapshot_events", instanceName)
}
