// Package snapshotstore exchanges blackboard snapshots through Redis.
//
// A snapshot is the list of records produced by Blackboard.Export. Each board is
// stored as one hash, indexed in a per-instance set, and every save is announced
// on a Pub/Sub channel. All keys and channels are namespaced by instance name so
// several warren instances can share one Redis server.
//
// The store never shares live entries between processes: Push exports a board and
// Pull imports the saved records into another board with the usual type checks.
//
//	client, err := snapshotstore.NewClient(&redis.Options{Addr: "localhost:6379"}, "default")
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	codecs := blackboard.NewCodecs()
//	if err := snapshotstore.Push(ctx, client, "root", bb, codecs); err != nil {
//		return err
//	}
package snapshotstore
