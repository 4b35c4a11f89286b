// Package blackboard provides a typed, thread-safe key/value store shared by
// concurrently running components of a control-flow engine.
//
// # Overview
//
// Components communicate by reading and writing named values of arbitrary type.
// Each name keeps a stable type once it is established: the first strongly typed
// write or declaration binds it, and later writes of another type are rejected
// unless the value can be parsed or converted safely into the declared type.
//
// # Core Concepts
//
// A Value is a type-erased container remembering the concrete type it was built
// from. Reading it back with Cast or Get is deny-by-default: only the exact type,
// a lossless numeric conversion or the textual form of a number or bool succeed.
//
// An Entry is one named slot holding a Value and its declared TypeInfo. Every
// entry has its own lock, held for the whole duration of a read or write, and the
// Locked guard exposes that lock to callers needing a read-modify-write.
//
// A Blackboard may reference a parent scope. Names missing locally are forwarded to
// the parent through an explicit remap table or, with auto-remapping enabled, under
// the same name. Names starting with an underscore are private and never
// auto-remapped. Writes through a forwarded name land on the parent's entry.
//
// # Locking
//
// Two locks are involved: the structural lock of a blackboard guards its name map
// and remap table, and the entry lock guards one value. The structural lock is
// never acquired while an entry lock is held, and a resolution through the scope
// hierarchy holds at most one structural lock at a time.
//
// # Usage Example
//
//	root := blackboard.New()
//	sub := blackboard.New(blackboard.WithParent(root))
//	sub.AddSubtreeRemapping("target", "goal")
//
//	if err := blackboard.Set(sub, "target", 42); err != nil {
//		log.Fatal(err)
//	}
//
//	goal, err := blackboard.Get[int](root, "goal")
//	// goal == 42
//
//	// Text is parsed into the declared type
//	_ = root.CreateEntry("speed", blackboard.TypeOf[float64]())
//	_ = blackboard.Set(root, "speed", "1.5")
//
// # Snapshots
//
// Export turns the local entries into Records through a Codecs registry and Import
// writes records back with the same type checks as Set. The container format is
// left to the consumer; see package snapshotstore for a Redis-backed exchange.
package blackboard
