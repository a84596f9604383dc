// Package storage defines the persistence engine contract consumed by the
// session store and ships three engines.
//
// # Contract
//
// An [Engine] is an opaque key/value store with three operations: Get, Set
// (present=false clears the key) and Observe, which pushes the current value
// of a key immediately and then every later Set of that key. Engines are safe
// for concurrent use but offer no transactions across keys.
//
// # Engines
//
//   - [MemoryEngine]: process-local map; tests and ephemeral use.
//   - [RedisEngine]: Redis GET/SET/DEL with a PUBLISH per write so that every
//     client sharing the server observes changes.
//   - [SQLiteEngine]: single-file on-device store (modernc.org/sqlite, no cgo).
//
// # Typed keys
//
// [Key] pairs a key name with a [Codec]. [Load] reports undecodable values as
// [ErrCorruptValue] so callers can choose to treat them as absent.
//
// # What this package must NOT do
//
//   - Interpret session semantics or take store-level locks.
//   - Log values: they may contain secrets.
package storage
