// Package goLink persists wallet-link sessions (an identifier, its secret, an
// owning server URL and optional dapp metadata) over an opaque key-value
// engine and exposes a deduplicated push feed of the session set.
//
// A [Store] is safe for concurrent use. Save, Delete and every snapshot read
// are serialized by one lock per Store, so compound read-filter-write updates
// are atomic with respect to other callers of the same Store. Feeds returned
// by the Observe methods never take that lock.
//
// # Layouts
//
// [LayoutUnified] stores every session record under one list key and scopes
// sessions by URL. [LayoutSeparated] stores an identifier list plus one
// secret key per identifier; identifiers are global and URL is not kept.
// Reads in the separated layout skip identifiers whose secret is missing.
//
// # What this package must NOT do
//
//   - Log, audit or format a session secret.
//   - Fail a read or a feed because a stored value is corrupt. Corrupt values
//     read as absent.
//   - Close an engine it did not create.
package goLink
