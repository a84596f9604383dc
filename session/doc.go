// Package session provides the link-session model and the compact binary
// encodings used to persist session lists in a key-value engine.
//
// # Binary encoding
//
// Identifier lists and session lists are stored as versioned binary blobs.
// The encoder is append-only: new versions add fields but never reinterpret
// old ones. Unknown versions and truncated input are decode errors; callers
// decide whether an undecodable value means "absent".
//
// # Architecture boundaries
//
// This package owns the [Session] model, its identity and equality rules, and
// the [IDListCodec] / [ListCodec] encodings. It does NOT talk to storage
// engines or take locks; that belongs to the Store.
//
// # What this package must NOT do
//
//   - Import goLink or storage (no upward imports).
//   - Render a secret through String, GoString or slog.
package session
