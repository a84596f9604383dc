// Package audit implements async event dispatching for session store mutations.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, slog, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event]: structured audit record with timestamp, type, session id and metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; that responsibility belongs to the Store.
//
// # What this package must NOT do
//
//   - Carry session secrets in any Event field.
//   - Import goLink or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
