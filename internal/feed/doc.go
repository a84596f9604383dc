// Package feed turns a raw engine subscription into a typed, deduplicated
// snapshot stream.
//
// [Pipe] is the single composition used by every session feed: receive a raw
// update, map it to the caller's shape, drop it if equal to the previous
// push, yield it. Callers parameterise it with the transform and equality.
//
// # What this package must NOT do
//
//   - Buffer more than the configured output capacity.
//   - Take locks owned by the store.
package feed
