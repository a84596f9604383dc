// Package internal holds goLink implementation details that are not part of
// the public API.
//
// # Sub-packages
//
//   - audit: async dispatch of mutation events to a Sink
//   - feed: change-feed pipe with consecutive-duplicate suppression
//
// # What this package must NOT do
//
//   - Export types that appear in the public goLink API except through aliases.
//   - Be imported by any package outside the goLink module.
package internal
