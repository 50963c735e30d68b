// Package ir provides the control-flow-graph intermediate representation
// emitted by every language frontend.
//
// This package contains the graph types, the metadata value tree, canonical
// serialization and invariant checks. All other internal packages import ir;
// ir imports nothing internal.
//
// Key design constraints:
//   - NO float types in metadata - use int64 for numbers
//   - Edges reference node ids, never node values
//   - Node ids are unique within their owning function only
//   - All JSON tags use snake_case
package ir
