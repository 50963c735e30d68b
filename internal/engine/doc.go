// Package engine orchestrates parsing: it picks a frontend for each
// request, consults the in-memory and persistent caches, enforces the
// IR invariants on fresh results and records them.
//
// Request flow:
//  1. Resolve the frontend for the language key (or infer the key from
//     the file extension)
//  2. Compute the source key (ir.SourceKey) of the request
//  3. Return a cached module from the LRU, then from the store, if present
//  4. Otherwise parse, validate, and write the result to both caches
//
// Cached modules are kept as canonical JSON and decoded on every hit, so
// callers always own the module they receive.
//
// An Engine is safe for concurrent use. Each call resolves its own
// frontend instance, and builders are never shared between calls.
package engine
