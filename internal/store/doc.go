// Package store provides a SQLite-backed cache of parse results.
//
// Each row holds the canonical JSON of one module, keyed by its source
// key (see ir.SourceKey): the language, file path, source digest and IR
// and engine versions. A change to any of them yields a new key, so
// stale entries are never returned, only left behind. Function names
// and graph sizes are kept beside the module so `flowir cache find`
// needs no decoding.
//
// Open sets journal_mode=WAL, synchronous=NORMAL, busy_timeout=5000 and
// foreign_keys=ON, then applies pending schema migrations tracked in
// user_version.
//
// Listings are ordered by seq, the write sequence, then source key.
package store
