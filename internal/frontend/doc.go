// Package frontend defines the contract every language frontend
// implements and the process-wide registry that maps language keys to
// frontend factories.
//
// Frontends register themselves from an init function, the way
// database/sql drivers do; import internal/frontend/all to load them all.
// The registry is write-once: registering a key twice is a configuration
// error, so a language's behavior can never be silently replaced.
package frontend
