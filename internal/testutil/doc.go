// Package testutil provides deterministic helpers for tests and the
// scenario harness: a fixed run id generator and graph inspection
// helpers that render function graphs in compact, comparable forms.
package testutil
