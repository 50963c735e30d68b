// Package summarize turns short source fragments into one-sentence
// natural-language glosses for the IR summary field.
//
// Every function here is total: unrecognized input falls back to a
// humanized rendering of the fragment or a generic phrase, never an error.
// Summaries are advisory; the node label stays authoritative.
package summarize
