// Package csimple is a heuristic C frontend.
//
// It has no grammar. A cleaned view of the source (comments, string and
// character literal bodies, and preprocessor directives blanked to spaces,
// offsets preserved) drives a scanner that finds function definitions and
// a small recursive-descent parser that recognizes if/else, for, while,
// do-while, return, switch, bare blocks and ';'-terminated statements.
//
// Parsing is best-effort and isolated per function: a function whose body
// does not fit the statement grammar is skipped, logged at debug level and
// listed in the module's "skipped_functions" metadata, and scanning
// continues with the next candidate.
package csimple
