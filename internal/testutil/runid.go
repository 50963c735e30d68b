package testutil

// DefaultRunID is used when no run id is given.
const DefaultRunID = "test-run-default"

// FixedRunIDGenerator returns the same run id on every call, so cache
// entries written by repeated runs are byte-identical.
//
// engine.FixedGenerator hands out a sequence and panics when it runs
// out; this one never runs out.
//
// Thread-safety: FixedRunIDGenerator is immutable and safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a generator for id. An empty id means
// DefaultRunID.
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = DefaultRunID
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run id.
//
// Implements engine.RunIDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
