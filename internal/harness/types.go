package harness

import "github.com/roach88/flowir/internal/ir"

// Result is the outcome of a scenario run.
type Result struct {
	// Name is the scenario name.
	Name string `json:"name"`

	// Pass is true when the parse behaved as expected and every
	// assertion held.
	Pass bool `json:"pass"`

	// Module is the parsed module; nil when the parse failed.
	Module *ir.Module `json:"module,omitempty"`

	// Errors contains one message per failed check.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Name:   name,
		Pass:   true,
		Errors: []string{},
	}
}

// AddError records a failed check and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
