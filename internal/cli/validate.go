package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/flowir/internal/ir"
	"github.com/roach88/flowir/internal/schema"
)

// DocumentResult holds the validation result for one IR document.
type DocumentResult struct {
	File      string   `json:"file" yaml:"file"`
	Valid     bool     `json:"valid" yaml:"valid"`
	Language  string   `json:"language,omitempty" yaml:"language,omitempty"`
	Functions int      `json:"functions,omitempty" yaml:"functions,omitempty"`
	Errors    []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool             `json:"valid" yaml:"valid"`
	Documents []DocumentResult `json:"documents" yaml:"documents"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <ir.json>...",
		Short: "Validate IR documents",
		Long: `Validate IR documents produced by parse (or by another tool).

Each document is checked against the IR wire shape (a CUE schema) and
then against the graph invariants: one start and one end node, unique
node ids, edges between existing nodes, no edges into start or out of
end, and every raise node flowing to the end node.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	validator, err := schema.Default()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load IR schema", err)
	}

	result := ValidationResult{Valid: true, Documents: make([]DocumentResult, 0, len(files))}
	invalid := 0
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)
		doc := validateDocument(validator, file)
		if !doc.Valid {
			result.Valid = false
			invalid++
		}
		result.Documents = append(result.Documents, doc)
	}

	if formatter.Structured() {
		if !result.Valid {
			if err := formatter.Error(CodeSchema, fmt.Sprintf("%d of %d document(s) invalid", invalid, len(files)), result); err != nil {
				return err
			}
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		for _, doc := range result.Documents {
			if doc.Valid {
				formatter.Pass("%s (%s, %d function(s))", doc.File, doc.Language, doc.Functions)
			} else {
				formatter.Fail(doc.File, doc.Errors...)
			}
		}
	}

	if invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d document(s) invalid", invalid, len(files)))
	}
	return nil
}

func validateDocument(validator *schema.Validator, file string) DocumentResult {
	doc := DocumentResult{File: file}
	data, err := os.ReadFile(file)
	if err != nil {
		doc.Errors = []string{err.Error()}
		return doc
	}

	m, err := validator.Check(file, data)
	if err != nil {
		doc.Errors = documentErrors(err)
		return doc
	}
	doc.Valid = true
	doc.Language = m.Language
	doc.Functions = len(m.Functions)
	return doc
}

// documentErrors flattens schema issues and invariant violations into
// one message each.
func documentErrors(err error) []string {
	var schemaErr *schema.Error
	if errors.As(err, &schemaErr) {
		msgs := make([]string, len(schemaErr.Issues))
		for i, issue := range schemaErr.Issues {
			msgs[i] = issue.String()
		}
		return msgs
	}
	var verr *ir.ValidationError
	if errors.As(err, &verr) {
		msgs := make([]string, len(verr.Violations))
		for i, v := range verr.Violations {
			msgs[i] = v.String()
		}
		return msgs
	}
	return []string{err.Error()}
}
