package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario is one conformance case: a source text, the language to parse
// it as, and assertions over the resulting module.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Language is the registry key of the frontend to use.
	Language string `yaml:"language"`

	// Source is the inline source text. Exactly one of Source and File is set.
	Source string `yaml:"source,omitempty"`

	// File is a source file path, relative to the scenario file.
	File string `yaml:"file,omitempty"`

	// FilePath is stamped into node locations. It defaults to File as
	// written, so goldens do not depend on where the repository lives.
	FilePath string `yaml:"file_path,omitempty"`

	// ExpectError names the error class the parse must fail with:
	// parse, lookup, config or validation.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions check the parsed module. Required unless ExpectError is set.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// resolvedFile is File joined with the scenario's directory.
	resolvedFile string
}

// Assertion checks one property of the parsed module.
type Assertion struct {
	// Type selects the check; see the Assert* constants.
	Type string `yaml:"type"`

	// Function names the function the check applies to.
	Function string `yaml:"function,omitempty"`

	// Functions is the expected function order (function_names).
	Functions []string `yaml:"functions,omitempty"`

	// Parameters is the expected parameter list (parameters).
	Parameters []string `yaml:"parameters,omitempty"`

	// Count is the expected number (node_count, edge_count, kind_count).
	Count int `yaml:"count,omitempty"`

	// Kind is a node kind (kind_count, has_node).
	Kind string `yaml:"kind,omitempty"`

	// Label is a node label (has_node, no_node, summary) or an edge
	// label (has_edge).
	Label string `yaml:"label,omitempty"`

	// From and To are node labels (has_edge).
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`

	// Text is the expected summary (summary).
	Text string `yaml:"text,omitempty"`

	// Key and Value address a metadata entry (metadata). Without
	// Function the module metadata is checked.
	Key   string `yaml:"key,omitempty"`
	Value any    `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertFunctionNames = "function_names"
	AssertParameters    = "parameters"
	AssertNodeCount     = "node_count"
	AssertEdgeCount     = "edge_count"
	AssertKindCount     = "kind_count"
	AssertHasNode       = "has_node"
	AssertNoNode        = "no_node"
	AssertHasEdge       = "has_edge"
	AssertSummary       = "summary"
	AssertMetadata      = "metadata"
)

// Expected error classes.
const (
	ErrorParse      = "parse"
	ErrorLookup     = "lookup"
	ErrorConfig     = "config"
	ErrorValidation = "validation"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.File != "" {
		scenario.resolvedFile = scenario.File
		if !filepath.IsAbs(scenario.File) {
			scenario.resolvedFile = filepath.Join(filepath.Dir(path), scenario.File)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by file
// name. Scenario names must be unique.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	names := make(map[string]string)
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		if prev, dup := names[s.Name]; dup {
			return nil, fmt.Errorf("duplicate scenario name %q in %s and %s", s.Name, prev, p)
		}
		names[s.Name] = p
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Language == "" {
		return fmt.Errorf("language is required")
	}

	switch {
	case s.Source != "" && s.File != "":
		return fmt.Errorf("source and file are mutually exclusive")
	case s.File != "":
		if _, err := os.Stat(s.resolvedFile); os.IsNotExist(err) {
			return fmt.Errorf("source file not found: %s", s.resolvedFile)
		}
	}

	switch s.ExpectError {
	case "":
		if len(s.Assertions) == 0 {
			return fmt.Errorf("assertions list is required and must be non-empty")
		}
	case ErrorParse, ErrorLookup, ErrorConfig, ErrorValidation:
	default:
		return fmt.Errorf("unknown expect_error %q", s.ExpectError)
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needsFunction := true
	switch a.Type {
	case AssertFunctionNames:
		needsFunction = false
	case AssertParameters:
	case AssertNodeCount, AssertEdgeCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertKindCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for kind_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for kind_count", index)
		}
	case AssertHasNode, AssertNoNode:
		if a.Label == "" {
			return fmt.Errorf("assertions[%d]: label is required for %s", index, a.Type)
		}
	case AssertHasEdge:
		if a.From == "" || a.To == "" {
			return fmt.Errorf("assertions[%d]: from and to are required for has_edge", index)
		}
	case AssertSummary:
		if a.Label == "" || a.Text == "" {
			return fmt.Errorf("assertions[%d]: label and text are required for summary", index)
		}
	case AssertMetadata:
		needsFunction = false
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for metadata", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if needsFunction && a.Function == "" {
		return fmt.Errorf("assertions[%d]: function is required for %s", index, a.Type)
	}
	return nil
}
