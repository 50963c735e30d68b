package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/flowir/internal/ir"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Language   string
	Output     string
	Indent     int
	Cache      string
	NoCache    bool
	NoValidate bool
	Summary    bool
}

// ParsedFile describes one successfully parsed file.
type ParsedFile struct {
	File      string `json:"file" yaml:"file"`
	Language  string `json:"language" yaml:"language"`
	Functions int    `json:"functions" yaml:"functions"`
	Module    any    `json:"module,omitempty" yaml:"module,omitempty"`
}

// FileFailure describes one file that could not be processed.
type FileFailure struct {
	File  string `json:"file" yaml:"file"`
	Error string `json:"error" yaml:"error"`
}

// CacheStats reports how parse requests were served.
type CacheStats struct {
	MemoryHits int64 `json:"memory_hits" yaml:"memory_hits"`
	StoreHits  int64 `json:"store_hits" yaml:"store_hits"`
	Parses     int64 `json:"parses" yaml:"parses"`
}

// ParseResult is the structured output of the parse command.
type ParseResult struct {
	Files    []ParsedFile  `json:"files" yaml:"files"`
	Failures []FileFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
	Stats    CacheStats    `json:"stats" yaml:"stats"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <path>...",
		Short: "Parse source files into control-flow IR",
		Long: `Parse source files and directories into control-flow IR.

Directories are walked recursively; files whose extension maps to a
language are parsed. With text output the IR document is written as
JSON: one module for a single file, an array of modules otherwise.
With --format json or yaml the modules are wrapped in a response
envelope together with per-file failures and cache statistics.

Exit codes:
  0 - All files parsed
  1 - One or more files failed to parse
  2 - Command error (missing paths, bad config, etc.)

Examples:
  flowir parse main.py
  flowir parse ./src --indent 2 -o ir.json
  flowir parse script.txt --language python
  flowir parse ./src --summary`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Language, "language", "l", "", "parse every file as this language")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the IR document to a file")
	cmd.Flags().IntVar(&opts.Indent, "indent", -1, "JSON indentation (0 for compact canonical JSON; default from config)")
	cmd.Flags().StringVar(&opts.Cache, "cache", "", "SQLite parse cache (default from config)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "do not read or write the parse cache")
	cmd.Flags().BoolVar(&opts.NoValidate, "no-validate", false, "skip graph invariant checks")
	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "print a per-function summary instead of IR")

	return cmd
}

func runParse(ctx context.Context, opts *ParseOptions, paths []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	indent := cfg.Indent
	if opts.Indent >= 0 {
		indent = opts.Indent
	}

	sess, err := openSession(cfg, engineSettings{Cache: opts.Cache, NoCache: opts.NoCache, NoValidate: opts.NoValidate})
	if err != nil {
		return err
	}
	defer sess.Close()

	files, err := sess.Engine.CollectFiles(paths)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to collect files", err)
	}
	if len(files) == 0 {
		return NewExitError(ExitCommandError, "no parseable files found")
	}
	formatter.VerboseLog("Parsing %d file(s)", len(files))

	var (
		modules []*ir.Module
		result  = ParseResult{Files: []ParsedFile{}}
	)
	for path, res := range sess.Engine.ParseFiles(ctx, files, opts.Language) {
		if res.Err != nil {
			result.Failures = append(result.Failures, FileFailure{File: path, Error: res.Err.Error()})
			continue
		}
		modules = append(modules, res.Module)
		result.Files = append(result.Files, ParsedFile{
			File:      path,
			Language:  res.Module.Language,
			Functions: len(res.Module.Functions),
		})
	}
	st := sess.Engine.Stats()
	result.Stats = CacheStats{MemoryHits: st.MemoryHits, StoreHits: st.StoreHits, Parses: st.Parses}
	formatter.VerboseLog("Cache: %d memory hit(s), %d store hit(s), %d parse(s)", st.MemoryHits, st.StoreHits, st.Parses)

	if opts.Output != "" {
		if err := writeModules(opts.Output, modules, indent); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		formatter.VerboseLog("Wrote %d module(s) to %s", len(modules), opts.Output)
	}

	switch {
	case formatter.Structured():
		if opts.Output == "" {
			for i, m := range modules {
				tree, err := plainTree(m)
				if err != nil {
					return err
				}
				result.Files[i].Module = tree
			}
		}
		if len(result.Failures) > 0 {
			if err := formatter.Failure(CodeParse, fmt.Sprintf("%d file(s) failed to parse", len(result.Failures)), result); err != nil {
				return err
			}
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	case opts.Summary:
		printSummary(formatter.Writer, result.Files, modules)
	case opts.Output == "":
		if len(modules) > 0 {
			data, err := encodeModules(modules, indent)
			if err != nil {
				return err
			}
			if _, err := formatter.Writer.Write(data); err != nil {
				return err
			}
		}
	}

	if !formatter.Structured() {
		for _, f := range result.Failures {
			fmt.Fprintf(formatter.GetErrWriter(), "%s %s\n  %s\n", failMark("✗"), f.File, f.Error)
		}
	}
	if n := len(result.Failures); n > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d file(s) failed to parse", n, len(files)))
	}
	return nil
}

// encodeModules renders the IR document: a single module, or an array
// when there are several. Indent 0 keeps canonical compact bytes.
func encodeModules(modules []*ir.Module, indent int) ([]byte, error) {
	var doc []byte
	if len(modules) == 1 {
		data, err := ir.MarshalCanonical(modules[0])
		if err != nil {
			return nil, err
		}
		doc = data
	} else {
		parts := make([]string, len(modules))
		for i, m := range modules {
			data, err := ir.MarshalCanonical(m)
			if err != nil {
				return nil, err
			}
			parts[i] = string(data)
		}
		doc = []byte("[" + strings.Join(parts, ",") + "]")
	}

	if indent > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, doc, "", strings.Repeat(" ", indent)); err != nil {
			return nil, err
		}
		doc = buf.Bytes()
	}
	return append(doc, '\n'), nil
}

func writeModules(path string, modules []*ir.Module, indent int) error {
	data, err := encodeModules(modules, indent)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// printSummary writes one line per function: its signature and graph size.
func printSummary(w io.Writer, files []ParsedFile, modules []*ir.Module) {
	for i, f := range files {
		fmt.Fprintf(w, "%s %s (%s)\n", passMark("✓"), f.File, f.Language)
		for _, fn := range modules[i].Functions {
			fmt.Fprintf(w, "  %s(%s): %d nodes, %d edges\n",
				fn.Name, strings.Join(fn.Parameters, ", "), len(fn.Nodes), len(fn.Edges))
		}
	}
}
