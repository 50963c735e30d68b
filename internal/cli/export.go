package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/flowir/internal/export"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Language  string
	URI       string
	User      string
	Database  string
	BatchSize int
	Clean     bool
	Indexes   bool

	// Connect opens the exporter (for testing). If nil, export.Connect
	// is used.
	Connect func(ctx context.Context, cfg export.Config, opts ...export.Option) (*export.Exporter, error)
}

// ExportedFile reports what was written for one file.
type ExportedFile struct {
	File      string `json:"file" yaml:"file"`
	Key       string `json:"key" yaml:"key"`
	Functions int    `json:"functions" yaml:"functions"`
	Nodes     int    `json:"nodes" yaml:"nodes"`
	Edges     int    `json:"edges" yaml:"edges"`
}

// ExportResult is the structured output of the export command.
type ExportResult struct {
	Files    []ExportedFile `json:"files" yaml:"files"`
	Failures []FileFailure  `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	return newExportCommand(&ExportOptions{RootOptions: rootOpts})
}

func newExportCommand(opts *ExportOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <path>...",
		Short: "Export control-flow graphs to Neo4j",
		Long: `Parse source files and write their graphs to a Neo4j database.

Modules become (:FlowModule) nodes, functions (:FlowFunction) nodes
linked by DEFINES, IR nodes (:FlowNode) linked by HAS_NODE, and IR
edges FLOWS_TO relationships carrying the edge label and order.
Exporting a file again replaces its previous graph.

The connection comes from the neo4j section of .flowir.yaml, the
FLOWIR_NEO4J_* environment variables, or the flags below. The password
is only read from config or environment.

Examples:
  flowir export ./src
  flowir export ./src --uri bolt://graph:7687 --clean --indexes`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runExport(ctx, opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Language, "language", "l", "", "parse every file as this language")
	cmd.Flags().StringVar(&opts.URI, "uri", "", "Neo4j URI (default from config)")
	cmd.Flags().StringVar(&opts.User, "user", "", "Neo4j user (default from config)")
	cmd.Flags().StringVar(&opts.Database, "database", "", "Neo4j database (default from config)")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", export.DefaultBatchSize, "rows per UNWIND statement")
	cmd.Flags().BoolVar(&opts.Clean, "clean", false, "delete every exported graph before writing")
	cmd.Flags().BoolVar(&opts.Indexes, "indexes", false, "create lookup indexes before writing")

	return cmd
}

func runExport(ctx context.Context, opts *ExportOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	target := export.Config{
		URI:      cfg.Neo4j.URI,
		User:     cfg.Neo4j.User,
		Password: cfg.Neo4j.Password,
		Database: cfg.Neo4j.Database,
	}
	if opts.URI != "" {
		target.URI = opts.URI
	}
	if opts.User != "" {
		target.User = opts.User
	}
	if opts.Database != "" {
		target.Database = opts.Database
	}

	sess, err := openSession(cfg, engineSettings{})
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

	connect := opts.Connect
	if connect == nil {
		connect = export.Connect
	}
	slog.Info("connecting to neo4j", "uri", target.URI, "database", target.Database)
	exp, err := connect(ctx, target, export.WithBatchSize(opts.BatchSize))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to connect to neo4j", err)
	}
	defer func() {
		if err := exp.Close(ctx); err != nil {
			slog.Warn("failed to close neo4j driver", "error", err)
		}
	}()

	if opts.Clean {
		formatter.VerboseLog("Removing previously exported graphs")
		if err := exp.Clean(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to clean graph", err)
		}
	}
	if opts.Indexes {
		formatter.VerboseLog("Creating indexes")
		if err := exp.CreateIndexes(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to create indexes", err)
		}
	}

	result := ExportResult{Files: []ExportedFile{}}
	for path, res := range sess.Engine.ParseFiles(ctx, files, opts.Language) {
		if res.Err != nil {
			result.Failures = append(result.Failures, FileFailure{File: path, Error: res.Err.Error()})
			formatter.Fail(path, res.Err.Error())
			continue
		}
		key := exportKey(res.Module.Language, path)
		counts, err := exp.ExportModule(ctx, key, res.Module)
		if err != nil {
			result.Failures = append(result.Failures, FileFailure{File: path, Error: err.Error()})
			formatter.Fail(path, err.Error())
			continue
		}
		result.Files = append(result.Files, ExportedFile{
			File:      path,
			Key:       key,
			Functions: counts.Functions,
			Nodes:     counts.Nodes,
			Edges:     counts.Edges,
		})
		formatter.Pass("%s (%d functions, %d nodes, %d edges)", path, counts.Functions, counts.Nodes, counts.Edges)
	}

	if formatter.Structured() {
		if len(result.Failures) > 0 {
			if err := formatter.Failure(CodeExport, fmt.Sprintf("%d file(s) not exported", len(result.Failures)), result); err != nil {
				return err
			}
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	}

	if n := len(result.Failures); n > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d file(s) not exported", n, len(files)))
	}
	return nil
}

// exportKey identifies a file's graph in the database. It does not depend
// on content, so exporting an edited file replaces the old graph.
func exportKey(language, path string) string {
	return language + ":" + path
}
