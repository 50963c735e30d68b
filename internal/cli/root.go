package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/flowir/internal/config"

	// Register the built-in frontends.
	_ "github.com/roach88/flowir/internal/frontend/all"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text" | "yaml"
	ConfigPath string
	NoColor    bool

	// Getenv overrides environment lookup (for testing). If nil, the
	// process environment merged with .env is used.
	Getenv func(string) string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the flowir CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "flowir",
		Short: "flowir - control-flow graphs for source code",
		Long: `Parse source files into a language-neutral control-flow IR.

Every function becomes a graph of typed nodes (start, end, statement,
condition, loop, return, raise, ...) connected by ordered edges, with a
plain-English summary per node.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.NoColor {
				color.NoColor = true
			}
			setupLogging(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text|yaml)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default "+config.FileName+" if present)")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewLanguagesCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))

	return cmd
}

// setupLogging installs the default slog handler. Diagnostics go to w so
// they never mix with command output.
func setupLogging(w io.Writer, verbose bool) {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// loadConfig reads the config file, then applies FLOWIR_* overrides from
// the environment and .env. An explicit --config path must exist; the
// default path is optional.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	path, optional := opts.ConfigPath, false
	if path == "" {
		path, optional = config.FileName, true
	}
	cfg, err := config.Load(path, optional)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	getenv := opts.Getenv
	if getenv == nil {
		getenv, err = config.Env(config.EnvFileName)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read "+config.EnvFileName, err)
		}
	}
	cfg.ApplyEnv(getenv)
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}

	slog.Debug("config loaded", "path", path, "cache", cfg.Cache, "lru_size", cfg.LRUSize)
	return cfg, nil
}

// newFormatter builds the output formatter for a command.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// Execute runs the root command with os.Args and returns the exit code.
// An interrupt cancels in-flight parsing and export.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		return GetExitCode(err)
	}
	return ExitSuccess
}
