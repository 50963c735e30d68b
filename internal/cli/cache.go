package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/flowir/internal/store"
)

// CacheOptions holds flags shared by the cache subcommands.
type CacheOptions struct {
	*RootOptions
	Path string
}

// CachedModule is one module in the parse cache.
type CachedModule struct {
	SourceKey  string `json:"source_key" yaml:"source_key"`
	Language   string `json:"language" yaml:"language"`
	File       string `json:"file" yaml:"file"`
	Functions  int    `json:"functions" yaml:"functions"`
	ModuleHash string `json:"module_hash" yaml:"module_hash"`
	RunID      string `json:"run_id" yaml:"run_id"`
}

// CachedFunction is one function graph found in the parse cache.
type CachedFunction struct {
	Name      string `json:"name" yaml:"name"`
	File      string `json:"file" yaml:"file"`
	SourceKey string `json:"source_key" yaml:"source_key"`
	Nodes     int    `json:"nodes" yaml:"nodes"`
	Edges     int    `json:"edges" yaml:"edges"`
}

// NewCacheCommand creates the cache command and its subcommands.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CacheOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the SQLite parse cache",
		Long: `Inspect or clear the SQLite parse cache.

The cache path comes from --cache, the FLOWIR_CACHE environment
variable, or the cache setting in .flowir.yaml.`,
	}
	cmd.PersistentFlags().StringVar(&opts.Path, "cache", "", "SQLite parse cache (default from config)")

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List cached modules",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(opts, cmd, runCacheList)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "find <function>",
		Short:         "Find cached function graphs by name",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(opts, cmd, func(ctx context.Context, st *store.Store, f *OutputFormatter) error {
				return runCacheFind(ctx, st, f, args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "clear",
		Short:         "Remove every cached module",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(opts, cmd, runCacheClear)
		},
	})

	return cmd
}

// withCache resolves the cache path, opens the store and runs fn.
func withCache(opts *CacheOptions, cmd *cobra.Command, fn func(context.Context, *store.Store, *OutputFormatter) error) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	path := opts.Path
	if path == "" {
		cfg, err := loadConfig(opts.RootOptions)
		if err != nil {
			return err
		}
		path = cfg.Cache
	}
	if path == "" {
		return NewExitError(ExitCommandError, "no cache configured (use --cache, FLOWIR_CACHE or the cache setting)")
	}

	st, err := store.Open(path)
	if err != nil {
		if ferr := formatter.Error(CodeCache, err.Error(), map[string]string{"path": path}); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitCommandError, "failed to open cache", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter.VerboseLog("Using cache %s", path)
	return fn(ctx, st, formatter)
}

func runCacheList(ctx context.Context, st *store.Store, f *OutputFormatter) error {
	entries, err := st.ListModules(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list cache", err)
	}

	modules := make([]CachedModule, len(entries))
	for i, e := range entries {
		modules[i] = CachedModule{
			SourceKey:  e.SourceKey,
			Language:   e.Language,
			File:       e.FilePath,
			Functions:  e.FunctionCount,
			ModuleHash: e.ModuleHash,
			RunID:      e.RunID,
		}
	}

	if f.Structured() {
		return f.Success(modules)
	}
	if len(modules) == 0 {
		fmt.Fprintln(f.Writer, "Cache is empty.")
		return nil
	}
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tLANGUAGE\tFUNCTIONS\tHASH")
	for _, m := range modules {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", m.File, m.Language, m.Functions, shortHash(m.ModuleHash))
	}
	return tw.Flush()
}

func runCacheFind(ctx context.Context, st *store.Store, f *OutputFormatter, name string) error {
	refs, err := st.FindFunctions(ctx, name)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to search cache", err)
	}

	found := make([]CachedFunction, len(refs))
	for i, r := range refs {
		found[i] = CachedFunction{
			Name:      r.Name,
			File:      r.FilePath,
			SourceKey: r.SourceKey,
			Nodes:     r.NodeCount,
			Edges:     r.EdgeCount,
		}
	}

	if f.Structured() {
		return f.Success(found)
	}
	if len(found) == 0 {
		fmt.Fprintf(f.Writer, "No cached function named %q.\n", name)
		return nil
	}
	for _, fn := range found {
		fmt.Fprintf(f.Writer, "%s %s: %d nodes, %d edges\n", fn.File, fn.Name, fn.Nodes, fn.Edges)
	}
	return nil
}

func runCacheClear(ctx context.Context, st *store.Store, f *OutputFormatter) error {
	n, err := st.Clear(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to clear cache", err)
	}
	if f.Structured() {
		return f.Success(map[string]int64{"removed": n})
	}
	f.Pass("Removed %d cached module(s)", n)
	return nil
}

// shortHash trims a hex hash for display.
func shortHash(h string) string {
	const width = 12
	if len(h) <= width {
		return h
	}
	return h[:width]
}
