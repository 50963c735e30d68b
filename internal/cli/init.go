package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/flowir/internal/config"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Force bool
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Long: `Write a configuration file with the default settings.

The file is written to ` + config.FileName + ` unless a path is given.
An existing file is left alone unless --force is set.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName
			if len(args) == 1 {
				path = args[0]
			}
			return runInit(opts, path, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing file")

	return cmd
}

func runInit(opts *InitOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if err := config.Default().Write(path, opts.Force); err != nil {
		if ferr := formatter.Error(CodeConfig, err.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitCommandError, "failed to write config", err)
	}

	if formatter.Structured() {
		return formatter.Success(map[string]string{"path": path})
	}
	formatter.Pass("Wrote %s", path)
	fmt.Fprintln(formatter.Writer, dimText("Edit cache to enable the SQLite parse cache, and neo4j for export."))
	return nil
}
