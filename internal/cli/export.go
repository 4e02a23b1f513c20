package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LDY1998/prusti-dev/internal/ir"
	"github.com/LDY1998/prusti-dev/internal/registry"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	DBPath string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <specs-dir>",
		Short: "Desugar specs and export the records to SQLite",
		Long: `Run the front end and snapshot every registered record into a SQLite
database, one row per item with its canonical JSON, structural hash, and
rendered text. Re-exporting into the same database is idempotent.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "SQLite database path (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runExport(opts *ExportOptions, specsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	pipe, err := RunPipeline(specsDir, ir.UUIDGenerator{})
	if err != nil {
		return reportPipelineError(formatter, err)
	}

	store, err := registry.Open(opts.DBPath)
	if err != nil {
		if outErr := formatter.Error(ErrCodeNotFound, fmt.Sprintf("opening database: %v", err), nil); outErr != nil {
			return outErr
		}
		return NewExitError(ExitCommandError, err.Error())
	}
	defer store.Close()

	if err := pipe.Registry.Export(cmd.Context(), store); err != nil {
		if outErr := formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("exporting records: %v", err), nil); outErr != nil {
			return outErr
		}
		return NewExitError(ExitCommandError, err.Error())
	}

	if formatter.Format == "json" {
		return formatter.Success(summarize(pipe))
	}

	fmt.Fprintf(formatter.Writer, "✓ Exported %d record(s) to %s\n", pipe.Registry.Len(), opts.DBPath)
	return nil
}
