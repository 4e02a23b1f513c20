package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LDY1998/prusti-dev/internal/ir"
	"github.com/LDY1998/prusti-dev/internal/registry"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	DBPath    string
	Normalize bool
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show [item-ref]",
		Short: "Show exported specification records",
		Long: `Print records from an exported SQLite database. With no argument every
record is shown in sorted ref order; with an item reference (for example
"function.max") only that record is shown.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			return runShow(opts, ref, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "SQLite database path (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().BoolVar(&opts.Normalize, "normalize", false, "replace SpecIDs with stable spec-N placeholders")

	return cmd
}

func runShow(opts *ShowOptions, refArg string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	store, err := registry.Open(opts.DBPath)
	if err != nil {
		if outErr := formatter.Error(ErrCodeNotFound, fmt.Sprintf("opening database: %v", err), nil); outErr != nil {
			return outErr
		}
		return NewExitError(ExitCommandError, err.Error())
	}
	defer store.Close()

	var records []registry.StoredRecord
	if refArg == "" {
		records, err = store.ReadRecords(cmd.Context())
		if err != nil {
			return reportShowError(formatter, err)
		}
	} else {
		rec, ok, err := store.ReadRecord(cmd.Context(), ir.ItemRef(refArg))
		if err != nil {
			return reportShowError(formatter, err)
		}
		if !ok {
			if outErr := formatter.Error(ErrCodeNotFound, fmt.Sprintf("no record for %s", refArg), nil); outErr != nil {
				return outErr
			}
			return NewExitError(ExitFailure, "record not found")
		}
		records = []registry.StoredRecord{rec}
	}

	if formatter.Format == "json" {
		return formatter.Success(records)
	}

	for i, rec := range records {
		if i > 0 {
			fmt.Fprintln(formatter.Writer)
		}
		rendered := rec.Rendered
		if opts.Normalize {
			rendered = ir.NormalizeSpecIDs(rendered)
		}
		fmt.Fprint(formatter.Writer, rendered)
		formatter.VerboseLog("hash: %s", rec.SpecHash)
	}
	return nil
}

func reportShowError(formatter *OutputFormatter, err error) error {
	if outErr := formatter.Error(ErrCodeGeneric, err.Error(), nil); outErr != nil {
		return outErr
	}
	return NewExitError(ExitCommandError, err.Error())
}
