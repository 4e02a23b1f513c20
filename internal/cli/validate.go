package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LDY1998/prusti-dev/internal/ir"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidationSummary is the JSON payload of a successful validation.
type ValidationSummary struct {
	Items      int `json:"items"`
	Functions  int `json:"functions"`
	Predicates int `json:"predicates"`
	Units      int `json:"units"`
	Files      int `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate contract specs without producing output",
		Long: `Run the full front end over a specs directory and report whether every
contract desugars cleanly: surface syntax, host type checking, and
registration all succeed. No records are written anywhere.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, specsDir string, cmd *cobra.Command) error {
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

	summary := ValidationSummary{Files: pipe.FileCount}
	for _, res := range pipe.Results {
		summary.Items++
		if res.Item.Kind == ir.ItemPredicate {
			summary.Predicates++
		} else {
			summary.Functions++
		}
		summary.Units += len(res.Units)
		formatter.VerboseLog("Validated %s", res.Ref)
	}

	if formatter.Format == "json" {
		return formatter.Success(summary)
	}

	fmt.Fprintf(formatter.Writer, "✓ Validated %d item(s): %d function(s), %d predicate(s), %d isolated unit(s)\n",
		summary.Items, summary.Functions, summary.Predicates, summary.Units)
	return nil
}
