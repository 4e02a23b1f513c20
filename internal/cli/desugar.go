package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LDY1998/prusti-dev/internal/ir"
	"github.com/LDY1998/prusti-dev/internal/registry"
)

// DesugarOptions holds flags for the desugar command.
type DesugarOptions struct {
	*RootOptions
	Output    string // canonical JSON output file path
	Normalize bool   // replace SpecIDs with stable placeholders
}

// RecordSummary is the per-item payload reported by pipeline commands.
type RecordSummary struct {
	Ref      ir.ItemRef  `json:"ref"`
	Kind     ir.ItemKind `json:"kind"`
	SpecHash string      `json:"spec_hash"`
	Pres     int         `json:"pres"`
	Posts    int         `json:"posts"`
	Pledges  int         `json:"pledges"`
	Pure     bool        `json:"pure"`
	Trusted  bool        `json:"trusted"`
}

// NewDesugarCommand creates the desugar command.
func NewDesugarCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DesugarOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "desugar <specs-dir>",
		Short: "Desugar contract specs to assertion IR",
		Long: `Desugar CUE contract specs into ProcedureSpecification records.

Each annotated item's contracts are parsed, type-checked by the CUE
evaluator, numbered, and registered. The rendered records are printed in
sorted item order.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDesugar(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write canonical JSON records to file")
	cmd.Flags().BoolVar(&opts.Normalize, "normalize", false, "replace SpecIDs with stable spec-N placeholders")

	return cmd
}

func runDesugar(opts *DesugarOptions, specsDir string, cmd *cobra.Command) error {
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

	formatter.VerboseLog("Found %d CUE file(s) in %s", pipe.FileCount, specsDir)
	for _, res := range pipe.Results {
		formatter.VerboseLog("Desugared %s (%d unit(s))", res.Ref, len(res.Units))
	}

	if opts.Output != "" {
		if err := writeCanonicalRecords(pipe.Registry, opts.Output); err != nil {
			if outErr := formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil); outErr != nil {
				return outErr
			}
			return NewExitError(ExitCommandError, err.Error())
		}
	}

	summaries := summarize(pipe)
	if formatter.Format == "json" {
		return formatter.Success(summaries)
	}

	fmt.Fprintf(formatter.Writer, "✓ Desugared %d item(s) from %d file(s)\n\n", len(pipe.Results), pipe.FileCount)
	rendered := pipe.Registry.Render()
	if opts.Normalize {
		rendered = ir.NormalizeSpecIDs(rendered)
	}
	fmt.Fprint(formatter.Writer, rendered)
	return nil
}

// summarize builds the per-item summaries in pipeline order.
func summarize(pipe *PipelineResult) []RecordSummary {
	summaries := make([]RecordSummary, 0, len(pipe.Results))
	for _, res := range pipe.Results {
		summaries = append(summaries, RecordSummary{
			Ref:      res.Ref,
			Kind:     res.Item.Kind,
			SpecHash: ir.MustSpecificationHash(res.Ref, res.Spec),
			Pres:     len(res.Spec.Pres),
			Posts:    len(res.Spec.Posts),
			Pledges:  len(res.Spec.Pledges),
			Pure:     res.Spec.Pure,
			Trusted:  res.Spec.Trusted,
		})
	}
	return summaries
}

// writeCanonicalRecords writes one canonical JSON record per line, in sorted
// ref order.
func writeCanonicalRecords(reg *registry.Registry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, ref := range reg.Refs() {
		spec, _ := reg.Lookup(ref)
		obj, err := ir.CanonicalSpecification(ref, spec)
		if err != nil {
			return err
		}
		data, err := ir.MarshalCanonical(obj)
		if err != nil {
			return err
		}
		if _, err := f.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	return f.Sync()
}

// reportPipelineError writes the diagnostic in the configured format and
// returns the matching exit error.
func reportPipelineError(formatter *OutputFormatter, err error) error {
	if outErr := formatter.Error(errorCode(err), err.Error(), nil); outErr != nil {
		return outErr
	}
	return NewExitError(errorExitCode(err), err.Error())
}
