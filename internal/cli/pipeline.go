package cli

import (
	"errors"

	"github.com/LDY1998/prusti-dev/internal/desugar"
	"github.com/LDY1998/prusti-dev/internal/ir"
	"github.com/LDY1998/prusti-dev/internal/registry"
	"github.com/LDY1998/prusti-dev/internal/rewrite"
)

// PipelineResult is the outcome of one full front-end run over a specs
// directory.
type PipelineResult struct {
	Registry  *registry.Registry
	Results   []*desugar.Result
	Rewritten []*rewrite.RewrittenItem
	Table     *rewrite.SpecTable
	FileCount int
}

// RunPipeline runs the whole front end over a specs directory: load and
// unify the CUE files, parse the annotated items, desugar each contract,
// register the records, and attach them back onto the items.
//
// Items are processed sequentially in source order so that a deterministic
// SpecID generator reproduces identical ids run over run. The first failing
// item aborts the run; its registry entry is rolled back to unannotated.
func RunPipeline(dir string, gen ir.SpecIDGenerator) (*PipelineResult, error) {
	loadRes, err := LoadSpecs(dir)
	if err != nil {
		return nil, err
	}
	if len(loadRes.Items) == 0 {
		return nil, &LoadError{Code: ErrCodeNoItems, Message: "no function or predicate declarations found in specs"}
	}

	var sigs []desugar.PredicateSig
	for _, item := range loadRes.Items {
		if item.Kind == ir.ItemPredicate {
			sigs = append(sigs, item.Signature())
		}
	}

	d := desugar.New(gen, desugar.NewCUEChecker(sigs...))
	reg := registry.New()
	table := rewrite.NewSpecTable()
	attacher := rewrite.NewAttacher(table)

	pipe := &PipelineResult{
		Registry:  reg,
		Table:     table,
		FileCount: loadRes.FileCount,
	}

	for _, item := range loadRes.Items {
		ref := item.Ref()
		if err := reg.Begin(ref); err != nil {
			return nil, err
		}
		res, err := d.DesugarItem(item)
		if err != nil {
			reg.Fail(ref)
			return nil, err
		}
		if err := reg.Register(res.Ref, res.Spec); err != nil {
			return nil, err
		}
		pipe.Results = append(pipe.Results, res)
		pipe.Rewritten = append(pipe.Rewritten, attacher.Attach(res))
	}

	return pipe, nil
}

// errorCode extracts the diagnostic code carried by a pipeline error.
func errorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	var se *desugar.SyntaxError
	if errors.As(err, &se) {
		return se.Code
	}
	var te *desugar.TypeError
	if errors.As(err, &te) {
		return te.Code
	}
	return ErrCodeGeneric
}

// errorExitCode maps a pipeline error to a process exit code: contract
// diagnostics are failures, everything before desugaring is a command error.
func errorExitCode(err error) int {
	if desugar.IsSyntaxError(err) || desugar.IsTypeError(err) || registry.IsDuplicateRegistration(err) {
		return ExitFailure
	}
	return ExitCommandError
}
