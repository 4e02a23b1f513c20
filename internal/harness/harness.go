package harness

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/LDY1998/prusti-dev/internal/desugar"
	"github.com/LDY1998/prusti-dev/internal/ir"
	"github.com/LDY1998/prusti-dev/internal/registry"
)

// RunResult is the outcome of one scenario run. When the front end rejects
// the input, RunErr holds the diagnostic and Registry holds whatever was
// registered before the failing item.
type RunResult struct {
	Registry *registry.Registry
	Results  []*desugar.Result
	RunErr   error
}

// Run desugars the scenario's spec files into a fresh registry. Items are
// processed sequentially in source order. Front-end diagnostics (syntax and
// type errors) are captured in RunErr; infrastructure failures (unreadable
// files) are returned directly.
func Run(sc *Scenario) (*RunResult, error) {
	value, err := compileSpecs(sc.SpecPaths())
	if err != nil {
		return nil, err
	}

	res := &RunResult{Registry: registry.New()}

	items, err := desugar.ParseItems(value)
	if err != nil {
		res.RunErr = err
		return res, nil
	}

	var sigs []desugar.PredicateSig
	for _, item := range items {
		if item.Kind == ir.ItemPredicate {
			sigs = append(sigs, item.Signature())
		}
	}
	d := desugar.New(ir.UUIDGenerator{}, desugar.NewCUEChecker(sigs...))

	for _, item := range items {
		ref := item.Ref()
		if err := res.Registry.Begin(ref); err != nil {
			res.RunErr = err
			return res, nil
		}
		r, err := d.DesugarItem(item)
		if err != nil {
			res.Registry.Fail(ref)
			res.RunErr = err
			return res, nil
		}
		if err := res.Registry.Register(r.Ref, r.Spec); err != nil {
			res.RunErr = err
			return res, nil
		}
		res.Results = append(res.Results, r)
	}
	return res, nil
}

// Verify checks the run outcome against the scenario's expectations.
func (r *RunResult) Verify(sc *Scenario) error {
	if sc.Expect.Error != "" {
		if r.RunErr == nil {
			return fmt.Errorf("scenario %s: expected diagnostic %s, run succeeded", sc.Name, sc.Expect.Error)
		}
		if code := DiagnosticCode(r.RunErr); code != sc.Expect.Error {
			return fmt.Errorf("scenario %s: expected diagnostic %s, got %s (%v)", sc.Name, sc.Expect.Error, code, r.RunErr)
		}
		return nil
	}

	if r.RunErr != nil {
		return fmt.Errorf("scenario %s: unexpected failure: %w", sc.Name, r.RunErr)
	}
	if got := r.Registry.Len(); got != sc.Expect.Items {
		return fmt.Errorf("scenario %s: expected %d registered item(s), got %d", sc.Name, sc.Expect.Items, got)
	}

	for _, check := range sc.Checks {
		spec, ok := r.Registry.Lookup(ir.ItemRef(check.Ref))
		if !ok {
			return fmt.Errorf("scenario %s: no record for %s", sc.Name, check.Ref)
		}
		if len(spec.Pres) != check.Pres {
			return fmt.Errorf("scenario %s: %s: expected %d pre(s), got %d", sc.Name, check.Ref, check.Pres, len(spec.Pres))
		}
		if len(spec.Posts) != check.Posts {
			return fmt.Errorf("scenario %s: %s: expected %d post(s), got %d", sc.Name, check.Ref, check.Posts, len(spec.Posts))
		}
		if len(spec.Pledges) != check.Pledges {
			return fmt.Errorf("scenario %s: %s: expected %d pledge(s), got %d", sc.Name, check.Ref, check.Pledges, len(spec.Pledges))
		}
		if (spec.PredicateBody != nil) != check.HasBody {
			return fmt.Errorf("scenario %s: %s: predicate body presence mismatch", sc.Name, check.Ref)
		}
		if spec.Pure != check.Pure || spec.Trusted != check.Trusted {
			return fmt.Errorf("scenario %s: %s: pure/trusted mismatch", sc.Name, check.Ref)
		}
	}
	return nil
}

// DiagnosticCode extracts the code of a front-end diagnostic.
func DiagnosticCode(err error) string {
	var se *desugar.SyntaxError
	if errors.As(err, &se) {
		return se.Code
	}
	var te *desugar.TypeError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// compileSpecs compiles and unifies the given CUE files into one value.
func compileSpecs(paths []string) (cue.Value, error) {
	ctx := cuecontext.New()
	var value cue.Value
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return cue.Value{}, fmt.Errorf("read spec: %w", err)
		}
		v := ctx.CompileBytes(data, cue.Filename(path))
		if err := v.Err(); err != nil {
			return cue.Value{}, fmt.Errorf("compile spec %s: %w", path, err)
		}
		if i == 0 {
			value = v
		} else {
			value = value.Unify(v)
		}
	}
	if err := value.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("unify specs: %w", err)
	}
	return value, nil
}
