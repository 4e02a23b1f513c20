package desugar

import (
	"context"

	"cuelang.org/go/cue"
	"golang.org/x/sync/errgroup"

	"github.com/LDY1998/prusti-dev/internal/ir"
)

// resultVar is the implicit name postconditions use for the return value.
const resultVar = "result"

// Result is the desugared outcome for one item: the record destined for the
// registry plus every isolated unit produced along the way, in allocation
// order.
type Result struct {
	Ref   ir.ItemRef
	Item  Item
	Spec  *ir.ProcedureSpecification
	Units []*IsolatedUnit
}

// Desugarer turns parsed items into ProcedureSpecification records. The
// SpecID generator is the only state shared between items; everything else
// (ExprID allocator, isolator, builder) is created fresh per contract
// occurrence.
type Desugarer struct {
	gen     ir.SpecIDGenerator
	checker TypeChecker
}

// New creates a desugarer.
func New(gen ir.SpecIDGenerator, checker TypeChecker) *Desugarer {
	return &Desugarer{gen: gen, checker: checker}
}

// DesugarItem builds the ProcedureSpecification for one item. Each contract
// occurrence (the requires list, the ensures list, the pledge list, the
// predicate body) gets its own SpecID and its own ExprID scope.
func (d *Desugarer) DesugarItem(item Item) (*Result, error) {
	iso := NewIsolator(d.checker)
	spec := &ir.ProcedureSpecification{
		Pure:    item.Pure,
		Trusted: item.Trusted,
	}

	if len(item.Requires) > 0 {
		pres, err := d.desugarList(iso, item.Requires, item.Params)
		if err != nil {
			return nil, err
		}
		spec.Pres = pres
	}

	if len(item.Ensures) > 0 {
		posts, err := d.desugarList(iso, item.Ensures, postScope(item))
		if err != nil {
			return nil, err
		}
		spec.Posts = posts
	}

	if len(item.Pledges) > 0 {
		pledges, err := d.desugarPledges(iso, item.Pledges, postScope(item))
		if err != nil {
			return nil, err
		}
		spec.Pledges = pledges
	}

	if item.Kind == ir.ItemPredicate {
		specID := d.gen.NextSpecID()
		builder := NewBuilder(specID, ir.NewExprIDAllocator(), iso)
		body, err := builder.Build(item.Body, item.Params)
		if err != nil {
			return nil, err
		}
		spec.PredicateBody = body
		spec.Pure = true
		spec.Trusted = true
	}

	return &Result{
		Ref:   item.Ref(),
		Item:  item,
		Spec:  spec,
		Units: iso.Units(),
	}, nil
}

// desugarList builds one contract occurrence: a fresh SpecID and ExprID
// scope shared by every assertion in the list, numbered left to right.
func (d *Desugarer) desugarList(iso *Isolator, list []cue.Value, scope []ir.BoundVar) ([]ir.Assertion, error) {
	specID := d.gen.NextSpecID()
	builder := NewBuilder(specID, ir.NewExprIDAllocator(), iso)

	assertions := make([]ir.Assertion, 0, len(list))
	for _, v := range list {
		a, err := builder.Build(v, scope)
		if err != nil {
			return nil, err
		}
		assertions = append(assertions, a)
	}
	return assertions, nil
}

// desugarPledges builds the pledge list as one contract occurrence. For each
// pledge the optional lhs reference expression is isolated first, then the
// guaranteed assertion, matching source order.
func (d *Desugarer) desugarPledges(iso *Isolator, decls []PledgeDecl, scope []ir.BoundVar) ([]ir.Pledge, error) {
	specID := d.gen.NextSpecID()
	alloc := ir.NewExprIDAllocator()
	builder := NewBuilder(specID, alloc, iso)

	pledges := make([]ir.Pledge, 0, len(decls))
	for _, decl := range decls {
		var pledge ir.Pledge
		if decl.Lhs != "" {
			id := alloc.Next()
			unit, err := iso.IsolateReference(decl.Lhs, scope, specID, id)
			if err != nil {
				return nil, err
			}
			expr := unit.Expression()
			pledge.Lhs = &expr
		}
		rhs, err := builder.Build(decl.Rhs, scope)
		if err != nil {
			return nil, err
		}
		pledge.Rhs = rhs
		pledges = append(pledges, pledge)
	}
	return pledges, nil
}

func postScope(item Item) []ir.BoundVar {
	if item.Returns == "" {
		return item.Params
	}
	scope := make([]ir.BoundVar, 0, len(item.Params)+1)
	scope = append(scope, item.Params...)
	scope = append(scope, ir.BoundVar{Name: resultVar, Type: item.Returns})
	return scope
}

// Run desugars items in parallel, one worker per item, preserving input
// order in the returned slice. The SpecID generator must be safe for
// concurrent use; all other state is per-item. Cancellation via ctx aborts
// in-flight items; partial results are discarded by the caller.
func (d *Desugarer) Run(ctx context.Context, items []Item) ([]*Result, error) {
	results := make([]*Result, len(items))

	g, ctx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := d.DesugarItem(item)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
