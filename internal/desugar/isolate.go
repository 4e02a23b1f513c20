package desugar

import (
	"github.com/LDY1998/prusti-dev/internal/ir"
)

// IsolatedUnit is one boolean sub-expression extracted into a standalone,
// independently type-checkable unit. Its free-variable signature is exactly
// Scope; invoking it with a concrete argument assignment is extensionally
// identical to evaluating the original expression in its original lexical
// scope. Isolation relocates syntax, never semantics.
type IsolatedUnit struct {
	SpecID ir.SpecID
	ExprID ir.ExprID
	Source string
	Scope  []ir.BoundVar

	checker TypeChecker
}

// Invoke evaluates the unit under args. Every variable in Scope must be
// assigned. Expressions applying predicates are not evaluable and fail.
func (u *IsolatedUnit) Invoke(args map[string]any) (bool, error) {
	return u.checker.Eval(u.Source, u.Scope, args)
}

// Expression returns the IR leaf referencing this unit.
func (u *IsolatedUnit) Expression() ir.Expression {
	return ir.Expression{
		SpecID: u.SpecID,
		ID:     u.ExprID,
		Source: u.Source,
		Scope:  u.Scope,
	}
}

type unitKey struct {
	spec ir.SpecID
	expr ir.ExprID
}

// Isolator extracts sub-expressions into isolated units and keeps the unit
// table keyed by (SpecID, ExprID) for later retrieval by the verifier
// adapter. One isolator per item; not safe for concurrent use (id assignment
// within a scope is single-threaded by construction).
type Isolator struct {
	checker TypeChecker
	units   []*IsolatedUnit
	index   map[unitKey]*IsolatedUnit
}

// NewIsolator creates an isolator backed by the given host checker.
func NewIsolator(checker TypeChecker) *Isolator {
	return &Isolator{
		checker: checker,
		index:   make(map[unitKey]*IsolatedUnit),
	}
}

// Isolate extracts src as a standalone unit with the given free-variable
// signature, submitting it to the host checker for boolean-ness validation.
// A failed check surfaces the checker's own diagnostic; nothing is recorded
// for the failed expression.
func (iso *Isolator) Isolate(src string, scope []ir.BoundVar, specID ir.SpecID, exprID ir.ExprID) (*IsolatedUnit, error) {
	if err := iso.checker.Check(src, scope); err != nil {
		return nil, err
	}

	unit := &IsolatedUnit{
		SpecID:  specID,
		ExprID:  exprID,
		Source:  src,
		Scope:   scope,
		checker: iso.checker,
	}
	iso.units = append(iso.units, unit)
	iso.index[unitKey{spec: specID, expr: exprID}] = unit
	return unit, nil
}

// IsolateReference extracts a reference expression (a pledge lhs) without
// constraining its type to boolean.
func (iso *Isolator) IsolateReference(src string, scope []ir.BoundVar, specID ir.SpecID, exprID ir.ExprID) (*IsolatedUnit, error) {
	if err := iso.checker.CheckRef(src, scope); err != nil {
		return nil, err
	}

	unit := &IsolatedUnit{
		SpecID:  specID,
		ExprID:  exprID,
		Source:  src,
		Scope:   scope,
		checker: iso.checker,
	}
	iso.units = append(iso.units, unit)
	iso.index[unitKey{spec: specID, expr: exprID}] = unit
	return unit, nil
}

// Units returns every isolated unit in allocation order.
func (iso *Isolator) Units() []*IsolatedUnit {
	return iso.units
}

// Lookup retrieves the unit for a given (SpecID, ExprID) pair.
func (iso *Isolator) Lookup(specID ir.SpecID, exprID ir.ExprID) (*IsolatedUnit, bool) {
	u, ok := iso.index[unitKey{spec: specID, expr: exprID}]
	return u, ok
}
