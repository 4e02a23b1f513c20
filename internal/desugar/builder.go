package desugar

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/LDY1998/prusti-dev/internal/ir"
)

// Builder parses contract surface syntax into an ir.Assertion tree, one
// recursive case per connective. Sub-expressions are numbered strictly in
// the order they appear in source text, depth-first, so re-running the
// builder on unchanged input reproduces identical numbering.
//
// One builder per contract occurrence: it owns the scope's ExprID allocator
// and stamps every node with the contract's SpecID.
type Builder struct {
	specID ir.SpecID
	alloc  *ir.ExprIDAllocator
	iso    *Isolator
}

// NewBuilder creates a builder for one contract occurrence.
func NewBuilder(specID ir.SpecID, alloc *ir.ExprIDAllocator, iso *Isolator) *Builder {
	return &Builder{specID: specID, alloc: alloc, iso: iso}
}

// Build desugars one surface assertion value over the given lexical scope.
// The value is either a plain expression string or a struct with exactly one
// connective field: and, implies, or forall.
func (b *Builder) Build(v cue.Value, scope []ir.BoundVar) (ir.Assertion, error) {
	switch v.Kind() {
	case cue.StringKind:
		src, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return b.buildExpr(src, scope)
	case cue.StructKind:
		return b.buildConnective(v, scope)
	default:
		return nil, &SyntaxError{
			Code:    ErrBadAssertionValue,
			Field:   "assertion",
			Message: fmt.Sprintf("assertion must be an expression string or a connective struct, got %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

// buildExpr allocates an id in the current scope, isolates the expression,
// and emits the Expr leaf.
func (b *Builder) buildExpr(src string, scope []ir.BoundVar) (ir.Assertion, error) {
	id := b.alloc.Next()
	unit, err := b.iso.Isolate(src, scope, b.specID, id)
	if err != nil {
		return nil, err
	}
	return ir.Expr{Expression: unit.Expression()}, nil
}

func (b *Builder) buildConnective(v cue.Value, scope []ir.BoundVar) (ir.Assertion, error) {
	if andVal := v.LookupPath(cue.ParsePath("and")); andVal.Exists() {
		return b.buildAnd(andVal, scope)
	}
	if impliesVal := v.LookupPath(cue.ParsePath("implies")); impliesVal.Exists() {
		return b.buildImplies(impliesVal, scope)
	}
	if forallVal := v.LookupPath(cue.ParsePath("forall")); forallVal.Exists() {
		return b.buildForAll(forallVal, scope)
	}
	return nil, &SyntaxError{
		Code:    ErrUnknownConnective,
		Field:   "assertion",
		Message: `connective struct must have one of "and", "implies", "forall"`,
		Pos:     v.Pos(),
	}
}

// buildAnd desugars a conjunction, left to right in textual order.
func (b *Builder) buildAnd(v cue.Value, scope []ir.BoundVar) (ir.Assertion, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &SyntaxError{
			Code:    ErrEmptyConjunction,
			Field:   "and",
			Message: "and requires a list of assertions",
			Pos:     v.Pos(),
		}
	}

	var conjuncts []ir.Assertion
	for iter.Next() {
		c, err := b.Build(iter.Value(), scope)
		if err != nil {
			return nil, err
		}
		conjuncts = append(conjuncts, c)
	}
	if len(conjuncts) == 0 {
		return nil, &SyntaxError{
			Code:    ErrEmptyConjunction,
			Field:   "and",
			Message: "and requires at least one conjunct",
			Pos:     v.Pos(),
		}
	}
	return ir.And{Conjuncts: conjuncts}, nil
}

// buildImplies desugars an implication. Both sides are required.
func (b *Builder) buildImplies(v cue.Value, scope []ir.BoundVar) (ir.Assertion, error) {
	ifVal := v.LookupPath(cue.ParsePath("if"))
	thenVal := v.LookupPath(cue.ParsePath("then"))
	if !ifVal.Exists() || !thenVal.Exists() {
		return nil, &SyntaxError{
			Code:    ErrBadImplication,
			Field:   "implies",
			Message: `implies requires both "if" and "then"`,
			Pos:     v.Pos(),
		}
	}

	lhs, err := b.Build(ifVal, scope)
	if err != nil {
		return nil, err
	}
	rhs, err := b.Build(thenVal, scope)
	if err != nil {
		return nil, err
	}
	return ir.Implies{If: lhs, Then: rhs}, nil
}

// buildForAll desugars a universal quantifier. The binder list is validated
// before any ExprID is allocated for the quantifier; the body continues the
// scope's monotonic id sequence; triggers are isolated against the extended
// scope (binders visible), after the body.
func (b *Builder) buildForAll(v cue.Value, scope []ir.BoundVar) (ir.Assertion, error) {
	binders, err := b.parseBinders(v, scope)
	if err != nil {
		return nil, err
	}

	bodyVal := v.LookupPath(cue.ParsePath("body"))
	if !bodyVal.Exists() {
		return nil, &SyntaxError{
			Code:    ErrBadQuantifier,
			Field:   "forall",
			Message: `forall requires a "body" assertion`,
			Pos:     v.Pos(),
		}
	}

	id := b.alloc.Next()
	extended := make([]ir.BoundVar, 0, len(scope)+len(binders))
	extended = append(extended, scope...)
	extended = append(extended, binders...)

	body, err := b.Build(bodyVal, extended)
	if err != nil {
		return nil, err
	}

	triggers, err := b.parseTriggers(v, extended)
	if err != nil {
		return nil, err
	}

	return ir.ForAll{
		Vars:     ir.ForAllVars{SpecID: b.specID, ID: id, Vars: binders},
		Triggers: triggers,
		Body:     body,
	}, nil
}

// parseBinders reads and validates the binder list of a quantifier.
func (b *Builder) parseBinders(v cue.Value, scope []ir.BoundVar) ([]ir.BoundVar, error) {
	varsVal := v.LookupPath(cue.ParsePath("vars"))
	if !varsVal.Exists() {
		return nil, &SyntaxError{
			Code:    ErrEmptyBinderList,
			Field:   "forall.vars",
			Message: "forall requires a non-empty binder list",
			Pos:     v.Pos(),
		}
	}

	binders, err := ParseBoundVars(varsVal, "forall.vars")
	if err != nil {
		return nil, err
	}
	if len(binders) == 0 {
		return nil, &SyntaxError{
			Code:    ErrEmptyBinderList,
			Field:   "forall.vars",
			Message: "forall requires a non-empty binder list",
			Pos:     varsVal.Pos(),
		}
	}

	inScope := make(map[string]bool, len(scope))
	for _, s := range scope {
		inScope[s.Name] = true
	}
	for _, binder := range binders {
		if inScope[binder.Name] {
			return nil, &SyntaxError{
				Code:    ErrDuplicateBinder,
				Field:   "forall.vars",
				Message: fmt.Sprintf("binder %q shadows a name already in scope", binder.Name),
				Pos:     varsVal.Pos(),
			}
		}
		inScope[binder.Name] = true
	}
	return binders, nil
}

// parseTriggers reads the optional trigger annotation: a list of trigger
// groups, each an ordered list of expression strings. Triggers are opaque
// instantiation hints; they are isolated and passed through unchanged.
func (b *Builder) parseTriggers(v cue.Value, scope []ir.BoundVar) (ir.TriggerSet, error) {
	triggersVal := v.LookupPath(cue.ParsePath("triggers"))
	if !triggersVal.Exists() {
		return nil, nil
	}

	groupIter, err := triggersVal.List()
	if err != nil {
		return nil, &SyntaxError{
			Code:    ErrBadTrigger,
			Field:   "forall.triggers",
			Message: "triggers must be a list of trigger groups",
			Pos:     triggersVal.Pos(),
		}
	}

	var set ir.TriggerSet
	for groupIter.Next() {
		elemIter, err := groupIter.Value().List()
		if err != nil {
			return nil, &SyntaxError{
				Code:    ErrBadTrigger,
				Field:   "forall.triggers",
				Message: "each trigger group must be a list of expression strings",
				Pos:     groupIter.Value().Pos(),
			}
		}

		var elements []ir.Expression
		for elemIter.Next() {
			src, err := elemIter.Value().String()
			if err != nil {
				return nil, &SyntaxError{
					Code:    ErrBadTrigger,
					Field:   "forall.triggers",
					Message: "trigger elements must be expression strings",
					Pos:     elemIter.Value().Pos(),
				}
			}
			id := b.alloc.Next()
			unit, isoErr := b.iso.Isolate(src, scope, b.specID, id)
			if isoErr != nil {
				return nil, isoErr
			}
			elements = append(elements, unit.Expression())
		}
		set = append(set, ir.Trigger{Elements: elements})
	}
	return set, nil
}

// ParseBoundVars reads an ordered list of {name, type} structs.
func ParseBoundVars(v cue.Value, field string) ([]ir.BoundVar, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &SyntaxError{
			Code:    ErrBadBinder,
			Field:   field,
			Message: "expected a list of {name, type} entries",
			Pos:     v.Pos(),
		}
	}

	var vars []ir.BoundVar
	for iter.Next() {
		entry := iter.Value()
		nameVal := entry.LookupPath(cue.ParsePath("name"))
		typeVal := entry.LookupPath(cue.ParsePath("type"))
		if !nameVal.Exists() || !typeVal.Exists() {
			return nil, &SyntaxError{
				Code:    ErrBadBinder,
				Field:   field,
				Message: "each entry requires name and type",
				Pos:     entry.Pos(),
			}
		}
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		typeName, err := typeVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		varType := ir.VarType(typeName)
		if !ir.ValidVarTypes[varType] {
			return nil, &SyntaxError{
				Code:    ErrBadBinder,
				Field:   field,
				Message: fmt.Sprintf("invalid type %q, must be bool, int, or string", typeName),
				Pos:     typeVal.Pos(),
			}
		}
		vars = append(vars, ir.BoundVar{Name: name, Type: varType})
	}
	return vars, nil
}
