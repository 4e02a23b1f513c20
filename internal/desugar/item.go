package desugar

import (
	"strings"

	"cuelang.org/go/cue"

	"github.com/LDY1998/prusti-dev/internal/ir"
)

// PledgeDecl is one surface pledge: an optional reborrow reference
// expression plus the guaranteed assertion.
type PledgeDecl struct {
	Lhs string // empty when absent
	Rhs cue.Value
}

// Item is one annotated declaration parsed from a spec file. Contract
// values are kept as raw CUE values; the builder desugars them later.
type Item struct {
	Kind    ir.ItemKind
	Name    string
	Params  []ir.BoundVar
	Returns ir.VarType // zero value when the item returns nothing

	Requires []cue.Value
	Ensures  []cue.Value
	Pledges  []PledgeDecl

	// Body is the predicate's logical definition (predicates only).
	Body cue.Value

	// ExecBody is the function's executable body, opaque to the front end
	// and left untouched by desugaring.
	ExecBody string

	Pure    bool
	Trusted bool
}

// Ref returns the item's registry key.
func (it Item) Ref() ir.ItemRef {
	return ir.NewItemRef(it.Kind, it.Name)
}

// Signature returns the item's predicate signature. Only meaningful for
// predicates.
func (it Item) Signature() PredicateSig {
	return PredicateSig{Name: it.Name, Params: it.Params}
}

// ParseItems reads every function and predicate declaration from a compiled
// CUE value, in source order.
func ParseItems(v cue.Value) ([]Item, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	var items []Item

	fns := v.LookupPath(cue.ParsePath("function"))
	if fns.Exists() {
		iter, err := fns.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			item, err := parseFunction(strings.Trim(iter.Selector().String(), `"`), iter.Value())
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}

	preds := v.LookupPath(cue.ParsePath("predicate"))
	if preds.Exists() {
		iter, err := preds.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			item, err := parsePredicate(strings.Trim(iter.Selector().String(), `"`), iter.Value())
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}

	return items, nil
}

func parseFunction(name string, v cue.Value) (Item, error) {
	item := Item{Kind: ir.ItemFunction, Name: name}

	var err error
	item.Params, err = parseParams(v)
	if err != nil {
		return item, err
	}

	if retVal := v.LookupPath(cue.ParsePath("returns")); retVal.Exists() {
		typeName, err := retVal.String()
		if err != nil {
			return item, formatCUEError(err)
		}
		varType := ir.VarType(typeName)
		if !ir.ValidVarTypes[varType] {
			return item, &SyntaxError{
				Code:    ErrBadItemDecl,
				Field:   "returns",
				Message: "invalid return type " + typeName,
				Pos:     retVal.Pos(),
			}
		}
		item.Returns = varType
	}

	item.Requires, err = assertionList(v, "requires")
	if err != nil {
		return item, err
	}
	item.Ensures, err = assertionList(v, "ensures")
	if err != nil {
		return item, err
	}
	item.Pledges, err = pledgeList(v)
	if err != nil {
		return item, err
	}

	if bodyVal := v.LookupPath(cue.ParsePath("body")); bodyVal.Exists() {
		body, err := bodyVal.String()
		if err != nil {
			return item, formatCUEError(err)
		}
		item.ExecBody = body
	}

	item.Pure = boolField(v, "pure")
	item.Trusted = boolField(v, "trusted")
	return item, nil
}

func parsePredicate(name string, v cue.Value) (Item, error) {
	item := Item{Kind: ir.ItemPredicate, Name: name}

	var err error
	item.Params, err = parseParams(v)
	if err != nil {
		return item, err
	}

	bodyVal := v.LookupPath(cue.ParsePath("body"))
	if !bodyVal.Exists() {
		return item, &SyntaxError{
			Code:    ErrMissingPredicateBody,
			Field:   "predicate." + name,
			Message: "predicate requires a body assertion",
			Pos:     v.Pos(),
		}
	}
	item.Body = bodyVal

	// A predicate's truth is defined entirely by its assertion, not by
	// executable code.
	item.Pure = true
	item.Trusted = true
	return item, nil
}

func parseParams(v cue.Value) ([]ir.BoundVar, error) {
	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if !paramsVal.Exists() {
		return nil, nil
	}
	params, err := ParseBoundVars(paramsVal, "params")
	if err != nil {
		if se, ok := err.(*SyntaxError); ok {
			se.Code = ErrBadParams
		}
		return nil, err
	}
	return params, nil
}

func assertionList(v cue.Value, field string) ([]cue.Value, error) {
	listVal := v.LookupPath(cue.ParsePath(field))
	if !listVal.Exists() {
		return nil, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, &SyntaxError{
			Code:    ErrBadItemDecl,
			Field:   field,
			Message: field + " must be a list of assertions",
			Pos:     listVal.Pos(),
		}
	}
	var out []cue.Value
	for iter.Next() {
		out = append(out, iter.Value())
	}
	return out, nil
}

func pledgeList(v cue.Value) ([]PledgeDecl, error) {
	listVal := v.LookupPath(cue.ParsePath("pledges"))
	if !listVal.Exists() {
		return nil, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, &SyntaxError{
			Code:    ErrBadItemDecl,
			Field:   "pledges",
			Message: "pledges must be a list",
			Pos:     listVal.Pos(),
		}
	}

	var out []PledgeDecl
	for iter.Next() {
		entry := iter.Value()
		decl := PledgeDecl{}
		if lhsVal := entry.LookupPath(cue.ParsePath("lhs")); lhsVal.Exists() {
			lhs, err := lhsVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			decl.Lhs = lhs
		}
		rhsVal := entry.LookupPath(cue.ParsePath("rhs"))
		if !rhsVal.Exists() {
			return nil, &SyntaxError{
				Code:    ErrBadItemDecl,
				Field:   "pledges",
				Message: `each pledge requires an "rhs" assertion`,
				Pos:     entry.Pos(),
			}
		}
		decl.Rhs = rhsVal
		out = append(out, decl)
	}
	return out, nil
}

func boolField(v cue.Value, field string) bool {
	val := v.LookupPath(cue.ParsePath(field))
	if !val.Exists() {
		return false
	}
	b, err := val.Bool()
	if err != nil {
		return false
	}
	return b
}
