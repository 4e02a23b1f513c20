package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefix for content-addressed fingerprints.
// Version suffix enables future algorithm migration.
const DomainProcedureSpec = "specfront/procedure-spec/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SpecificationHash computes a content-addressed fingerprint of a
// ProcedureSpecification. The hash is stable across independent runs on
// unchanged input, which makes it usable for diffing and caching
// specifications between compilations.
//
// SpecIDs are excluded from the hash: they are per-run tokens, so they are
// normalized to first-appearance placeholders before marshaling. ExprIDs are
// part of the logical structure and are included.
func SpecificationHash(ref ItemRef, spec *ProcedureSpecification) (string, error) {
	norm := NewSpecIDNormalizer()
	obj, err := canonicalSpecification(ref, spec, norm.Normalize)
	if err != nil {
		return "", fmt.Errorf("SpecificationHash: %w", err)
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("SpecificationHash: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainProcedureSpec, canonical), nil
}

// MustSpecificationHash is like SpecificationHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSpecificationHash(ref ItemRef, spec *ProcedureSpecification) string {
	h, err := SpecificationHash(ref, spec)
	if err != nil {
		panic(err)
	}
	return h
}

// CanonicalSpecification converts a ProcedureSpecification to an IRObject
// carrying the actual SpecIDs, suitable for canonical JSON output and
// storage.
func CanonicalSpecification(ref ItemRef, spec *ProcedureSpecification) (IRObject, error) {
	return canonicalSpecification(ref, spec, func(id SpecID) string { return string(id) })
}

func canonicalSpecification(ref ItemRef, spec *ProcedureSpecification, specID func(SpecID) string) (IRObject, error) {
	obj := IRObject{
		"item":    IRString(ref),
		"pure":    IRBool(spec.Pure),
		"trusted": IRBool(spec.Trusted),
	}

	pres, err := canonicalAssertionList(spec.Pres, specID)
	if err != nil {
		return nil, fmt.Errorf("pres: %w", err)
	}
	obj["pres"] = pres

	posts, err := canonicalAssertionList(spec.Posts, specID)
	if err != nil {
		return nil, fmt.Errorf("posts: %w", err)
	}
	obj["posts"] = posts

	pledges := make(IRArray, len(spec.Pledges))
	for i, p := range spec.Pledges {
		entry := IRObject{}
		if p.Lhs != nil {
			entry["lhs"] = canonicalExpression(*p.Lhs, specID)
		}
		rhs, err := canonicalAssertion(p.Rhs, specID)
		if err != nil {
			return nil, fmt.Errorf("pledges[%d]: %w", i, err)
		}
		entry["rhs"] = rhs
		pledges[i] = entry
	}
	obj["pledges"] = pledges

	if spec.PredicateBody != nil {
		body, err := canonicalAssertion(spec.PredicateBody, specID)
		if err != nil {
			return nil, fmt.Errorf("predicate_body: %w", err)
		}
		obj["predicate_body"] = body
	}

	return obj, nil
}

func canonicalAssertionList(list []Assertion, specID func(SpecID) string) (IRArray, error) {
	arr := make(IRArray, len(list))
	for i, a := range list {
		v, err := canonicalAssertion(a, specID)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		arr[i] = v
	}
	return arr, nil
}

// canonicalAssertion converts one assertion tree. Exhaustive over the
// Assertion sum; an unknown variant is a programming error.
func canonicalAssertion(a Assertion, specID func(SpecID) string) (IRValue, error) {
	switch node := a.(type) {
	case Expr:
		obj := canonicalExpression(node.Expression, specID)
		obj["kind"] = IRString("expr")
		return obj, nil
	case And:
		conjuncts, err := canonicalAssertionList(node.Conjuncts, specID)
		if err != nil {
			return nil, err
		}
		return IRObject{
			"kind":      IRString("and"),
			"conjuncts": conjuncts,
		}, nil
	case Implies:
		ifVal, err := canonicalAssertion(node.If, specID)
		if err != nil {
			return nil, err
		}
		thenVal, err := canonicalAssertion(node.Then, specID)
		if err != nil {
			return nil, err
		}
		return IRObject{
			"kind": IRString("implies"),
			"if":   ifVal,
			"then": thenVal,
		}, nil
	case ForAll:
		body, err := canonicalAssertion(node.Body, specID)
		if err != nil {
			return nil, err
		}
		triggers := make(IRArray, len(node.Triggers))
		for i, trigger := range node.Triggers {
			elems := make(IRArray, len(trigger.Elements))
			for j, e := range trigger.Elements {
				elems[j] = canonicalExpression(e, specID)
			}
			triggers[i] = elems
		}
		return IRObject{
			"kind":     IRString("forall"),
			"spec_id":  IRString(specID(node.Vars.SpecID)),
			"id":       IRInt(node.Vars.ID),
			"vars":     canonicalBoundVars(node.Vars.Vars),
			"triggers": triggers,
			"body":     body,
		}, nil
	default:
		return nil, fmt.Errorf("unknown assertion variant: %T", a)
	}
}

func canonicalExpression(e Expression, specID func(SpecID) string) IRObject {
	return IRObject{
		"spec_id": IRString(specID(e.SpecID)),
		"id":      IRInt(e.ID),
		"source":  IRString(e.Source),
		"scope":   canonicalBoundVars(e.Scope),
	}
}

func canonicalBoundVars(vars []BoundVar) IRArray {
	arr := make(IRArray, len(vars))
	for i, v := range vars {
		arr[i] = IRObject{
			"name": IRString(v.Name),
			"type": IRString(string(v.Type)),
		}
	}
	return arr
}
