package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecificationHashIgnoresSpecIDValues(t *testing.T) {
	// Two runs of the same input produce different UUIDs but must hash
	// identically.
	runA := &ProcedureSpecification{Pres: []Assertion{sampleTree("0193814e-9f7b-7cca-a1a2-5ff1d0a00001")}}
	runB := &ProcedureSpecification{Pres: []Assertion{sampleTree("0193814e-9f7b-7cca-a1a2-5ff1d0a0ffff")}}

	hashA, err := SpecificationHash("function.f", runA)
	require.NoError(t, err)
	hashB, err := SpecificationHash("function.f", runB)
	require.NoError(t, err)

	assert.Equal(t, hashA, hashB)
	assert.Len(t, hashA, 64)
}

func TestSpecificationHashSensitiveToStructure(t *testing.T) {
	base := &ProcedureSpecification{Pres: []Assertion{sampleTree("spec-1")}}
	changedSource := &ProcedureSpecification{Pres: []Assertion{
		Expr{Expression: Expression{SpecID: "spec-1", ID: 100, Source: "x > 1"}},
	}}
	asPost := &ProcedureSpecification{Posts: []Assertion{sampleTree("spec-1")}}

	baseHash := MustSpecificationHash("function.f", base)

	assert.NotEqual(t, baseHash, MustSpecificationHash("function.f", changedSource))
	assert.NotEqual(t, baseHash, MustSpecificationHash("function.f", asPost))
	assert.NotEqual(t, baseHash, MustSpecificationHash("function.g", base))
}

func TestCanonicalSpecificationCarriesRealIDs(t *testing.T) {
	spec := &ProcedureSpecification{
		Pres:    []Assertion{Expr{Expression: Expression{SpecID: "spec-xyz", ID: 100, Source: "a"}}},
		Pure:    true,
		Trusted: true,
	}

	obj, err := CanonicalSpecification("function.f", spec)
	require.NoError(t, err)

	pres, ok := obj["pres"].(IRArray)
	require.True(t, ok)
	require.Len(t, pres, 1)

	leaf, ok := pres[0].(IRObject)
	require.True(t, ok)
	assert.Equal(t, IRString("expr"), leaf["kind"])
	assert.Equal(t, IRString("spec-xyz"), leaf["spec_id"])
	assert.Equal(t, IRInt(100), leaf["id"])
	assert.Equal(t, IRBool(true), obj["pure"])
}

func TestCanonicalSpecificationOmitsNilPredicateBody(t *testing.T) {
	obj, err := CanonicalSpecification("function.f", &ProcedureSpecification{})
	require.NoError(t, err)

	_, present := obj["predicate_body"]
	assert.False(t, present, "nil predicate body must be omitted, not null")
}
