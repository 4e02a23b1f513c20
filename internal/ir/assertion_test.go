package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleTree builds the tree for
//
//	(x > 0) && (forall b: bool, triggers [f(b)] :: implies(b, x == 1))
//
// with ids numbered the way the builder allocates them: pre-order, triggers
// after the quantifier body.
func sampleTree(spec SpecID) Assertion {
	scope := []BoundVar{{Name: "x", Type: TypeInt}}
	extended := []BoundVar{{Name: "x", Type: TypeInt}, {Name: "b", Type: TypeBool}}

	return And{Conjuncts: []Assertion{
		Expr{Expression: Expression{SpecID: spec, ID: 100, Source: "x > 0", Scope: scope}},
		ForAll{
			Vars: ForAllVars{SpecID: spec, ID: 101, Vars: []BoundVar{{Name: "b", Type: TypeBool}}},
			Triggers: TriggerSet{
				{Elements: []Expression{{SpecID: spec, ID: 104, Source: "f(b)", Scope: extended}}},
			},
			Body: Implies{
				If:   Expr{Expression: Expression{SpecID: spec, ID: 102, Source: "b", Scope: extended}},
				Then: Expr{Expression: Expression{SpecID: spec, ID: 103, Source: "x == 1", Scope: extended}},
			},
		},
	}}
}

func TestWalkIDsPreOrder(t *testing.T) {
	tree := sampleTree("spec-1")

	var ids []ExprID
	WalkIDs(tree, func(spec SpecID, id ExprID) {
		assert.Equal(t, SpecID("spec-1"), spec)
		ids = append(ids, id)
	})

	// Allocation order: leaf, quantifier node, body leaves, trigger.
	assert.Equal(t, []ExprID{100, 101, 102, 103, 104}, ids)
	for i := 1; i < len(ids); i++ {
		assert.Greater(t, ids[i], ids[i-1], "ids must be strictly increasing")
	}
}

func TestWalkExpressionsSkipsQuantifierNode(t *testing.T) {
	tree := sampleTree("spec-1")

	var sources []string
	WalkExpressions(tree, func(e Expression) {
		sources = append(sources, e.Source)
	})

	assert.Equal(t, []string{"x > 0", "b", "x == 1", "f(b)"}, sources)
}

func TestIDUniquenessWithinScope(t *testing.T) {
	tree := sampleTree("spec-1")

	seen := make(map[ExprID]bool)
	WalkIDs(tree, func(_ SpecID, id ExprID) {
		require.False(t, seen[id], "ExprID %d reused within one scope", id)
		seen[id] = true
	})
}

func TestExprPromotesExpressionFields(t *testing.T) {
	tree := sampleTree("spec-1")

	leaf, ok := tree.(And).Conjuncts[0].(Expr)
	require.True(t, ok)

	assert.Equal(t, SpecID("spec-1"), leaf.SpecID)
	assert.Equal(t, ExprID(100), leaf.ID)
	assert.Equal(t, "x > 0", leaf.Source)
	assert.Equal(t, []BoundVar{{Name: "x", Type: TypeInt}}, leaf.Scope)
}

func TestSpecIDsCollection(t *testing.T) {
	spec := &ProcedureSpecification{
		Pres:  []Assertion{sampleTree("spec-a")},
		Posts: []Assertion{sampleTree("spec-b")},
	}

	assert.Equal(t, []SpecID{"spec-a", "spec-b"}, spec.SpecIDs())
	assert.False(t, spec.IsEmpty())
	assert.True(t, (&ProcedureSpecification{}).IsEmpty())
}
