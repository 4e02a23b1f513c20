package desugar

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LDY1998/prusti-dev/internal/ir"
)

func compileSpec(t *testing.T, src string) cue.Value {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return v
}

const sampleSpec = `
function: max: {
	params: [{name: "a", type: "int"}, {name: "b", type: "int"}]
	returns: "int"
	requires: ["a >= 0"]
	ensures: ["result >= a", "result >= b"]
	body: "if a > b { a } else { b }"
}

function: reborrow: {
	params: [{name: "x", type: "int"}]
	returns: "int"
	pledges: [{lhs: "result", rhs: "result == x"}]
	pure: true
}

predicate: positive: {
	params: [{name: "v", type: "int"}]
	body: "v > 0"
}
`

func TestParseItems(t *testing.T) {
	items, err := ParseItems(compileSpec(t, sampleSpec))
	require.NoError(t, err)
	require.Len(t, items, 3)

	max := items[0]
	assert.Equal(t, ir.ItemFunction, max.Kind)
	assert.Equal(t, "max", max.Name)
	assert.Equal(t, ir.ItemRef("function.max"), max.Ref())
	assert.Equal(t, []ir.BoundVar{
		{Name: "a", Type: ir.TypeInt},
		{Name: "b", Type: ir.TypeInt},
	}, max.Params)
	assert.Equal(t, ir.TypeInt, max.Returns)
	assert.Len(t, max.Requires, 1)
	assert.Len(t, max.Ensures, 2)
	assert.Equal(t, "if a > b { a } else { b }", max.ExecBody)
	assert.False(t, max.Pure)
	assert.False(t, max.Trusted)

	reborrow := items[1]
	require.Len(t, reborrow.Pledges, 1)
	assert.Equal(t, "result", reborrow.Pledges[0].Lhs)
	assert.True(t, reborrow.Pure)

	pred := items[2]
	assert.Equal(t, ir.ItemPredicate, pred.Kind)
	assert.Equal(t, ir.ItemRef("predicate.positive"), pred.Ref())
	assert.True(t, pred.Body.Exists())
	assert.True(t, pred.Pure)
	assert.True(t, pred.Trusted)
	assert.Equal(t, PredicateSig{
		Name:   "positive",
		Params: []ir.BoundVar{{Name: "v", Type: ir.TypeInt}},
	}, pred.Signature())
}

func TestParseItemsEmpty(t *testing.T) {
	items, err := ParseItems(compileSpec(t, "{}"))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestParsePredicateMissingBody(t *testing.T) {
	_, err := ParseItems(compileSpec(t, `predicate: p: {params: [{name: "b", type: "bool"}]}`))
	require.Error(t, err)
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrMissingPredicateBody, se.Code)
	assert.Contains(t, se.Error(), "predicate.p")
}

func TestParseFunctionBadReturnType(t *testing.T) {
	_, err := ParseItems(compileSpec(t, `function: f: {returns: "float"}`))
	require.Error(t, err)
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrBadItemDecl, se.Code)
}

func TestParseFunctionBadParams(t *testing.T) {
	_, err := ParseItems(compileSpec(t, `function: f: {params: [{name: "x"}]}`))
	require.Error(t, err)
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrBadParams, se.Code)
}

func TestParsePledgeMissingRhs(t *testing.T) {
	_, err := ParseItems(compileSpec(t, `function: f: {pledges: [{lhs: "result"}]}`))
	require.Error(t, err)
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrBadItemDecl, se.Code)
}
