package registry

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LDY1998/prusti-dev/internal/ir"
)

func testSpec(specID ir.SpecID, source string, scope []ir.BoundVar) *ir.ProcedureSpecification {
	return &ir.ProcedureSpecification{
		Pres: []ir.Assertion{
			ir.Expr{Expression: ir.Expression{
				SpecID: specID,
				ID:     ir.ExprIDBase,
				Source: source,
				Scope:  scope,
			}},
		},
	}
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	ref := ir.NewItemRef(ir.ItemFunction, "max")
	spec := testSpec("018f0000-0000-7000-8000-000000000001", "a >= 0", nil)

	require.NoError(t, r.Begin(ref))
	assert.Equal(t, StateParsing, r.State(ref))

	require.NoError(t, r.Register(ref, spec))
	assert.Equal(t, StateRegistered, r.State(ref))

	got, ok := r.Lookup(ref)
	require.True(t, ok)
	assert.Equal(t, spec, got)
}

func TestLookupMissing(t *testing.T) {
	r := New()

	_, ok := r.Lookup(ir.NewItemRef(ir.ItemFunction, "ghost"))
	assert.False(t, ok)
	assert.Equal(t, StateUnannotated, r.State(ir.NewItemRef(ir.ItemFunction, "ghost")))
}

func TestDuplicateRegistration(t *testing.T) {
	r := New()
	ref := ir.NewItemRef(ir.ItemFunction, "max")
	first := testSpec("018f0000-0000-7000-8000-000000000001", "a >= 0", nil)
	second := testSpec("018f0000-0000-7000-8000-000000000002", "a >= 1", nil)

	require.NoError(t, r.Register(ref, first))

	err := r.Register(ref, second)
	require.Error(t, err)
	assert.True(t, IsDuplicateRegistration(err))
	assert.Contains(t, err.Error(), "function.max")

	// The first record survives untouched.
	got, ok := r.Lookup(ref)
	require.True(t, ok)
	assert.Equal(t, first, got)
}

func TestBeginAfterRegisteredIsDuplicate(t *testing.T) {
	r := New()
	ref := ir.NewItemRef(ir.ItemPredicate, "pred")
	require.NoError(t, r.Register(ref, testSpec("018f0000-0000-7000-8000-000000000001", "true", nil)))

	err := r.Begin(ref)
	assert.True(t, IsDuplicateRegistration(err))
}

func TestFailReturnsToUnannotated(t *testing.T) {
	r := New()
	ref := ir.NewItemRef(ir.ItemFunction, "broken")

	require.NoError(t, r.Begin(ref))
	r.Fail(ref)
	assert.Equal(t, StateUnannotated, r.State(ref))

	// The item can be parsed again after a failure.
	require.NoError(t, r.Begin(ref))
}

func TestBeginTwiceIsError(t *testing.T) {
	r := New()
	ref := ir.NewItemRef(ir.ItemFunction, "f")

	require.NoError(t, r.Begin(ref))
	err := r.Begin(ref)
	require.Error(t, err)
	assert.False(t, IsDuplicateRegistration(err))
}

func TestRefsSorted(t *testing.T) {
	r := New()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		ref := ir.NewItemRef(ir.ItemFunction, name)
		require.NoError(t, r.Register(ref, testSpec("018f0000-0000-7000-8000-000000000001", "true", nil)))
	}

	assert.Equal(t, []ir.ItemRef{
		"function.alpha",
		"function.mid",
		"function.zeta",
	}, r.Refs())
	assert.Equal(t, 3, r.Len())
}

func TestConcurrentRegistration(t *testing.T) {
	r := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref := ir.NewItemRef(ir.ItemFunction, fmt.Sprintf("f%03d", i))
			_ = r.Register(ref, testSpec("018f0000-0000-7000-8000-000000000001", "true", nil))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, r.Len())
}

func TestRenderSortedWithSeparators(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(ir.NewItemRef(ir.ItemFunction, "b"),
		testSpec("018f0000-0000-7000-8000-000000000002", "x > 0", nil)))
	require.NoError(t, r.Register(ir.NewItemRef(ir.ItemFunction, "a"),
		testSpec("018f0000-0000-7000-8000-000000000001", "true", nil)))

	rendered := ir.NormalizeSpecIDs(r.Render())

	// "a" renders before "b" regardless of registration order.
	ia := strings.Index(rendered, "procedure function.a")
	ib := strings.Index(rendered, "procedure function.b")
	require.GreaterOrEqual(t, ia, 0)
	require.Greater(t, ib, ia)
	assert.Contains(t, rendered, "`true`")
	assert.Contains(t, rendered, "`x > 0`")
}

func TestItemStateString(t *testing.T) {
	assert.Equal(t, "unannotated", StateUnannotated.String())
	assert.Equal(t, "parsing", StateParsing.String())
	assert.Equal(t, "built", StateBuilt.String())
	assert.Equal(t, "registered", StateRegistered.String())
}
