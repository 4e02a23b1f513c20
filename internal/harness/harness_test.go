package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LDY1998/prusti-dev/internal/ir"
)

func TestScenariosGolden(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, sc := range scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, sc))
		})
	}
}

func TestRunRegistersRecords(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/function_contract.yaml")
	require.NoError(t, err)

	result, err := Run(sc)
	require.NoError(t, err)
	require.NoError(t, result.RunErr)

	spec, ok := result.Registry.Lookup("function.max")
	require.True(t, ok)
	require.Len(t, spec.Pres, 2)

	// Both preconditions share one SpecID; the postconditions use another.
	preID := spec.Pres[0].(ir.Expr).SpecID
	assert.Equal(t, preID, spec.Pres[1].(ir.Expr).SpecID)
	postID := spec.Posts[0].(ir.Expr).SpecID
	assert.NotEqual(t, preID, postID)
}

func TestRunCapturesDiagnostic(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/empty_binders.yaml")
	require.NoError(t, err)

	result, err := Run(sc)
	require.NoError(t, err)
	require.Error(t, result.RunErr)
	assert.Equal(t, "E202", DiagnosticCode(result.RunErr))

	// The failing item registered nothing.
	assert.Equal(t, 0, result.Registry.Len())
}

func TestSnapshotStableAcrossRuns(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/predicate_forall.yaml")
	require.NoError(t, err)

	first, err := Run(sc)
	require.NoError(t, err)
	second, err := Run(sc)
	require.NoError(t, err)

	// Fresh UUIDs each run; normalization makes the snapshots identical.
	assert.NotEqual(t, first.Registry.Render(), second.Registry.Render())
	assert.Equal(t, first.Snapshot(), second.Snapshot())
}

func TestVerifyRejectsWrongShape(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/function_contract.yaml")
	require.NoError(t, err)

	result, err := Run(sc)
	require.NoError(t, err)

	bad := *sc
	bad.Checks = []Check{{Ref: "function.max", Pres: 7, Posts: 2}}
	assert.Error(t, result.Verify(&bad))
}
