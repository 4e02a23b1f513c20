package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/LDY1998/prusti-dev/internal/ir"
)

// Snapshot produces the deterministic text form of a run: the rendered
// registry with SpecIDs normalized for a successful run, or the diagnostic
// code for an expected failure. Byte-identical across runs on unchanged
// input.
func (r *RunResult) Snapshot() string {
	if r.RunErr != nil {
		return fmt.Sprintf("error %s\n", DiagnosticCode(r.RunErr))
	}
	return ir.NormalizeSpecIDs(r.Registry.Render())
}

// RunWithGolden runs a scenario, verifies its expectations, and compares
// the snapshot against the golden file in testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *Scenario) error {
	t.Helper()

	result, err := Run(sc)
	if err != nil {
		return err
	}
	if err := result.Verify(sc); err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, []byte(result.Snapshot()))
	return nil
}
