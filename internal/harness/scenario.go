package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario: the spec files to desugar and
// the expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists CUE spec files to load, relative to the scenario file.
	Specs []string `yaml:"specs"`

	// Expect is the expected outcome of the run.
	Expect ExpectClause `yaml:"expect"`

	// Checks are per-record structural expectations, applied after a
	// successful run.
	Checks []Check `yaml:"checks,omitempty"`

	// dir is the scenario file's directory, for resolving Specs.
	dir string
}

// ExpectClause specifies the expected run outcome. Exactly one of Error or
// Items is meaningful: a non-empty Error means the run must fail with that
// diagnostic code; otherwise Items registered records are required.
type ExpectClause struct {
	Error string `yaml:"error,omitempty"`
	Items int    `yaml:"items,omitempty"`
}

// Check validates one registered record's shape. Counts are exact; boolean
// fields must match.
type Check struct {
	Ref     string `yaml:"ref"`
	Pres    int    `yaml:"pres,omitempty"`
	Posts   int    `yaml:"posts,omitempty"`
	Pledges int    `yaml:"pledges,omitempty"`
	HasBody bool   `yaml:"has_body,omitempty"`
	Pure    bool   `yaml:"pure,omitempty"`
	Trusted bool   `yaml:"trusted,omitempty"`
}

// LoadScenario reads and validates one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s: missing name", path)
	}
	if len(sc.Specs) == 0 {
		return nil, fmt.Errorf("scenario %s: no spec files listed", path)
	}

	sc.dir = filepath.Dir(path)
	return &sc, nil
}

// LoadScenarios reads every scenario file in a directory, sorted by file
// name so runs are deterministic.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := filepath.Ext(e.Name()); ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		sc, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// SpecPaths returns the scenario's spec files resolved against its
// directory.
func (sc *Scenario) SpecPaths() []string {
	paths := make([]string, len(sc.Specs))
	for i, s := range sc.Specs {
		paths[i] = filepath.Join(sc.dir, s)
	}
	return paths
}
