// Package harness runs conformance scenarios against the front end.
//
// A scenario is a YAML file naming CUE spec files plus the expected outcome:
// either a diagnostic code or the registered item shapes. Successful runs
// are additionally snapshot-tested: the registry's rendered text, with
// SpecIDs normalized to stable placeholders, is compared against a golden
// file byte for byte.
package harness
