package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/LDY1998/prusti-dev/internal/ir"
)

// ItemState tracks the per-item desugaring lifecycle.
// Transitions: Unannotated -> Parsing -> Built -> Registered.
// No transition skips a state; a failed parse returns the item to
// Unannotated (failure is surfaced, not retried).
type ItemState int

const (
	StateUnannotated ItemState = iota
	StateParsing
	StateBuilt
	StateRegistered
)

func (s ItemState) String() string {
	switch s {
	case StateUnannotated:
		return "unannotated"
	case StateParsing:
		return "parsing"
	case StateBuilt:
		return "built"
	case StateRegistered:
		return "registered"
	default:
		return fmt.Sprintf("ItemState(%d)", int(s))
	}
}

// DuplicateRegistrationError reports a contract attached twice to the same
// declaration. This is a programming error in the pipeline, not a
// user-facing scenario; it is fatal for the item.
type DuplicateRegistrationError struct {
	Ref ir.ItemRef
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("specification already registered for %s", e.Ref)
}

// IsDuplicateRegistration reports whether err is (or wraps) a
// DuplicateRegistrationError.
func IsDuplicateRegistration(err error) bool {
	var de *DuplicateRegistrationError
	return errors.As(err, &de)
}

// Registry owns every ProcedureSpecification of a compilation unit, keyed
// by the item's own back-reference tag. Records are write-once; Lookup is
// the sole read interface exposed to the verifier.
//
// Safe for concurrent use: items register from parallel workers. There is
// no cross-run persistence; dropping the registry at the end of the
// compilation unit is the entire teardown protocol.
type Registry struct {
	mu      sync.RWMutex
	records map[ir.ItemRef]*ir.ProcedureSpecification
	states  map[ir.ItemRef]ItemState
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		records: make(map[ir.ItemRef]*ir.ProcedureSpecification),
		states:  make(map[ir.ItemRef]ItemState),
	}
}

// Begin marks an item as Parsing. Beginning an already-registered item is a
// duplicate registration; beginning an item already being parsed is a
// pipeline error.
func (r *Registry) Begin(ref ir.ItemRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.states[ref] {
	case StateUnannotated:
		r.states[ref] = StateParsing
		return nil
	case StateRegistered:
		return &DuplicateRegistrationError{Ref: ref}
	default:
		return fmt.Errorf("item %s already in state %s", ref, r.states[ref])
	}
}

// Fail returns a Parsing item to Unannotated after a host-check or syntax
// failure. Other items are unaffected.
func (r *Registry) Fail(ref ir.ItemRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.states[ref] == StateParsing {
		r.states[ref] = StateUnannotated
	}
}

// Register stores exactly one record per item, advancing it through Built
// to Registered. Re-registration for the same item returns
// DuplicateRegistrationError; the record is never overwritten.
func (r *Registry) Register(ref ir.ItemRef, spec *ir.ProcedureSpecification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[ref]; exists {
		return &DuplicateRegistrationError{Ref: ref}
	}

	r.states[ref] = StateBuilt
	r.records[ref] = spec
	r.states[ref] = StateRegistered
	return nil
}

// Lookup returns the registered record for an item. This is the read
// interface consumed by the verification backend.
func (r *Registry) Lookup(ref ir.ItemRef) (*ir.ProcedureSpecification, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.records[ref]
	return spec, ok
}

// State returns the item's lifecycle state.
func (r *Registry) State(ref ir.ItemRef) ItemState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.states[ref]
}

// Refs returns every registered item, sorted for deterministic iteration.
func (r *Registry) Refs() []ir.ItemRef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	refs := make([]ir.ItemRef, 0, len(r.records))
	for ref := range r.records {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	return refs
}

// Len returns the number of registered records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Render produces the deterministic text form of the whole registry:
// records in sorted ref order, separated by blank lines. SpecIDs are the
// real per-run values; callers snapshot-testing the output normalize them
// with ir.NormalizeSpecIDs.
func (r *Registry) Render() string {
	refs := r.Refs()

	var b strings.Builder
	for i, ref := range refs {
		if i > 0 {
			b.WriteString("\n")
		}
		spec, _ := r.Lookup(ref)
		b.WriteString(ir.RenderProcedureSpecification(ref, spec))
	}
	return b.String()
}
