// Package rewrite attaches desugared specifications back onto their items.
//
// For functions the original executable body is left untouched; the link
// from item to contract lives in an explicit side table rather than on any
// AST node. Predicates are the one place where executable semantics change:
// their body is replaced with a stub that unconditionally fails, because a
// predicate's truth is defined entirely by its assertion and must only ever
// be reasoned about symbolically.
package rewrite

import (
	"fmt"
	"sync"

	"github.com/LDY1998/prusti-dev/internal/desugar"
	"github.com/LDY1998/prusti-dev/internal/ir"
)

// UnimplementedError is the intentional runtime failure raised by invoking a
// predicate's executable stub. It is not a compile-time condition: reaching
// it means verification-only code was executed.
type UnimplementedError struct {
	Ref ir.ItemRef
}

func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("%s is a predicate and has no executable body", e.Ref)
}

// StubBody is the executable stand-in for a predicate body.
type StubBody func(args map[string]any) (bool, error)

// PredicateStub builds the failing stub for a predicate. The stub fails for
// all argument assignments, including none.
func PredicateStub(ref ir.ItemRef) StubBody {
	return func(map[string]any) (bool, error) {
		return false, &UnimplementedError{Ref: ref}
	}
}

// RewrittenItem is the post-attachment form of an annotated item.
type RewrittenItem struct {
	Ref  ir.ItemRef
	Kind ir.ItemKind

	// ExecBody is the function's original executable body, byte-identical
	// to the declaration. Empty for predicates.
	ExecBody string

	// Stub is the failing predicate body. Nil for functions.
	Stub StubBody

	Pure    bool
	Trusted bool
}

// SpecTable is the back-reference side table mapping each item to the
// SpecIDs of its contracts. It replaces any in-place tagging of host AST
// nodes, which many host environments disallow.
//
// Safe for concurrent use: items are attached in parallel.
type SpecTable struct {
	mu   sync.RWMutex
	tags map[ir.ItemRef][]ir.SpecID
}

// NewSpecTable creates an empty side table.
func NewSpecTable() *SpecTable {
	return &SpecTable{tags: make(map[ir.ItemRef][]ir.SpecID)}
}

// Tag records the SpecIDs attached to an item. Called exactly once per item
// by the attacher; duplicate attachment is caught by the registry, not here.
func (t *SpecTable) Tag(ref ir.ItemRef, ids []ir.SpecID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tags[ref] = ids
}

// SpecIDs returns the SpecIDs tagged onto an item.
func (t *SpecTable) SpecIDs(ref ir.ItemRef) ([]ir.SpecID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids, ok := t.tags[ref]
	return ids, ok
}

// Attacher rewrites annotated items after desugaring.
type Attacher struct {
	table *SpecTable
}

// NewAttacher creates an attacher writing back-references into table.
func NewAttacher(table *SpecTable) *Attacher {
	return &Attacher{table: table}
}

// Attach rewrites one desugared item. Functions keep their body and gain a
// side-table tag; predicates get the failing stub and are marked pure and
// trusted by convention.
func (a *Attacher) Attach(res *desugar.Result) *RewrittenItem {
	a.table.Tag(res.Ref, res.Spec.SpecIDs())

	item := &RewrittenItem{
		Ref:     res.Ref,
		Kind:    res.Item.Kind,
		Pure:    res.Spec.Pure,
		Trusted: res.Spec.Trusted,
	}
	if res.Item.Kind == ir.ItemPredicate {
		item.Stub = PredicateStub(res.Ref)
		item.Pure = true
		item.Trusted = true
	} else {
		item.ExecBody = res.Item.ExecBody
	}
	return item
}
