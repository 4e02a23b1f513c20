package ir

import (
	"sync"

	"github.com/google/uuid"
)

// SpecIDGenerator issues fresh, globally unique SpecIDs.
// Implementations must be safe for concurrent use: items may be desugared
// in parallel, and the generator is the only resource shared between them.
type SpecIDGenerator interface {
	NextSpecID() SpecID
}

// UUIDGenerator generates time-sortable UUIDv7 SpecIDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, making ids
// sortable by creation time, which is helpful when eyeballing dumps of a
// large compilation unit.
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// NextSpecID creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDGenerator) NextSpecID() SpecID {
	return SpecID(uuid.Must(uuid.NewV7()).String())
}

// FixedGenerator returns predetermined SpecIDs for testing.
//
// This enables deterministic desugaring runs and golden-file comparison.
// Tests provide a known id sequence and verify exact rendered output.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []SpecID
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
//
// Example:
//
//	gen := NewFixedGenerator("spec-1", "spec-2")
//	gen.NextSpecID() // "spec-1"
//	gen.NextSpecID() // "spec-2"
//	gen.NextSpecID() // panic: all ids exhausted
func NewFixedGenerator(ids ...SpecID) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// NextSpecID returns the next predetermined id.
// Panics when the sequence is exhausted; tests should provide enough ids.
func (g *FixedGenerator) NextSpecID() SpecID {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// ExprIDAllocator issues strictly increasing ExprIDs within one SpecID
// scope, starting at ExprIDBase. Each scope gets its own allocator; the
// allocator is owned by a single item's builder and is not safe for
// concurrent use (it never needs to be - id assignment within a scope is a
// single-threaded pass by construction).
type ExprIDAllocator struct {
	next ExprID
}

// NewExprIDAllocator creates an allocator whose first issued id is
// ExprIDBase.
func NewExprIDAllocator() *ExprIDAllocator {
	return &ExprIDAllocator{next: ExprIDBase}
}

// Next returns a value strictly greater than every previously issued id in
// this scope. Allocation never fails.
func (a *ExprIDAllocator) Next() ExprID {
	id := a.next
	a.next++
	return id
}

// Issued reports how many ids this allocator has handed out.
func (a *ExprIDAllocator) Issued() int {
	return int(a.next - ExprIDBase)
}
