package ir

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDGeneratorUnique(t *testing.T) {
	gen := UUIDGenerator{}
	seen := make(map[SpecID]bool)
	for i := 0; i < 1000; i++ {
		id := gen.NextSpecID()
		require.False(t, seen[id], "duplicate SpecID %s", id)
		seen[id] = true
	}
}

func TestUUIDGeneratorConcurrent(t *testing.T) {
	gen := UUIDGenerator{}

	const workers = 8
	const perWorker = 200

	var mu sync.Mutex
	seen := make(map[SpecID]bool)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]SpecID, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, gen.NextSpecID())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				assert.False(t, seen[id], "duplicate SpecID across workers")
				seen[id] = true
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestFixedGeneratorOrder(t *testing.T) {
	gen := NewFixedGenerator("spec-a", "spec-b")

	assert.Equal(t, SpecID("spec-a"), gen.NextSpecID())
	assert.Equal(t, SpecID("spec-b"), gen.NextSpecID())
	assert.Panics(t, func() { gen.NextSpecID() })
}

func TestExprIDAllocatorMonotonic(t *testing.T) {
	alloc := NewExprIDAllocator()

	assert.Equal(t, ExprIDBase, alloc.Next())
	assert.Equal(t, ExprIDBase+1, alloc.Next())
	assert.Equal(t, ExprIDBase+2, alloc.Next())
	assert.Equal(t, 3, alloc.Issued())
}

func TestExprIDAllocatorsIndependent(t *testing.T) {
	// Two scopes never share a counter.
	a := NewExprIDAllocator()
	b := NewExprIDAllocator()

	a.Next()
	a.Next()

	assert.Equal(t, ExprIDBase, b.Next())
}
