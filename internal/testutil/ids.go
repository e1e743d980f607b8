package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator generates UUID-shaped ids with a counter in the low bits.
//
// This enables deterministic snapshot ids and golden file comparison:
//
//	00000000-0000-7000-8000-000000000001
//	00000000-0000-7000-8000-000000000002
//
// Thread-safety: SequentialIDGenerator is safe for concurrent use via internal mutex.
type SequentialIDGenerator struct {
	mu sync.Mutex
	n  int64
}

// NewSequentialIDGenerator creates a generator whose first id ends in 1.
func NewSequentialIDGenerator() *SequentialIDGenerator {
	return &SequentialIDGenerator{}
}

// Generate returns the next id.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("00000000-0000-7000-8000-%012d", g.n)
}
