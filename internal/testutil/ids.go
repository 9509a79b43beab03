// Package testutil provides deterministic substitutes for the engine's
// sources of nondeterminism, so tests and golden snapshots are
// byte-identical across runs.
package testutil

import (
	"fmt"
	"sync"
)

// SequentialRunIDs generates run identifiers run-000001, run-000002, ...
//
// Unlike the engine's UUIDv7 generator, the sequence can be reset so the
// same scenario produces identical reports on every run.
//
// Thread-safety: all methods are safe for concurrent use.
type SequentialRunIDs struct {
	mu sync.Mutex
	n  int64
}

// NewSequentialRunIDs creates a generator whose first ID is run-000001.
func NewSequentialRunIDs() *SequentialRunIDs {
	return &SequentialRunIDs{}
}

// NewRunID returns the next identifier in the sequence.
//
// Implements engine.RunIDGenerator.
func (g *SequentialRunIDs) NewRunID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("run-%06d", g.n)
}

// Reset restarts the sequence. The next NewRunID returns run-000001.
func (g *SequentialRunIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
