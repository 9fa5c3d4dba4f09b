// Package compute holds the explicit computation context shared by the
// data pipeline, model construction and training.
//
// All randomness (weight initialization, per-epoch shuffling) flows
// from a Context instead of process-global state, so a run is fully
// reproducible from its seed.
package compute

import "math/rand"

// Context carries the run seed and its random source.
type Context struct {
	seed int64
	rng  *rand.Rand
}

// New creates a context seeded with seed.
func New(seed int64) *Context {
	return &Context{
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Seed returns the seed the context was created with.
func (c *Context) Seed() int64 {
	return c.seed
}

// RNG returns the context's random source. Not safe for concurrent use;
// the pipeline and trainer run on a single logical thread.
func (c *Context) RNG() *rand.Rand {
	return c.rng
}

// Fork derives an independent context from the seed and salt. Used to
// give each epoch's shuffle its own deterministic stream.
func (c *Context) Fork(salt int64) *Context {
	return New(c.seed*1_000_003 + salt)
}
