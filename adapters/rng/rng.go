package rng

import (
	"context"
	"math/rand/v2"

	"gotendency/internal/errors"
)

// Adapter implements ports.RNGPort on top of math/rand/v2 PCG sources
type Adapter struct{}

// NewAdapter creates an RNG adapter
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Stream creates the generator named by key, one per session
func (a *Adapter) Stream(ctx context.Context, key, purpose string, baseSeed uint64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(err, "stream %s", key)
	}
	if baseSeed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), nil
	}

	// Same key and purpose under the same base seed replay the same draws
	seed := baseSeed
	if key != "" {
		seed += uint64(hashString(key))
	}
	if purpose != "" {
		seed += uint64(hashString(purpose))
	}
	return rand.New(rand.NewPCG(seed, baseSeed)), nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}
