package ports

import (
	"context"
	"math/rand/v2"
)

// RNGPort provides random number streams for sampling operations
type RNGPort interface {
	// Stream creates the generator named by key. A zero baseSeed yields an
	// unpredictable stream; any other seed replays the same draws for the same key.
	Stream(ctx context.Context, key, purpose string, baseSeed uint64) (*rand.Rand, error)
}
