// Package sampling draws the base log-normal sample and derives the working
// sample from it by injecting synthetic outliers.
package sampling

import (
	"math/rand/v2"

	"gotendency/domain/sample"

	"gonum.org/v1/gonum/stat/distuv"
)

// Generator draws base samples from a standard log-normal distribution
type Generator struct {
	dist distuv.LogNormal
}

// NewGenerator creates a generator for LogNormal(0, 1)
func NewGenerator() *Generator {
	return &Generator{
		dist: distuv.LogNormal{Mu: 0, Sigma: 1},
	}
}

// Generate draws a fresh base sample of size n. A size of zero draws a single
// value so the sample is never empty.
func (g *Generator) Generate(n int, rnd *rand.Rand) []float64 {
	size := sample.EffectiveSampleSize(sample.SampleSizeRange.Clamp(n))

	dist := g.dist
	dist.Src = rnd

	out := make([]float64, size)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}
