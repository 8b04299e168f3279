// Package visual renders the three-panel distribution plot of a session.
package visual

import (
	"math"
	"sort"

	"gotendency/domain/sample"
	"gotendency/internal/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Histogram is an equal-width binning of a sample
type Histogram struct {
	Counts  []float64
	Edges   []float64 // len(Counts)+1 bin edges
	Centers []float64
}

// MaxCount returns the tallest bin
func (h Histogram) MaxCount() float64 {
	if len(h.Counts) == 0 {
		return 0
	}
	return floats.Max(h.Counts)
}

// NewHistogram bins data into equal-width bins spanning [min, max]. The last
// bin is closed so the maximum is counted. A bin count below one means one
// bin, and a sample of identical values is binned over [v-0.5, v+0.5].
func NewHistogram(data []float64, bins int) (Histogram, error) {
	if len(data) == 0 {
		return Histogram{}, errors.InvalidInput("cannot bin an empty sample")
	}
	n := sample.EffectiveBins(bins)

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return Histogram{}, errors.InvalidInput("sample contains non-finite values")
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	edges := make([]float64, n+1)
	floats.Span(edges, lo, hi)
	edges[n] = hi

	// stat.Histogram bins are half-open; nudge the last divider past hi
	dividers := append([]float64(nil), edges...)
	dividers[n] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)

	centers := make([]float64, n)
	for i := range centers {
		centers[i] = (edges[i] + edges[i+1]) / 2
	}

	return Histogram{Counts: counts, Edges: edges, Centers: centers}, nil
}
