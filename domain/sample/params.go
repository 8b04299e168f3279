package sample

import (
	"fmt"

	"gotendency/internal/errors"
)

// Range describes the bounds and slider step of one control
type Range struct {
	Min  int `json:"min"`
	Max  int `json:"max"`
	Step int `json:"step"`
}

// Control ranges as exposed by the sidebar sliders
var (
	SampleSizeRange    = Range{Min: 0, Max: 10000, Step: 50}
	BinsRange          = Range{Min: 0, Max: 100, Step: 10}
	OutlierOffsetRange = Range{Min: 0, Max: 50, Step: 5}
	OutlierCountRange  = Range{Min: 0, Max: 10, Step: 1}
)

// Clamp pins v into the range
func (r Range) Clamp(v int) int {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Contains reports whether v lies inside the range
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Params holds the current value of every control of a session
type Params struct {
	SampleSize      int  `json:"n"`
	Bins            int  `json:"n_bins"`
	OutliersEnabled bool `json:"outliers"`
	OutlierOffset   int  `json:"offset_outliers"`
	OutlierCount    int  `json:"n_outliers"`
}

// DefaultParams returns the slider positions of a fresh page
func DefaultParams() Params {
	return Params{
		SampleSize: 1000,
		Bins:       40,
	}
}

// Clamped returns a copy with every numeric control pinned into its range
func (p Params) Clamped() Params {
	p.SampleSize = SampleSizeRange.Clamp(p.SampleSize)
	p.Bins = BinsRange.Clamp(p.Bins)
	p.OutlierOffset = OutlierOffsetRange.Clamp(p.OutlierOffset)
	p.OutlierCount = OutlierCountRange.Clamp(p.OutlierCount)
	return p
}

// Validate rejects values the sliders could never produce
func (p Params) Validate() error {
	checks := []struct {
		name  string
		value int
		r     Range
	}{
		{"n", p.SampleSize, SampleSizeRange},
		{"n_bins", p.Bins, BinsRange},
		{"offset_outliers", p.OutlierOffset, OutlierOffsetRange},
		{"n_outliers", p.OutlierCount, OutlierCountRange},
	}
	for _, c := range checks {
		if !c.r.Contains(c.value) {
			return errors.InvalidInput(fmt.Sprintf("%s must be within [%d, %d], got %d", c.name, c.r.Min, c.r.Max, c.value))
		}
	}
	return nil
}

// InjectsOutliers reports whether the injector appends values for these params.
// The checkbox only toggles slider visibility; hidden sliders keep their values.
func (p Params) InjectsOutliers() bool {
	return p.OutlierCount != 0 && p.OutlierOffset != 0
}

// EffectiveBins is the bin count actually used for histograms
func (p Params) EffectiveBins() int {
	return EffectiveBins(p.Bins)
}

// EffectiveBins remaps a zero bin count to one bin
func EffectiveBins(bins int) int {
	if bins < 1 {
		return 1
	}
	return bins
}

// EffectiveSampleSize is the number of draws for a requested size; an empty draw becomes one value
func EffectiveSampleSize(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
