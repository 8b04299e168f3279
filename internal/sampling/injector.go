package sampling

import (
	"math/rand/v2"

	"gotendency/domain/sample"
	"gotendency/internal/errors"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Injection is the outcome of one injector run
type Injection struct {
	Working  []float64
	Appended int
	Shuffled bool
}

// Injector derives the working sample from the base sample
type Injector struct {
	// ReshuffleAlways permutes the working sample even when no outliers are appended
	ReshuffleAlways bool
}

// NewInjector creates an injector
func NewInjector(reshuffleAlways bool) *Injector {
	return &Injector{ReshuffleAlways: reshuffleAlways}
}

// Inject appends count outliers offset by offset standard deviations when both
// are non-zero, then shuffles. The base slice is never modified.
func (inj *Injector) Inject(base []float64, count, offset int, rnd *rand.Rand) (Injection, error) {
	count = sample.OutlierCountRange.Clamp(count)
	offset = sample.OutlierOffsetRange.Clamp(offset)

	working := make([]float64, len(base), len(base)+count)
	copy(working, base)

	result := Injection{}
	if count != 0 && offset != 0 {
		outliers, err := OutlierValues(base, count, offset, rnd)
		if err != nil {
			return Injection{}, err
		}
		working = append(working, outliers...)
		result.Appended = len(outliers)
	}

	if result.Appended > 0 || inj.ReshuffleAlways {
		rnd.Shuffle(len(working), func(i, j int) {
			working[i], working[j] = working[j], working[i]
		})
		result.Shuffled = true
	}

	result.Working = working
	return result, nil
}

// OutlierValues generates count values as mean(base)*z + offset*std(base) with
// z drawn from a standard normal and std the population standard deviation.
func OutlierValues(base []float64, count, offset int, rnd *rand.Rand) ([]float64, error) {
	mean, err := stats.Mean(base)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "base sample mean")
	}
	std, err := stats.StandardDeviationPopulation(base)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "base sample standard deviation")
	}

	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: rnd}
	shift := float64(offset) * std

	out := make([]float64, count)
	for i := range out {
		out[i] = mean*noise.Rand() + shift
	}
	return out, nil
}
