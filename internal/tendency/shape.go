package tendency

import (
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"gotendency/domain/sample"
	"gotendency/internal/errors"
)

// Describe summarises the spread and asymmetry of data. Skewness needs at
// least three values and is zero below that.
func (r *Reporter) Describe(data []float64) (sample.Shape, error) {
	std, err := stats.StandardDeviationPopulation(data)
	if err != nil {
		return sample.Shape{}, errors.Wrap(errors.InvalidInput(err.Error()), "standard deviation")
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	q25 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q75 := stat.Quantile(0.75, stat.Empirical, sorted, nil)

	shape := sample.Shape{
		StdDev:      std,
		Q25:         q25,
		Q75:         q75,
		IQROutliers: countBeyondIQR(data, q25, q75),
	}
	if len(data) >= 3 && std > 0 {
		shape.Skewness = stat.Skew(data, nil)
	}
	return shape, nil
}

// countBeyondIQR counts values outside the 1.5 IQR fences
func countBeyondIQR(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lower, upper := q25-1.5*iqr, q75+1.5*iqr

	n := 0
	for _, x := range data {
		if x < lower || x > upper {
			n++
		}
	}
	return n
}
