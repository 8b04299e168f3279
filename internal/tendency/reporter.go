package tendency

import (
	"fmt"
	"strconv"
	"strings"

	"gotendency/domain/sample"
	"gotendency/internal/errors"

	"github.com/montanaflynn/stats"
)

// Precision is the number of decimal places shown for each measure
const Precision = 4

// Reporter computes and formats the central tendency measures of a sample
type Reporter struct{}

// NewReporter creates a reporter
func NewReporter() *Reporter {
	return &Reporter{}
}

// Measure computes the arithmetic mean and median of data
func (r *Reporter) Measure(data []float64) (sample.Tendencies, error) {
	mean, err := stats.Mean(data)
	if err != nil {
		return sample.Tendencies{}, errors.Wrap(errors.InvalidInput(err.Error()), "mean")
	}
	median, err := stats.Median(data)
	if err != nil {
		return sample.Tendencies{}, errors.Wrap(errors.InvalidInput(err.Error()), "median")
	}
	return sample.Tendencies{Mean: mean, Median: median}, nil
}

// Report measures data and formats the result as the tendency line
func (r *Reporter) Report(data []float64) (string, error) {
	t, err := r.Measure(data)
	if err != nil {
		return "", err
	}
	return Format(t), nil
}

// Format renders the tendency line, e.g. "Mean value: 1.6487\tMedian value: 1.0"
func Format(t sample.Tendencies) string {
	return fmt.Sprintf("Mean value: %s\tMedian value: %s", formatValue(Round(t.Mean)), formatValue(Round(t.Median)))
}

// Round rounds v to Precision decimal places
func Round(v float64) float64 {
	rounded, err := stats.Round(v, Precision)
	if err != nil {
		return v
	}
	return rounded
}

// formatValue prints the shortest representation, keeping a trailing ".0" on whole numbers
func formatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if strings.ContainsAny(s, ".eIN") {
		return s
	}
	return s + ".0"
}
