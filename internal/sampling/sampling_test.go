package sampling

import (
	"math"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func sorted(values []float64) []float64 {
	out := append([]float64(nil), values...)
	sort.Float64s(out)
	return out
}

// appendedValues returns the values of working that are not accounted for by base
func appendedValues(base, working []float64) []float64 {
	remaining := make(map[float64]int, len(base))
	for _, v := range base {
		remaining[v]++
	}
	var extra []float64
	for _, v := range working {
		if remaining[v] > 0 {
			remaining[v]--
			continue
		}
		extra = append(extra, v)
	}
	return extra
}

func TestGenerate_LengthAndSupport(t *testing.T) {
	gen := NewGenerator()
	rnd := newRand(1)

	for _, n := range []int{1, 50, 1000, 10000} {
		data := gen.Generate(n, rnd)
		require.Len(t, data, n)
		for _, v := range data {
			assert.Greater(t, v, 0.0)
		}
	}
}

func TestGenerate_ZeroSizeDrawsOneValue(t *testing.T) {
	data := NewGenerator().Generate(0, newRand(2))

	require.Len(t, data, 1)
	assert.Greater(t, data[0], 0.0)
}

func TestGenerate_ClampsOversizedRequests(t *testing.T) {
	assert.Len(t, NewGenerator().Generate(25000, newRand(3)), 10000)
}

func TestGenerate_LogNormalMoments(t *testing.T) {
	data := NewGenerator().Generate(1000, newRand(4))

	mean, err := stats.Mean(data)
	require.NoError(t, err)
	median, err := stats.Median(data)
	require.NoError(t, err)

	// E[X] = exp(0.5), median = exp(0)
	assert.InDelta(t, math.Exp(0.5), mean, 0.35)
	assert.InDelta(t, 1.0, median, 0.15)
}

func TestInject_AppendsOutliers(t *testing.T) {
	rnd := newRand(5)
	base := NewGenerator().Generate(500, rnd)
	original := append([]float64(nil), base...)

	result, err := NewInjector(true).Inject(base, 5, 20, rnd)
	require.NoError(t, err)

	assert.Len(t, result.Working, 505)
	assert.Equal(t, 5, result.Appended)
	assert.True(t, result.Shuffled)
	assert.Equal(t, original, base, "base sample must not be modified")

	extra := appendedValues(base, result.Working)
	require.Len(t, extra, 5)

	baseMean, _ := stats.Mean(base)
	baseStd, _ := stats.StandardDeviationPopulation(base)
	extraMean, _ := stats.Mean(extra)
	assert.InDelta(t, 20*baseStd, extraMean, 3*baseMean)
}

func TestInject_NoOutliersIsPermutation(t *testing.T) {
	rnd := newRand(6)
	base := NewGenerator().Generate(300, rnd)
	original := append([]float64(nil), base...)
	inj := NewInjector(true)

	for _, tc := range []struct{ count, offset int }{{0, 20}, {5, 0}, {0, 0}} {
		result, err := inj.Inject(base, tc.count, tc.offset, rnd)
		require.NoError(t, err)

		assert.Len(t, result.Working, len(base))
		assert.Zero(t, result.Appended)
		assert.True(t, result.Shuffled)
		assert.Equal(t, sorted(base), sorted(result.Working))
	}
	assert.Equal(t, original, base)
}

func TestInject_WithoutReshuffleKeepsOrder(t *testing.T) {
	rnd := newRand(7)
	base := NewGenerator().Generate(100, rnd)

	result, err := NewInjector(false).Inject(base, 0, 30, rnd)
	require.NoError(t, err)

	assert.False(t, result.Shuffled)
	assert.Equal(t, base, result.Working)

	result, err = NewInjector(false).Inject(base, 3, 30, rnd)
	require.NoError(t, err)
	assert.True(t, result.Shuffled)
	assert.Len(t, result.Working, 103)
}

func TestInject_NeverAccumulates(t *testing.T) {
	rnd := newRand(8)
	base := NewGenerator().Generate(200, rnd)
	inj := NewInjector(true)

	for i := 0; i < 3; i++ {
		result, err := inj.Inject(base, 10, 50, rnd)
		require.NoError(t, err)
		assert.Len(t, result.Working, 210)
	}
}

func TestInject_SingleValueBase(t *testing.T) {
	rnd := newRand(9)
	base := NewGenerator().Generate(0, rnd)

	result, err := NewInjector(true).Inject(base, 2, 10, rnd)
	require.NoError(t, err)
	assert.Len(t, result.Working, 3)
}

func TestOutlierValues_Centre(t *testing.T) {
	rnd := newRand(10)
	base := NewGenerator().Generate(1000, rnd)
	baseStd, _ := stats.StandardDeviationPopulation(base)

	values, err := OutlierValues(base, 4000, 20, rnd)
	require.NoError(t, err)
	require.Len(t, values, 4000)

	mean, _ := stats.Mean(values)
	assert.InDelta(t, 20*baseStd, mean, 0.2)
}

func TestOutlierValues_EmptyBase(t *testing.T) {
	_, err := OutlierValues(nil, 3, 10, newRand(11))
	assert.Error(t, err)
}
