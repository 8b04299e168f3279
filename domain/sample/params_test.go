package sample

import (
	"testing"

	"gotendency/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRange_Clamp(t *testing.T) {
	assert.Equal(t, 0, SampleSizeRange.Clamp(-5))
	assert.Equal(t, 10000, SampleSizeRange.Clamp(20000))
	assert.Equal(t, 350, SampleSizeRange.Clamp(350))
	assert.Equal(t, 10, OutlierCountRange.Clamp(11))
}

func TestParams_Clamped(t *testing.T) {
	p := Params{SampleSize: -1, Bins: 500, OutlierOffset: 51, OutlierCount: -3, OutliersEnabled: true}.Clamped()

	assert.Equal(t, Params{SampleSize: 0, Bins: 100, OutlierOffset: 50, OutlierCount: 0, OutliersEnabled: true}, p)
	assert.NoError(t, p.Validate())
}

func TestParams_Validate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	err := Params{SampleSize: 10001}.Validate()
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Contains(t, err.Error(), "n must be within [0, 10000]")

	err = Params{OutlierCount: 11}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "n_outliers")
}

func TestParams_InjectsOutliers(t *testing.T) {
	assert.False(t, Params{OutlierCount: 0, OutlierOffset: 20}.InjectsOutliers())
	assert.False(t, Params{OutlierCount: 5, OutlierOffset: 0}.InjectsOutliers())
	assert.True(t, Params{OutlierCount: 5, OutlierOffset: 20}.InjectsOutliers())
	// the checkbox does not gate injection
	assert.True(t, Params{OutlierCount: 1, OutlierOffset: 5, OutliersEnabled: false}.InjectsOutliers())
}

func TestEffectiveBinsAndSize(t *testing.T) {
	assert.Equal(t, 1, EffectiveBins(0))
	assert.Equal(t, 40, EffectiveBins(40))
	assert.Equal(t, 1, Params{Bins: 0}.EffectiveBins())
	assert.Equal(t, 1, EffectiveSampleSize(0))
	assert.Equal(t, 500, EffectiveSampleSize(500))
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("")
	require.NoError(t, err)
	assert.Equal(t, VariantAnnotated, v)

	v, err = ParseVariant(" Compact ")
	require.NoError(t, err)
	assert.Equal(t, VariantCompact, v)

	_, err = ParseVariant("fancy")
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestVariant_Labels(t *testing.T) {
	annotated := VariantAnnotated.Labels()
	assert.Contains(t, annotated.Title, "Sensitivity")
	assert.Equal(t, "Log distribution histogram", annotated.PanelTitles[0])
	assert.Equal(t, 855, annotated.PlotHeightPx)

	compact := VariantCompact.Labels()
	assert.Contains(t, compact.Title, "Sensibility")
	assert.Empty(t, compact.PanelTitles[2])
	assert.Equal(t, "70%", compact.PlotWidth)
}
