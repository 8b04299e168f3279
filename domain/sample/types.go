package sample

import (
	"fmt"
	"strings"

	"gotendency/internal/errors"
)

// Tendencies holds the central tendency measures of a sample
type Tendencies struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// Snapshot is a read-only view of a session's samples at one instant.
// Slices are shared with the session and must not be modified.
type Snapshot struct {
	Params  Params
	Base    []float64
	Working []float64
	Version uint64
}

// Variant selects the cosmetic flavour of the page and plot
type Variant string

const (
	VariantAnnotated Variant = "annotated"
	VariantCompact   Variant = "compact"
)

// ParseVariant resolves a configured variant name
func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case "", VariantAnnotated:
		return VariantAnnotated, nil
	case VariantCompact:
		return VariantCompact, nil
	}
	return "", errors.ConfigInvalid(fmt.Sprintf("unknown UI variant %q", s))
}

// Labels are the texts and sizes that differ between variants
type Labels struct {
	Title            string
	SampleSize       string
	Bins             string
	OutliersCheckbox string
	OutlierOffset    string
	OutlierCount     string

	// Panel titles and axis labels; empty strings are not drawn
	PanelTitles [3]string
	XLabels     [3]string
	YLabels     [3]string

	PlotWidth    string
	PlotHeightPx int
}

// Labels returns the texts for the variant
func (v Variant) Labels() Labels {
	if v == VariantCompact {
		return Labels{
			Title:            "Measuring Sensibility of Central Tendency Measures to Outliers",
			SampleSize:       "Sample size",
			Bins:             "Number of bins",
			OutliersCheckbox: "Add outliers to distribution",
			OutlierOffset:    "Select offset for outliers",
			OutlierCount:     "Select number of outlier values",
			PlotWidth:        "70%",
			PlotHeightPx:     800,
		}
	}
	return Labels{
		Title:            "Measuring Sensitivity of Central Tendency Measures to Outliers",
		SampleSize:       "Sample size",
		Bins:             "Number of bins",
		OutliersCheckbox: "Add outliers to distribution",
		OutlierOffset:    "Select offset for outliers (big/small outliers)",
		OutlierCount:     "Select amount of outlier values",
		PanelTitles: [3]string{
			"Log distribution histogram",
			"Log distribution datapoints",
			"Log distribution histogram, mean and median",
		},
		XLabels:      [3]string{"Value", "N", "Value"},
		YLabels:      [3]string{"Counts", "Value", "Counts"},
		PlotWidth:    "60%",
		PlotHeightPx: 855,
	}
}

// Shape describes the spread and asymmetry of a sample alongside its tendencies
type Shape struct {
	StdDev   float64 `json:"std_dev"`
	Skewness float64 `json:"skewness"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`

	// Values beyond 1.5 IQR of the quartiles
	IQROutliers int `json:"iqr_outliers"`
}
