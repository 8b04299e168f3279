package visual

import (
	"image"
	"math"

	"gotendency/domain/sample"
	"gotendency/internal/errors"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"
)

var (
	colorBars   = drawing.ColorFromHex("1f77b4")
	colorPoints = drawing.ColorFromHex("d3d3d3") // lightgray
	colorCurve  = drawing.ColorFromHex("808080") // gray
	colorMean   = drawing.ColorFromHex("00bfff") // deepskyblue
	colorMedian = drawing.ColorFromHex("dc143c") // crimson

	dashed  = []float64{6, 4}
	dashDot = []float64{8, 4, 2, 4}
)

// panelInput is everything a single panel needs
type panelInput struct {
	working    []float64
	base       []float64
	hist       Histogram
	tendencies sample.Tendencies
	index      int
	labels     sample.Labels
	width      int
	height     int
}

type panelFunc func(in panelInput) (chart.Chart, error)

// panels are drawn top to bottom
var panels = [3]panelFunc{histogramPanel, pointsPanel, curvePanel}

func meanStyle() chart.Style {
	return chart.Style{StrokeColor: colorMean, StrokeWidth: 2, StrokeDashArray: dashed}
}

func medianStyle() chart.Style {
	return chart.Style{StrokeColor: colorMedian, StrokeWidth: 2, StrokeDashArray: dashDot}
}

// histogramPanel draws the working sample's histogram as bars
func histogramPanel(in panelInput) (chart.Chart, error) {
	h := in.hist
	ch := baseChart(in)
	ch.XAxis.Range = paddedRange(h.Edges[0], h.Edges[len(h.Edges)-1])
	ch.YAxis.Range = paddedRange(0, h.MaxCount()*1.05)
	ch.Series = []chart.Series{
		chart.HistogramSeries{
			Name: "Data",
			Style: chart.Style{
				FillColor:   colorBars,
				StrokeColor: colorBars,
				StrokeWidth: 1,
			},
			InnerSeries: chart.ContinuousSeries{XValues: h.Centers, YValues: h.Counts},
		},
	}
	return ch, nil
}

// pointsPanel draws every value of the working sample against its index with
// horizontal mean and median lines across [0, len]
func pointsPanel(in panelInput) (chart.Chart, error) {
	n := len(in.working)
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	length := float64(n)
	lo, hi := floats.Min(in.working), floats.Max(in.working)
	t := in.tendencies

	ch := baseChart(in)
	ch.XAxis.Range = paddedRange(0, length)
	ch.YAxis.Range = paddedRange(math.Min(lo, 0), hi*1.05)
	ch.Series = []chart.Series{
		chart.ContinuousSeries{
			Name: "Data",
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    1.5,
				DotColor:    colorPoints,
				StrokeColor: colorPoints,
			},
			XValues: xs,
			YValues: in.working,
		},
		chart.ContinuousSeries{Name: "Mean", Style: meanStyle(), XValues: []float64{0, length}, YValues: []float64{t.Mean, t.Mean}},
		chart.ContinuousSeries{Name: "Median", Style: medianStyle(), XValues: []float64{0, length}, YValues: []float64{t.Median, t.Median}},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch, nil
}

// curvePanel draws the histogram as a line through the bin centres with
// vertical mean and median markers. The x axis runs from -1 to the largest
// base value, or to 1.5x the mean when outliers pushed the mean past it.
func curvePanel(in panelInput) (chart.Chart, error) {
	h := in.hist
	t := in.tendencies
	top := h.MaxCount()

	xmin, xmax := CurveRange(in.base, t.Mean)
	xs, ys := clipPolyline(h.Centers, h.Counts, xmin, xmax)

	ch := baseChart(in)
	ch.XAxis.Range = paddedRange(xmin, xmax)
	ch.YAxis.Range = paddedRange(0, top*1.05)

	var series []chart.Series
	if len(xs) > 0 {
		series = append(series, chart.ContinuousSeries{
			Name:    "Data (Histogram)",
			Style:   chart.Style{StrokeColor: colorCurve, StrokeWidth: 1.5},
			XValues: xs,
			YValues: ys,
		})
	}
	if t.Mean >= xmin && t.Mean <= xmax {
		series = append(series, chart.ContinuousSeries{Name: "Mean", Style: meanStyle(), XValues: []float64{t.Mean, t.Mean}, YValues: []float64{0, top}})
	}
	if t.Median >= xmin && t.Median <= xmax {
		series = append(series, chart.ContinuousSeries{Name: "Median", Style: medianStyle(), XValues: []float64{t.Median, t.Median}, YValues: []float64{0, top}})
	}
	if len(series) == 0 {
		series = append(series, chart.ContinuousSeries{
			Name:    "Zero",
			Style:   chart.Style{StrokeColor: colorPoints, StrokeWidth: 1},
			XValues: []float64{xmin, xmax},
			YValues: []float64{0, 0},
		})
	}
	ch.Series = series
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch, nil
}

// CurveRange returns the x limits of the curve panel
func CurveRange(base []float64, mean float64) (float64, float64) {
	const xmin = -1.0
	limit := mean * 1.5
	if len(base) > 0 {
		if top := floats.Max(base); mean < top {
			limit = top
		}
	}
	if limit <= xmin {
		limit = xmin + 1
	}
	return xmin, limit
}

func baseChart(in panelInput) chart.Chart {
	return chart.Chart{
		Width:  in.width,
		Height: in.height,
		Background: chart.Style{
			Padding: chart.Box{Top: 16, Left: 8, Right: 16, Bottom: 8},
		},
		XAxis: chart.XAxis{Name: in.labels.XLabels[in.index]},
		YAxis: chart.YAxis{Name: in.labels.YLabels[in.index]},
	}
}

// paddedRange returns a fresh range that is never empty
func paddedRange(lo, hi float64) *chart.ContinuousRange {
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		lo, hi = 0, 1
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	if hi-lo < 1e-9 {
		pad := math.Max(math.Abs(lo)*0.05, 0.5)
		lo, hi = lo-pad, hi+pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

// clipPolyline keeps the part of the line inside [lo, hi], interpolating the
// crossing points on the boundary
func clipPolyline(xs, ys []float64, lo, hi float64) ([]float64, []float64) {
	var outX, outY []float64
	add := func(x, y float64) {
		if n := len(outX); n > 0 && outX[n-1] == x && outY[n-1] == y {
			return
		}
		outX = append(outX, x)
		outY = append(outY, y)
	}
	inside := func(x float64) bool { return x >= lo && x <= hi }
	at := func(i int, x float64) float64 {
		x0, x1 := xs[i], xs[i+1]
		if x1 == x0 {
			return ys[i]
		}
		return ys[i] + (ys[i+1]-ys[i])*(x-x0)/(x1-x0)
	}

	for i := range xs {
		if inside(xs[i]) {
			add(xs[i], ys[i])
		}
		if i+1 == len(xs) {
			break
		}
		a, b := xs[i], xs[i+1]
		for _, edge := range []float64{lo, hi} {
			if (a < edge && b > edge) || (a > edge && b < edge) {
				add(edge, at(i, edge))
			}
		}
	}
	return outX, outY
}

// renderPanel draws one chart into an image
func renderPanel(ch chart.Chart, name string) (image.Image, error) {
	collector := &chart.ImageWriter{}
	if err := ch.Render(chart.PNG, collector); err != nil {
		return nil, errors.RenderError(name, err)
	}
	img, err := collector.Image()
	if err != nil {
		return nil, errors.RenderError(name, err)
	}
	return img, nil
}
