package visual

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"gotendency/domain/sample"
	"gotendency/internal/errors"
	"gotendency/internal/metrics"
	"gotendency/internal/tendency"
)

const captionHeight = 20

var panelNames = [3]string{"histogram", "points", "curve"}

// Options sizes the plot and picks its texts
type Options struct {
	Width         int
	PanelHeight   int
	MaxConcurrent int
	Labels        sample.Labels
}

// Visualizer renders session snapshots into a stacked three-panel PNG
type Visualizer struct {
	opts     Options
	reporter *tendency.Reporter
	sem      *semaphore.Weighted
	metrics  *metrics.Collector
	logger   log.Logger
}

// NewVisualizer creates a visualizer. MaxConcurrent bounds how many plots are
// rendered at once across all sessions.
func NewVisualizer(opts Options, reporter *tendency.Reporter, m *metrics.Collector, logger log.Logger) *Visualizer {
	if opts.Width <= 0 {
		opts.Width = 900
	}
	if opts.PanelHeight <= 0 {
		opts.PanelHeight = 280
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if reporter == nil {
		reporter = tendency.NewReporter()
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Visualizer{
		opts:     opts,
		reporter: reporter,
		sem:      semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		metrics:  m,
		logger:   logger,
	}
}

// Render draws the snapshot and encodes it as PNG
func (v *Visualizer) Render(ctx context.Context, snap sample.Snapshot) ([]byte, error) {
	img, err := v.RenderImage(ctx, snap)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.RenderError("plot", err)
	}
	return buf.Bytes(), nil
}

// RenderImage draws the three panels of the snapshot stacked vertically:
// the histogram of the working sample, its values against their index, and
// the histogram curve with the mean and median marked.
func (v *Visualizer) RenderImage(ctx context.Context, snap sample.Snapshot) (img image.Image, err error) {
	start := time.Now()
	defer func() {
		v.metrics.Rendered(time.Since(start), err)
		if err != nil {
			level.Warn(v.logger).Log("msg", "plot render failed", "version", snap.Version, "err", err)
			return
		}
		level.Debug(v.logger).Log("msg", "plot rendered", "version", snap.Version, "took", time.Since(start))
	}()

	if len(snap.Working) == 0 {
		return nil, errors.InvalidInput("cannot plot an empty sample")
	}
	if err := v.sem.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(err, "wait for render slot")
	}
	defer v.sem.Release(1)

	tend, err := v.reporter.Measure(snap.Working)
	if err != nil {
		return nil, err
	}
	hist, err := NewHistogram(snap.Working, snap.Params.Bins)
	if err != nil {
		return nil, err
	}

	rendered := make([]image.Image, len(panels))
	g, gctx := errgroup.WithContext(ctx)
	for i, build := range panels {
		in := panelInput{
			working:    snap.Working,
			base:       snap.Base,
			hist:       hist,
			tendencies: tend,
			index:      i,
			labels:     v.opts.Labels,
			width:      v.opts.Width,
			height:     v.opts.PanelHeight,
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ch, err := build(in)
			if err != nil {
				return errors.RenderError(panelNames[in.index], err)
			}
			panel, err := renderPanel(ch, panelNames[in.index])
			if err != nil {
				return err
			}
			rendered[in.index] = panel
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return v.compose(rendered), nil
}

// compose stacks the panels top to bottom, each under its caption when the
// variant has panel titles
func (v *Visualizer) compose(panels []image.Image) *image.RGBA {
	height := 0
	for i, p := range panels {
		if v.opts.Labels.PanelTitles[i] != "" {
			height += captionHeight
		}
		height += p.Bounds().Dy()
	}

	canvas := image.NewRGBA(image.Rect(0, 0, v.opts.Width, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	y := 0
	for i, p := range panels {
		if title := v.opts.Labels.PanelTitles[i]; title != "" {
			drawCaption(canvas, title, y, v.opts.Width)
			y += captionHeight
		}
		b := p.Bounds()
		draw.Draw(canvas, image.Rect(0, y, b.Dx(), y+b.Dy()), p, b.Min, draw.Over)
		y += b.Dy()
	}
	return canvas
}

// drawCaption writes text centred in the caption strip starting at top
func drawCaption(dst *image.RGBA, text string, top, width int) {
	dr := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.RGBA{R: 33, G: 33, B: 33, A: 255}),
		Face: basicfont.Face7x13,
	}
	x := (width - dr.MeasureString(text).Ceil()) / 2
	if x < 4 {
		x = 4
	}
	dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(top + captionHeight - 5)}
	dr.DrawString(text)
}
