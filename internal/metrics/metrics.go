package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector groups the application's Prometheus instruments.
// A nil *Collector is valid and records nothing.
type Collector struct {
	samplesGenerated prometheus.Counter
	injections       *prometheus.CounterVec
	renders          *prometheus.CounterVec
	renderDuration   prometheus.Histogram
	sessionsLive     prometheus.Gauge
	sessionsExpired  prometheus.Counter
}

// New registers the instruments with reg
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		samplesGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tendency",
			Name:      "samples_generated_total",
			Help:      "Base samples drawn",
		}),
		injections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tendency",
			Name:      "injections_total",
			Help:      "Working samples derived, by whether outliers were appended",
		}, []string{"outliers"}),
		renders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tendency",
			Name:      "renders_total",
			Help:      "Plot renders by outcome",
		}, []string{"outcome"}),
		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tendency",
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering the three-panel plot",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
		}),
		sessionsLive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tendency",
			Name:      "sessions_live",
			Help:      "Sessions currently held in memory",
		}),
		sessionsExpired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tendency",
			Name:      "sessions_expired_total",
			Help:      "Sessions dropped by the idle sweep",
		}),
	}
}

// SampleGenerated counts one base sample draw
func (c *Collector) SampleGenerated() {
	if c == nil {
		return
	}
	c.samplesGenerated.Inc()
}

// Injected counts one working sample derivation
func (c *Collector) Injected(appended bool) {
	if c == nil {
		return
	}
	label := "none"
	if appended {
		label = "appended"
	}
	c.injections.WithLabelValues(label).Inc()
}

// Rendered records a plot render and its duration
func (c *Collector) Rendered(d time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.renders.WithLabelValues(outcome).Inc()
	c.renderDuration.Observe(d.Seconds())
}

// SessionsLive sets the live session gauge
func (c *Collector) SessionsLive(n int) {
	if c == nil {
		return
	}
	c.sessionsLive.Set(float64(n))
}

// SessionsExpired counts sessions dropped by the sweep
func (c *Collector) SessionsExpired(n int) {
	if c == nil {
		return
	}
	c.sessionsExpired.Add(float64(n))
}
