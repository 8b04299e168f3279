package session

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"gotendency/domain/sample"
	"gotendency/internal/errors"
	"gotendency/internal/metrics"
	"gotendency/internal/sampling"
)

// Session is the state container of one browser session. It owns the base
// sample, the working sample derived from it and the current control values.
// Writes recompute eagerly; reads take a Snapshot.
type Session struct {
	ID string

	mu       sync.Mutex
	params   sample.Params
	base     []float64
	working  []float64
	version  uint64
	rnd      *rand.Rand
	lastSeen time.Time

	generator *sampling.Generator
	injector  *sampling.Injector
	metrics   *metrics.Collector
	logger    log.Logger
}

// Deps are the collaborators a session recomputes with
type Deps struct {
	Generator *sampling.Generator
	Injector  *sampling.Injector
	Metrics   *metrics.Collector
	Logger    log.Logger
}

// New creates a session and draws its first sample from params
func New(id string, params sample.Params, rnd *rand.Rand, deps Deps, now time.Time) (*Session, error) {
	if deps.Generator == nil || deps.Injector == nil {
		return nil, errors.InternalError("session requires a generator and an injector")
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	s := &Session{
		ID:        id,
		params:    params.Clamped(),
		rnd:       rnd,
		lastSeen:  now,
		generator: deps.Generator,
		injector:  deps.Injector,
		metrics:   deps.Metrics,
		logger:    log.With(logger, "session", id),
	}
	if err := s.regenerate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Apply sets every control at once and reruns whatever depends on the values
// that changed: a new sample size redraws the base sample, and a new size,
// outlier count or offset rederives the working sample. Bins and the outlier
// checkbox only affect presentation.
func (s *Session) Apply(p sample.Params) error {
	return s.update(func(dst *sample.Params) error {
		*dst = p
		return nil
	})
}

// Update edits the current controls in place and recomputes like Apply, all
// under the session lock. Values outside the control ranges are rejected and
// leave the session unchanged.
func (s *Session) Update(edit func(*sample.Params)) error {
	return s.update(func(p *sample.Params) error {
		edit(p)
		return p.Validate()
	})
}

// SetSampleSize changes n
func (s *Session) SetSampleSize(n int) error {
	return s.update(func(p *sample.Params) error {
		p.SampleSize = n
		return nil
	})
}

// SetBins changes the histogram bin count
func (s *Session) SetBins(bins int) error {
	return s.update(func(p *sample.Params) error {
		p.Bins = bins
		return nil
	})
}

// SetOutliers changes the outlier count and offset
func (s *Session) SetOutliers(count, offset int) error {
	return s.update(func(p *sample.Params) error {
		p.OutlierCount = count
		p.OutlierOffset = offset
		return nil
	})
}

// SetOutliersEnabled toggles the outlier controls' visibility
func (s *Session) SetOutliersEnabled(enabled bool) error {
	return s.update(func(p *sample.Params) error {
		p.OutliersEnabled = enabled
		return nil
	})
}

func (s *Session) update(mutate func(*sample.Params) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.params
	next := prev
	if err := mutate(&next); err != nil {
		return err
	}
	next = next.Clamped()
	s.params = next

	switch {
	case next.SampleSize != prev.SampleSize:
		return s.regenerate()
	case next.OutlierCount != prev.OutlierCount || next.OutlierOffset != prev.OutlierOffset:
		return s.inject()
	}
	return nil
}

// Reset draws a new base sample with the current controls
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regenerate()
}

// Params returns the current control values
func (s *Session) Params() sample.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Snapshot returns the current samples; callers must treat the slices as read-only
func (s *Session) Snapshot() sample.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sample.Snapshot{
		Params:  s.params,
		Base:    s.base,
		Working: s.working,
		Version: s.version,
	}
}

// Touch records activity at now
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns the time of the last recorded activity
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// regenerate replaces both samples with a fresh draw and then rederives the
// working sample, since the injector also depends on the sample size.
// Caller must hold s.mu.
func (s *Session) regenerate() error {
	base := s.generator.Generate(s.params.SampleSize, s.rnd)
	s.base = base
	s.working = base
	s.metrics.SampleGenerated()
	level.Debug(s.logger).Log("msg", "base sample drawn", "n", s.params.SampleSize, "len", len(base))
	return s.inject()
}

// inject derives the working sample from the untouched base sample.
// Caller must hold s.mu.
func (s *Session) inject() error {
	result, err := s.injector.Inject(s.base, s.params.OutlierCount, s.params.OutlierOffset, s.rnd)
	if err != nil {
		level.Error(s.logger).Log("msg", "outlier injection failed", "err", err)
		return errors.Wrap(err, "derive working sample")
	}
	s.working = result.Working
	s.version++
	s.metrics.Injected(result.Appended > 0)
	level.Debug(s.logger).Log("msg", "working sample derived", "appended", result.Appended, "len", len(result.Working))
	return nil
}
