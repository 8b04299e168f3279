package session

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"gotendency/domain/sample"
	"gotendency/internal/errors"
	"gotendency/internal/metrics"
	"gotendency/ports"
)

// ManagerConfig holds the limits of the in-memory session table
type ManagerConfig struct {
	TTL         time.Duration
	MaxSessions int
	Seed        uint64
	Defaults    sample.Params
}

// Manager owns every live session. Sessions are independent; the manager only
// guards the table itself.
type Manager struct {
	cfg     ManagerConfig
	rng     ports.RNGPort
	deps    Deps
	metrics *metrics.Collector
	logger  log.Logger
	now     func() time.Time

	created atomic.Uint64

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager
func NewManager(cfg ManagerConfig, rng ports.RNGPort, deps Deps) *Manager {
	logger := deps.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Manager{
		cfg:      cfg,
		rng:      rng,
		deps:     deps,
		metrics:  deps.Metrics,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session with the default controls. The sample is drawn
// before the table lock is taken.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	key := m.streamKey(id)
	rnd, err := m.rng.Stream(ctx, key, "sample", m.cfg.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "open session random stream")
	}

	s, err := New(id, m.cfg.Defaults, rnd, m.deps, m.now())
	if err != nil {
		return nil, errors.Wrap(err, "create session")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		m.sweepLocked(m.now())
		if len(m.sessions) >= m.cfg.MaxSessions {
			return nil, errors.SessionLimit(m.cfg.MaxSessions)
		}
	}

	m.sessions[id] = s
	m.metrics.SessionsLive(len(m.sessions))
	level.Info(m.logger).Log("msg", "session created", "session", id, "stream", key, "live", len(m.sessions))
	return s, nil
}

// streamKey names the random stream of a new session. With a fixed seed the
// nth session of every process gets the same stream, so a run can be replayed
// by restarting with the same SAMPLE_SEED and the same order of visits.
func (m *Manager) streamKey(id string) string {
	if m.cfg.Seed == 0 {
		return id
	}
	return "session-" + strconv.FormatUint(m.created.Add(1), 10)
}

// Get returns a live session and marks it active
func (m *Manager) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.NotFound("session")
	}

	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound("session")
	}
	s.Touch(m.now())
	return s, nil
}

// GetOrCreate returns the session for id, creating a new one if it is unknown
// or expired. The boolean reports whether a session was created.
func (m *Manager) GetOrCreate(ctx context.Context, id string) (*Session, bool, error) {
	if id != "" {
		if s, err := m.Get(id); err == nil {
			return s, false, nil
		}
	}
	s, err := m.Create(ctx)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// Delete drops a session
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	m.metrics.SessionsLive(len(m.sessions))
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many were dropped
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.now())
}

func (m *Manager) sweepLocked(now time.Time) int {
	if m.cfg.TTL <= 0 {
		return 0
	}
	dropped := 0
	for id, s := range m.sessions {
		if now.Sub(s.LastSeen()) > m.cfg.TTL {
			delete(m.sessions, id)
			dropped++
		}
	}
	if dropped > 0 {
		m.metrics.SessionsExpired(dropped)
		m.metrics.SessionsLive(len(m.sessions))
		level.Info(m.logger).Log("msg", "expired sessions dropped", "dropped", dropped, "live", len(m.sessions))
	}
	return dropped
}

// Run sweeps expired sessions every interval until ctx is done
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep()
		}
	}
}
