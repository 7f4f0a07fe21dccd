package prefs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/resilience"
)

// keyPrefix namespaces blobs in a shared backend
const keyPrefix = "nexus-os-settings:"

// Stats contains preference manager statistics
type Stats struct {
	Profiles     int    `json:"profiles"`
	Degraded     int    `json:"degraded"`
	BreakerState string `json:"breaker_state"`
}

// Manager caches one Store per profile over a shared backend
type Manager struct {
	backend Backend
	breaker *resilience.Breaker
	themes  ThemeCatalog
	logger  *logging.Logger

	mu     sync.Mutex
	stores map[string]*Store // Protected by mu
	refs   map[string]int    // Protected by mu
}

// Option configures a Manager
type Option func(*Manager)

// WithBreaker replaces the default storage circuit breaker
func WithBreaker(b *resilience.Breaker) Option {
	return func(m *Manager) { m.breaker = b }
}

// NewManager creates a preference manager. A nil backend keeps every
// profile in memory.
func NewManager(backend Backend, themes ThemeCatalog, logger *logging.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		backend: backend,
		themes:  themes,
		logger:  logger.Component("prefs"),
		stores:  make(map[string]*Store),
		refs:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.breaker == nil {
		log := m.logger
		m.breaker = resilience.New("preferences", resilience.Settings{
			Timeout: 30 * time.Second,
			ReadyToTrip: func(c resilience.Counts) bool {
				return c.ConsecutiveFailures >= 3
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to resilience.State) {
				log.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}
	return m
}

// Store returns the profile's store, loading it on first use
func (m *Manager) Store(ctx context.Context, profileID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(ctx, profileID)
}

// Acquire returns the profile's store and keeps it cached until the
// returned release func is called
func (m *Manager) Acquire(ctx context.Context, profileID string) (*Store, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.store(ctx, profileID)
	m.refs[profileID]++

	var once sync.Once
	return s, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if m.refs[profileID]--; m.refs[profileID] <= 0 {
				delete(m.refs, profileID)
			}
		})
	}
}

// Evict drops cached stores nobody holds and returns how many went. Without
// a backend the cache is the only copy, so nothing is dropped. Degraded
// stores stay until a save succeeds.
func (m *Manager) Evict() int {
	if m.backend == nil {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for pid, s := range m.stores {
		if m.refs[pid] > 0 || s.Degraded() {
			continue
		}
		delete(m.stores, pid)
		evicted++
	}
	if evicted > 0 {
		m.logger.Debug("Evicted idle preference stores", zap.Int("count", evicted))
	}
	return evicted
}

// store must be called with m.mu held
func (m *Manager) store(ctx context.Context, profileID string) *Store {
	if s, ok := m.stores[profileID]; ok {
		return s
	}

	s := &Store{
		key:     keyPrefix + profileID,
		backend: m.backend,
		breaker: m.breaker,
		themes:  m.themes,
		logger:  m.logger.With(zap.String("profile_id", profileID)),
		prefs:   m.load(ctx, profileID),
	}
	m.stores[profileID] = s
	return s
}

func (m *Manager) load(ctx context.Context, profileID string) Preferences {
	defaults := Defaults()
	defaults.normalize(m.themes)
	if m.backend == nil {
		return defaults
	}

	log := m.logger.With(zap.String("profile_id", profileID))
	blob, err := resilience.Do(ctx, m.breaker, func(ctx context.Context) ([]byte, error) {
		blob, err := m.backend.Load(ctx, keyPrefix+profileID)
		if errors.Is(err, ErrNotFound) {
			// A missing profile is not a storage failure
			return nil, nil
		}
		return blob, err
	})
	if err != nil {
		log.Warn("Failed to load preferences, using defaults", zap.Error(err))
		return defaults
	}
	if blob == nil {
		return defaults
	}

	p, version, err := Decode(blob)
	if err != nil {
		log.Warn("Discarding unreadable preferences", zap.Error(err))
		return defaults
	}
	if version != CurrentVersion {
		log.Info("Migrated preferences", zap.Int("from", version), zap.Int("to", CurrentVersion))
	}
	p.normalize(m.themes)
	return p
}

// Stats returns manager statistics
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	stores := make([]*Store, 0, len(m.stores))
	for _, s := range m.stores {
		stores = append(stores, s)
	}
	m.mu.Unlock()

	st := Stats{Profiles: len(stores), BreakerState: m.breaker.State().String()}
	for _, s := range stores {
		if s.Degraded() {
			st.Degraded++
		}
	}
	return st
}
