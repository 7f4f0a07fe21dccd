package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/palette"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/prefs"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/registry"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/vfs"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/scheduler"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/id"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/types"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/utils"
)

// ErrSessionLimit is returned when the hub is full
var ErrSessionLimit = errors.New("session limit reached")

// DefaultSubscriberBuffer is the per-subscriber event backlog
const DefaultSubscriberBuffer = 64

// minSweepInterval bounds how often idle sessions are swept
const minSweepInterval = time.Second

// Deps are the shared services every session is built from
type Deps struct {
	Registry *registry.Manager
	FS       *vfs.FS
	Palette  *palette.Palette
	Prefs    *prefs.Manager
	Clock    scheduler.Clock
	// Location decides local time for time-of-day achievements
	Location         *time.Location
	BIOSDuration     time.Duration
	NotifyDuration   time.Duration
	MaxNotifications int
	MaxSessions      int
	SubscriberBuffer int
	// IdleTTL deletes sessions nobody has looked up or streamed for this
	// long. Zero keeps them until deleted.
	IdleTTL time.Duration
	Metrics          *monitoring.Metrics
	Logger           *logging.Logger
}

// Stats contains hub statistics
type Stats struct {
	Sessions    int         `json:"sessions"`
	Subscribers int         `json:"subscribers"`
	Dropped     int64       `json:"dropped_events"`
	Reaped      int64       `json:"reaped_sessions"`
	Preferences prefs.Stats `json:"preferences"`
}

// Manager owns every live session
type Manager struct {
	deps     Deps
	logger   *logging.Logger
	sessions sync.Map // id -> *Session
	count    atomic.Int64
	dropped  atomic.Int64
	reaped   atomic.Int64
	reaper   *scheduler.Group

	subsMu sync.RWMutex
	subs   map[string]map[*Subscription]struct{} // Protected by subsMu
}

// NewManager creates an empty hub
func NewManager(deps Deps) *Manager {
	if deps.Clock == nil {
		deps.Clock = scheduler.Real()
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if deps.Prefs == nil {
		deps.Prefs = prefs.NewManager(nil, nil, deps.Logger)
	}
	if deps.Palette == nil && deps.Registry != nil {
		deps.Palette = palette.New(deps.Registry)
	}
	if deps.SubscriberBuffer <= 0 {
		deps.SubscriberBuffer = DefaultSubscriberBuffer
	}
	m := &Manager{
		deps:   deps,
		logger: deps.Logger.Component("session"),
		reaper: scheduler.NewGroup(deps.Clock),
		subs:   make(map[string]map[*Subscription]struct{}),
	}
	if deps.IdleTTL > 0 {
		m.scheduleSweep()
	}
	return m
}

// Create starts a session for a profile
func (m *Manager) Create(ctx context.Context, profileID string) (*Session, error) {
	timer := monitoring.NewTimer(m.deps.Metrics, "session", "create")

	if err := utils.ValidateID(profileID, "profile_id", true); err != nil {
		timer.Stop("invalid")
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	count, ok := m.reserve()
	if !ok {
		timer.Stop("limited")
		return nil, fmt.Errorf("%w: %d", ErrSessionLimit, m.deps.MaxSessions)
	}

	sid := id.NewSessionID().String()
	s := newSession(ctx, sid, profileID, &m.deps, m.publish)
	m.sessions.Store(sid, s)

	m.deps.Metrics.IncSessionsCreated()
	m.deps.Metrics.SetSessionsActive(int(count))
	m.logger.Info("Session created",
		zap.String("session_id", sid),
		zap.String("profile_id", profileID),
		zap.String("stage", string(s.Stage())))
	timer.Stop("success")
	return s, nil
}

// reserve claims a session slot, returning the new count
func (m *Manager) reserve() (int64, bool) {
	limit := int64(m.deps.MaxSessions)
	for {
		n := m.count.Load()
		if limit > 0 && n >= limit {
			return n, false
		}
		if m.count.CompareAndSwap(n, n+1) {
			return n + 1, true
		}
	}
}

// Get returns a live session and marks it active
func (m *Manager) Get(sid string) (*Session, error) {
	v, ok := m.sessions.Load(sid)
	if !ok {
		return nil, fmt.Errorf("%s: %w", sid, ErrSessionNotFound)
	}
	s := v.(*Session)
	s.touch(m.deps.Clock.Now())
	return s, nil
}

// Delete tears a session down and ends its subscriptions
func (m *Manager) Delete(sid string) error {
	v, ok := m.sessions.LoadAndDelete(sid)
	if !ok {
		return fmt.Errorf("%s: %w", sid, ErrSessionNotFound)
	}
	v.(*Session).Close()
	count := m.count.Add(-1)

	m.subsMu.Lock()
	subs := m.subs[sid]
	delete(m.subs, sid)
	m.subsMu.Unlock()
	for sub := range subs {
		sub.closeChannel()
	}

	m.deps.Metrics.SetSessionsActive(int(count))
	m.logger.Info("Session deleted", zap.String("session_id", sid))
	return nil
}

// List returns every live session, oldest first
func (m *Manager) List() []Summary {
	var out []Summary
	m.sessions.Range(func(_, v any) bool {
		out = append(out, v.(*Session).Summary())
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	return int(m.count.Load())
}

// Stats returns hub statistics
func (m *Manager) Stats() Stats {
	m.subsMu.RLock()
	subscribers := 0
	for _, subs := range m.subs {
		subscribers += len(subs)
	}
	m.subsMu.RUnlock()

	return Stats{
		Sessions:    m.Count(),
		Subscribers: subscribers,
		Dropped:     m.dropped.Load(),
		Reaped:      m.reaped.Load(),
		Preferences: m.deps.Prefs.Stats(),
	}
}

// Preferences returns the preference manager sessions share
func (m *Manager) Preferences() *prefs.Manager {
	return m.deps.Prefs
}

// Reap deletes sessions idle for at least IdleTTL that have no stream
// attached, then drops preference stores no session holds. It returns the
// number of sessions deleted.
func (m *Manager) Reap() int {
	ttl := m.deps.IdleTTL
	if ttl <= 0 {
		return 0
	}
	now := m.deps.Clock.Now()

	var idle []string
	m.sessions.Range(func(k, v any) bool {
		sid := k.(string)
		if now.Sub(v.(*Session).LastActive()) >= ttl && !m.streaming(sid) {
			idle = append(idle, sid)
		}
		return true
	})

	reaped := 0
	for _, sid := range idle {
		if err := m.Delete(sid); err == nil {
			reaped++
		}
	}
	if reaped > 0 {
		m.reaped.Add(int64(reaped))
		m.logger.Info("Reaped idle sessions", zap.Int("count", reaped), zap.Duration("idle_ttl", ttl))
	}
	m.deps.Prefs.Evict()
	return reaped
}

func (m *Manager) scheduleSweep() {
	interval := max(m.deps.IdleTTL/2, minSweepInterval)
	m.reaper.After(interval, func() {
		m.Reap()
		m.scheduleSweep()
	})
}

func (m *Manager) streaming(sid string) bool {
	m.subsMu.RLock()
	defer m.subsMu.RUnlock()
	return len(m.subs[sid]) > 0
}

// Close stops the idle sweep and tears down every session
func (m *Manager) Close() {
	m.reaper.Close()

	var ids []string
	m.sessions.Range(func(k, _ any) bool {
		ids = append(ids, k.(string))
		return true
	})
	for _, sid := range ids {
		_ = m.Delete(sid)
	}
}

// Subscribe streams a session's events. Slow subscribers lose events rather
// than stall the session.
func (m *Manager) Subscribe(sid string) (*Subscription, error) {
	if _, err := m.Get(sid); err != nil {
		return nil, err
	}

	sub := &Subscription{
		mgr:       m,
		sessionID: sid,
		ch:        make(chan types.Event, m.deps.SubscriberBuffer),
	}

	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	// The session may have been deleted since the lookup
	if _, ok := m.sessions.Load(sid); !ok {
		return nil, fmt.Errorf("%s: %w", sid, ErrSessionNotFound)
	}
	if m.subs[sid] == nil {
		m.subs[sid] = make(map[*Subscription]struct{})
	}
	m.subs[sid][sub] = struct{}{}
	return sub, nil
}

func (m *Manager) publish(ev types.Event) {
	m.subsMu.RLock()
	defer m.subsMu.RUnlock()

	for sub := range m.subs[ev.SessionID] {
		select {
		case sub.ch <- ev:
		default:
			m.dropped.Add(1)
			sub.dropped.Add(1)
		}
	}
}

// Subscription is one event stream consumer
type Subscription struct {
	mgr       *Manager
	sessionID string
	ch        chan types.Event
	once      sync.Once
	dropped   atomic.Int64
}

// Events returns the event channel. It is closed when the subscription is
// cancelled or the session is deleted.
func (s *Subscription) Events() <-chan types.Event {
	return s.ch
}

// Dropped returns the number of events lost to a full buffer
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Cancel ends the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.mgr.subsMu.Lock()
	if subs, ok := s.mgr.subs[s.sessionID]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.mgr.subs, s.sessionID)
		}
	}
	s.mgr.subsMu.Unlock()
	s.closeChannel()
}

// closeChannel must only be called once the subscription is unreachable
// from the publish path
func (s *Subscription) closeChannel() {
	s.once.Do(func() { close(s.ch) })
}
