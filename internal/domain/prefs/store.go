package prefs

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/resilience"
)

// Store holds one profile's preferences and persists every mutation
type Store struct {
	key     string
	backend Backend
	breaker *resilience.Breaker
	themes  ThemeCatalog
	logger  *logging.Logger

	mu       sync.Mutex
	prefs    Preferences
	degraded bool
}

// Get returns a copy of the current preferences
func (s *Store) Get() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.Clone()
}

// Degraded reports whether the last persistence attempt failed, meaning
// changes currently live in memory only
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Update applies fn to a copy of the preferences, normalizes the result,
// installs it and persists it. The in-memory value always advances, even
// when persistence fails.
func (s *Store) Update(ctx context.Context, fn func(p *Preferences)) Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.prefs.Clone()
	fn(&next)
	next.normalize(s.themes)
	s.prefs = next

	s.persist(ctx)
	return next.Clone()
}

// Reset restores defaults and persists them
func (s *Store) Reset(ctx context.Context) Preferences {
	return s.Update(ctx, func(p *Preferences) { *p = Defaults() })
}

// persist must be called with s.mu held
func (s *Store) persist(ctx context.Context) {
	if s.backend == nil {
		return
	}

	blob, err := Encode(s.prefs)
	if err != nil {
		s.logger.Error("Failed to encode preferences", zap.Error(err))
		return
	}

	err = s.breaker.Call(ctx, func(ctx context.Context) error {
		return s.backend.Save(ctx, s.key, blob)
	})
	if err != nil {
		if !s.degraded {
			s.logger.Warn("Preference storage unavailable, keeping changes in memory", zap.Error(err))
		}
		s.degraded = true
		return
	}
	if s.degraded {
		s.logger.Info("Preference storage recovered")
	}
	s.degraded = false
}
