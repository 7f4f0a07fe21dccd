package achievement

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/prefs"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/scheduler"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/types"
)

// UnlockTitle is the title of every unlock notification
const UnlockTitle = "🏆 Achievement Unlocked!"

// unlockDurationMs is how long an unlock notification stays up
const unlockDurationMs = 5000

// Store is the preference store progress persists through
type Store interface {
	Get() prefs.Preferences
	Update(ctx context.Context, fn func(p *prefs.Preferences)) prefs.Preferences
}

// Notifier receives unlock notifications
type Notifier interface {
	Push(n types.Notification) (types.Notification, error)
}

// Options configures a Tracker
type Options struct {
	Clock    scheduler.Clock
	Location *time.Location
	// OnUnlock is called once per newly unlocked badge, after its
	// notification was pushed
	OnUnlock func(def Definition)
	Logger   *logging.Logger
}

// Status is a badge with its unlock state and progress
type Status struct {
	Definition
	Unlocked bool `json:"unlocked"`
	Progress int  `json:"progress"`
}

// Tracker evaluates badge rules for one profile
type Tracker struct {
	store    Store
	notifier Notifier
	clock    scheduler.Clock
	loc      *time.Location
	onUnlock func(Definition)
	logger   *logging.Logger
}

// NewTracker creates a tracker over a preference store
func NewTracker(store Store, notifier Notifier, opts Options) *Tracker {
	if opts.Clock == nil {
		opts.Clock = scheduler.Real()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Tracker{
		store:    store,
		notifier: notifier,
		clock:    opts.Clock,
		loc:      opts.Location,
		onUnlock: opts.OnUnlock,
		logger:   opts.Logger.Component("achievement"),
	}
}

// RecordEvent updates progress, unlocks every newly satisfied badge and
// returns those badges
func (t *Tracker) RecordEvent(ctx context.Context, ev Event) []Definition {
	if ev.At.IsZero() {
		ev.At = t.clock.Now()
	}

	var unlocked []Definition
	t.store.Update(ctx, func(p *prefs.Preferences) {
		apply(&p.Progress, ev)
		for _, r := range rules {
			if p.HasAchievement(r.def.ID) || !r.met(p.Progress, ev, t.loc) {
				continue
			}
			p.Achievements = append(p.Achievements, r.def.ID)
			unlocked = append(unlocked, r.def)
		}
	})

	for _, def := range unlocked {
		t.logger.Info("Achievement unlocked", zap.String("achievement", def.ID))
		_, err := t.notifier.Push(types.Notification{
			Kind:       types.NotificationAchievement,
			Title:      UnlockTitle,
			Message:    fmt.Sprintf("%s %s", def.Icon, def.Name),
			DurationMs: unlockDurationMs,
		})
		if err != nil {
			t.logger.Warn("Failed to push unlock notification", zap.String("achievement", def.ID), zap.Error(err))
		}
		if t.onUnlock != nil {
			t.onUnlock(def)
		}
	}
	return unlocked
}

// Statuses returns every badge with its unlock state and progress
func (t *Tracker) Statuses() []Status {
	p := t.store.Get()
	out := make([]Status, len(rules))
	for i, r := range rules {
		s := Status{Definition: r.def, Unlocked: p.HasAchievement(r.def.ID)}
		switch {
		case s.Unlocked:
			s.Progress = r.def.Requirement
		case r.progress != nil:
			s.Progress = min(r.progress(p.Progress), r.def.Requirement)
		}
		out[i] = s
	}
	return out
}

// Unlocked returns the unlocked badge ids in unlock order
func (t *Tracker) Unlocked() []string {
	return t.store.Get().Achievements
}
