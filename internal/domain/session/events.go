package session

import (
	"context"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/achievement"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/boot"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/scheduler"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/types"
)

// sink turns component callbacks into stream events. It never takes the
// session lock.
type sink struct {
	session *Session
	publish func(types.Event)
	clock   scheduler.Clock
	metrics *monitoring.Metrics
}

func (k *sink) emit(t types.EventType, data any) {
	if k.publish == nil {
		return
	}
	k.publish(types.Event{
		Type:      t,
		SessionID: k.session.id,
		Data:      data,
		At:        k.clock.Now(),
	})
}

func (k *sink) StageChanged(from, to boot.Stage) {
	k.metrics.RecordBootTransition(string(from), string(to))
	k.emit(types.EventStageChanged, map[string]any{"from": from, "to": to})
	if to == boot.StageDesktop {
		k.session.tracker.RecordEvent(context.Background(), achievement.Event{Kind: achievement.EventDesktopReady})
	}
}

func (k *sink) WindowChanged(event types.EventType, w types.Window) {
	k.emit(event, w)
}

func (k *sink) CuePlayed(cue types.Cue) {
	k.emit(types.EventCue, map[string]any{"cue": cue})
}

func (k *sink) NotificationAdded(n types.Notification) {
	k.metrics.RecordNotification(string(n.Kind))
	k.emit(types.EventNotificationAdded, n)
}

func (k *sink) NotificationDismissed(id string, expired bool) {
	k.emit(types.EventNotificationDismissed, map[string]any{"id": id, "expired": expired})
}

func (k *sink) achievementUnlocked(def achievement.Definition) {
	k.metrics.RecordAchievement(def.ID)
	k.emit(types.EventAchievementUnlocked, def)
}
