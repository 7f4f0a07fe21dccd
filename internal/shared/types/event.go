package types

import "time"

// EventType names a frame on the session event stream
type EventType string

const (
	EventStageChanged          EventType = "stage.changed"
	EventWindowLaunched        EventType = "window.launched"
	EventWindowRestored        EventType = "window.restored"
	EventWindowFocused         EventType = "window.focused"
	EventWindowClosed          EventType = "window.closed"
	EventWindowMinimized       EventType = "window.minimized"
	EventWindowMaximized       EventType = "window.maximized"
	EventCue                   EventType = "cue"
	EventNotificationAdded     EventType = "notification.added"
	EventNotificationDismissed EventType = "notification.dismissed"
	EventAchievementUnlocked   EventType = "achievement.unlocked"
	EventOverlayChanged        EventType = "overlay.changed"
	EventSnapshot              EventType = "session.snapshot"
	EventSessionEnded          EventType = "session.ended"
	EventError                 EventType = "error"
	EventPong                  EventType = "pong"
)

// Cue names a sound or visual effect the client should play
type Cue string

const (
	CueClick  Cue = "click"
	CueGlitch Cue = "glitch"
	CueSlide  Cue = "slide"
)

// Event is one frame published to stream subscribers
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Data      any       `json:"data,omitempty"`
	At        time.Time `json:"at"`
}
