package types

import "time"

// NotificationKind classifies a notification for display
type NotificationKind string

const (
	NotificationInfo        NotificationKind = "info"
	NotificationSuccess     NotificationKind = "success"
	NotificationError       NotificationKind = "error"
	NotificationAchievement NotificationKind = "achievement"
)

// Valid reports whether k is a known kind
func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationInfo, NotificationSuccess, NotificationError, NotificationAchievement:
		return true
	}
	return false
}

// Notification is a transient message. DurationMs of zero means sticky.
type Notification struct {
	ID         string           `json:"id"`
	Kind       NotificationKind `json:"kind"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	DurationMs int64            `json:"duration_ms"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Sticky reports whether the notification only goes away when dismissed
func (n Notification) Sticky() bool {
	return n.DurationMs == 0
}
