package types

// CreateSessionRequest starts a desktop session for a profile
type CreateSessionRequest struct {
	ProfileID string `json:"profile_id"`
}

// LaunchRequest opens or focuses an application window
type LaunchRequest struct {
	AppID   string         `json:"app_id" binding:"required"`
	Payload map[string]any `json:"payload,omitempty"`
}

// ChooseRequest picks a bootloader destination
type ChooseRequest struct {
	Destination string `json:"destination" binding:"required"`
}

// KeyRequest is one keyboard event
type KeyRequest struct {
	Key   string `json:"key" binding:"required"`
	Ctrl  bool   `json:"ctrl"`
	Meta  bool   `json:"meta"`
	Alt   bool   `json:"alt"`
	Shift bool   `json:"shift"`
}

// SelectRequest picks a command palette entry
type SelectRequest struct {
	AppID string `json:"app_id" binding:"required"`
}

// OverlayRequest opens or closes an overlay
type OverlayRequest struct {
	Open bool `json:"open"`
}

// OpenFileRequest opens a virtual file system path
type OpenFileRequest struct {
	Path string `json:"path" binding:"required"`
}

// CommandRequest is one terminal input line
type CommandRequest struct {
	Command string `json:"command"`
}

// NotifyRequest enqueues a notification. A nil duration uses the default.
type NotifyRequest struct {
	Kind       NotificationKind `json:"kind"`
	Title      string           `json:"title" binding:"required"`
	Message    string           `json:"message"`
	DurationMs *int64           `json:"duration_ms,omitempty"`
}

// ActivityRequest reports an in-app activity such as a game score
type ActivityRequest struct {
	Kind  string `json:"kind" binding:"required"`
	AppID string `json:"app_id,omitempty"`
	Value int    `json:"value"`
}

// WSMessage represents a client WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}
