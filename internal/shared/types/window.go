package types

// Window is the render projection of one open application window
type Window struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Icon      string         `json:"icon"`
	Payload   map[string]any `json:"payload,omitempty"`
	Maximized bool           `json:"maximized"`
	Minimized bool           `json:"minimized"`
	Focused   bool           `json:"focused"`
	Z         int            `json:"z"`
}

// TaskbarItem is one taskbar button, in window collection order
type TaskbarItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Icon      string `json:"icon"`
	Minimized bool   `json:"minimized"`
	Focused   bool   `json:"focused"`
}

// DockItem is one configured dock slot
type DockItem struct {
	AppID   string `json:"app_id"`
	Title   string `json:"title"`
	Icon    string `json:"icon"`
	Running bool   `json:"running"`
}

// DesktopStats contains window manager statistics
type DesktopStats struct {
	TotalWindows     int     `json:"total_windows"`
	VisibleWindows   int     `json:"visible_windows"`
	MinimizedWindows int     `json:"minimized_windows"`
	FocusedID        *string `json:"focused_id,omitempty"`
}
