package desktop

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/achievement"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/registry"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/types"
)

// baseZ is the stacking value of the least recently focused window
const baseZ = 10

// Registry resolves application ids
type Registry interface {
	Resolve(appID string) (registry.Entry, error)
	Dock() []string
}

// Tracker records launches for achievements
type Tracker interface {
	RecordEvent(ctx context.Context, ev achievement.Event) []achievement.Definition
}

// Listener observes window changes and cues. It is called without the
// manager lock held.
type Listener interface {
	WindowChanged(event types.EventType, w types.Window)
	CuePlayed(cue types.Cue)
}

type window struct {
	entry     registry.Entry
	payload   map[string]any
	maximized bool
	minimized bool
}

type emission struct {
	event  types.EventType
	window types.Window
	cue    types.Cue
}

// Manager orchestrates window lifecycle
type Manager struct {
	mu        sync.RWMutex
	windows   []*window // Protected by mu, creation order
	focusedID string    // Protected by mu
	history   []string  // Protected by mu, least recent focus first

	registry Registry
	tracker  Tracker
	listener Listener
	metrics  *monitoring.Metrics
}

// NewManager creates an empty window manager
func NewManager(reg Registry, tracker Tracker, listener Listener) *Manager {
	return &Manager{
		registry: reg,
		tracker:  tracker,
		listener: listener,
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Launch opens appID. A new window is created focused; an existing one is
// restored if minimized and focused. The payload only applies to new windows.
func (m *Manager) Launch(ctx context.Context, appID string, payload map[string]any) (types.Window, error) {
	entry, err := m.registry.Resolve(appID)
	if err != nil {
		return types.Window{}, err
	}

	m.mu.Lock()
	var out []emission
	w, _ := m.find(appID)
	switch {
	case w == nil:
		w = &window{entry: entry, payload: clonePayload(payload)}
		m.windows = append(m.windows, w)
		m.focus(appID)
		out = append(out, m.windowEmission(types.EventWindowLaunched, w))
		m.metrics.RecordWindowOpened(appID)
	case w.minimized:
		w.minimized = false
		m.focus(appID)
		out = append(out, m.windowEmission(types.EventWindowRestored, w))
	default:
		m.focus(appID)
		out = append(out, m.windowEmission(types.EventWindowFocused, w))
	}
	out = append(out, emission{cue: types.CueClick}, emission{cue: types.CueGlitch})
	result := m.project(w)
	m.mu.Unlock()

	m.emit(out)
	if m.tracker != nil {
		m.tracker.RecordEvent(ctx, achievement.Event{Kind: achievement.EventAppOpen, AppID: appID})
	}
	return result, nil
}

// Close removes a window. Reports false for unknown ids.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	w, idx := m.find(id)
	if w == nil {
		m.mu.Unlock()
		return false
	}

	out := []emission{m.windowEmission(types.EventWindowClosed, w)}
	m.windows = append(m.windows[:idx], m.windows[idx+1:]...)
	m.history = remove(m.history, id)
	if m.focusedID == id {
		m.focusedID = ""
		out = append(out, m.refocus()...)
	}
	out = append(out, emission{cue: types.CueClick})
	m.metrics.RecordWindowsClosed(1)
	m.mu.Unlock()

	m.emit(out)
	return true
}

// ToggleMaximize flips the maximized flag. Focus is untouched.
func (m *Manager) ToggleMaximize(id string) bool {
	m.mu.Lock()
	w, _ := m.find(id)
	if w == nil {
		m.mu.Unlock()
		return false
	}
	w.maximized = !w.maximized
	out := []emission{m.windowEmission(types.EventWindowMaximized, w)}
	m.mu.Unlock()

	m.emit(out)
	return true
}

// Minimize hides a window. When it held focus, focus moves to the first
// remaining visible window in creation order.
func (m *Manager) Minimize(id string) bool {
	m.mu.Lock()
	w, _ := m.find(id)
	if w == nil {
		m.mu.Unlock()
		return false
	}
	w.minimized = true
	if m.focusedID == id {
		m.focusedID = ""
	}
	out := []emission{m.windowEmission(types.EventWindowMinimized, w)}
	if m.focusedID == "" {
		out = append(out, m.refocus()...)
	}
	out = append(out, emission{cue: types.CueSlide})
	m.mu.Unlock()

	m.emit(out)
	return true
}

// Focus brings a visible window to the front. Unknown and minimized
// windows are ignored.
func (m *Manager) Focus(id string) bool {
	m.mu.Lock()
	w, _ := m.find(id)
	if w == nil || w.minimized {
		m.mu.Unlock()
		return false
	}
	m.focus(id)
	out := []emission{m.windowEmission(types.EventWindowFocused, w)}
	m.mu.Unlock()

	m.emit(out)
	return true
}

// CycleFocus moves focus to the next visible window in creation order,
// wrapping around. Returns the newly focused id.
func (m *Manager) CycleFocus() (string, bool) {
	m.mu.Lock()
	visible := make([]*window, 0, len(m.windows))
	current := -1
	for _, w := range m.windows {
		if w.minimized {
			continue
		}
		if w.entry.ID == m.focusedID {
			current = len(visible)
		}
		visible = append(visible, w)
	}
	if len(visible) == 0 {
		m.mu.Unlock()
		return "", false
	}

	next := visible[(current+1)%len(visible)]
	m.focus(next.entry.ID)
	out := []emission{m.windowEmission(types.EventWindowFocused, next), {cue: types.CueClick}}
	m.mu.Unlock()

	m.emit(out)
	return next.entry.ID, true
}

// CloseAll removes every window without notifying the listener
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.RecordWindowsClosed(len(m.windows))
	m.windows = nil
	m.history = nil
	m.focusedID = ""
}

// Focused returns the focused window id, empty when none
func (m *Manager) Focused() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.focusedID
}

// Window returns one window projection
func (m *Manager) Window(id string) (types.Window, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, _ := m.find(id)
	if w == nil {
		return types.Window{}, false
	}
	return m.project(w), true
}

// View mounts the window's component
func (m *Manager) View(id string) (registry.View, bool) {
	m.mu.RLock()
	w, _ := m.find(id)
	m.mu.RUnlock()

	if w == nil || w.entry.Component == nil {
		return registry.View{}, false
	}
	return w.entry.Component.Mount(registry.MountContext{AppID: id, Payload: clonePayload(w.payload)}), true
}

// Windows returns the render list: visible windows, bottom to top
func (m *Manager) Windows() []types.Window {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.Window, 0, len(m.windows))
	for _, id := range m.history {
		if w, _ := m.find(id); w != nil && !w.minimized {
			out = append(out, m.project(w))
		}
	}
	return out
}

// Taskbar returns every open window in creation order
func (m *Manager) Taskbar() []types.TaskbarItem {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.TaskbarItem, len(m.windows))
	for i, w := range m.windows {
		out[i] = types.TaskbarItem{
			ID:        w.entry.ID,
			Title:     w.entry.Title,
			Icon:      w.entry.Icon,
			Minimized: w.minimized,
			Focused:   w.entry.ID == m.focusedID,
		}
	}
	return out
}

// Dock returns the configured dock slots with their running state
func (m *Manager) Dock() []types.DockItem {
	ids := m.registry.Dock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.DockItem, 0, len(ids))
	for _, id := range ids {
		entry, err := m.registry.Resolve(id)
		if err != nil {
			continue
		}
		w, _ := m.find(id)
		out = append(out, types.DockItem{
			AppID:   id,
			Title:   entry.Title,
			Icon:    entry.Icon,
			Running: w != nil,
		})
	}
	return out
}

// Stats returns manager statistics
func (m *Manager) Stats() types.DesktopStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := types.DesktopStats{TotalWindows: len(m.windows)}
	for _, w := range m.windows {
		if w.minimized {
			stats.MinimizedWindows++
		} else {
			stats.VisibleWindows++
		}
	}
	if m.focusedID != "" {
		id := m.focusedID
		stats.FocusedID = &id
	}
	return stats
}

// find must be called with m.mu held
func (m *Manager) find(id string) (*window, int) {
	for i, w := range m.windows {
		if w.entry.ID == id {
			return w, i
		}
	}
	return nil, -1
}

// focus must be called with m.mu held
func (m *Manager) focus(id string) {
	m.focusedID = id
	m.history = append(remove(m.history, id), id)
}

// refocus picks the first visible window in creation order. Must be called
// with m.mu held.
func (m *Manager) refocus() []emission {
	for _, w := range m.windows {
		if !w.minimized {
			m.focus(w.entry.ID)
			return []emission{m.windowEmission(types.EventWindowFocused, w)}
		}
	}
	return nil
}

// project must be called with m.mu held
func (m *Manager) project(w *window) types.Window {
	z := baseZ
	for i, id := range m.history {
		if id == w.entry.ID {
			z = baseZ + i
			break
		}
	}
	return types.Window{
		ID:        w.entry.ID,
		Title:     w.entry.Title,
		Icon:      w.entry.Icon,
		Payload:   clonePayload(w.payload),
		Maximized: w.maximized,
		Minimized: w.minimized,
		Focused:   w.entry.ID == m.focusedID,
		Z:         z,
	}
}

func (m *Manager) windowEmission(event types.EventType, w *window) emission {
	return emission{event: event, window: m.project(w)}
}

func (m *Manager) emit(out []emission) {
	if m.listener == nil {
		return
	}
	for _, e := range out {
		if e.cue != "" {
			m.listener.CuePlayed(e.cue)
			continue
		}
		m.listener.WindowChanged(e.event, e.window)
	}
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func clonePayload(p map[string]any) map[string]any {
	if p == nil {
		return nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
