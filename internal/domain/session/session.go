package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/achievement"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/boot"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/desktop"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/notify"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/palette"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/prefs"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/registry"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/shell"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/vfs"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/types"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/utils"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotOnDesktop    = errors.New("desktop is not active")
	ErrUnknownOverlay  = errors.New("unknown overlay")
	ErrUnknownActivity = errors.New("unknown activity")
	ErrSessionClosed   = errors.New("session closed")
	ErrInvalidRequest  = errors.New("invalid request")
)

// Overlay names a desktop-wide panel
type Overlay string

const (
	OverlayPalette      Overlay = "palette"
	OverlayAchievements Overlay = "achievements"
)

// Snapshot is the full client-visible state of a session
type Snapshot struct {
	ID            string                   `json:"id"`
	ProfileID     string                   `json:"profile_id"`
	CreatedAt     time.Time                `json:"created_at"`
	Stage         boot.Stage               `json:"stage"`
	BootProgress  int                      `json:"boot_progress"`
	Windows       []types.Window           `json:"windows"`
	Taskbar       []types.TaskbarItem      `json:"taskbar"`
	Dock          []types.DockItem         `json:"dock"`
	DesktopIcons  []types.DockItem         `json:"desktop_icons"`
	FocusedID     string                   `json:"focused_id,omitempty"`
	Overlays      map[Overlay]bool         `json:"overlays"`
	Notifications []types.Notification     `json:"notifications"`
	Preferences   prefs.Preferences        `json:"preferences"`
	Degraded      bool                     `json:"degraded"`
	Cwd           string                   `json:"cwd"`
	Stats         types.DesktopStats       `json:"stats"`
	Views         map[string]registry.View `json:"views,omitempty"`
}

// Summary is one row of the session listing
type Summary struct {
	ID         string     `json:"id"`
	ProfileID  string     `json:"profile_id"`
	Stage      boot.Stage `json:"stage"`
	Windows    int        `json:"windows"`
	CreatedAt  time.Time  `json:"created_at"`
	LastActive time.Time  `json:"last_active"`
}

// Session is one visitor's desktop
type Session struct {
	id        string
	profileID string
	createdAt time.Time
	deps      *Deps
	logger    *logging.Logger

	store         *prefs.Store
	release       func()
	boot          *boot.Controller
	desktop       *desktop.Manager
	notifications *notify.Queue
	tracker       *achievement.Tracker
	shell         *shell.Shell
	sink          *sink

	lastActive atomic.Int64 // unix nanoseconds

	mu       sync.Mutex
	overlays map[Overlay]bool // Protected by mu
	closed   bool             // Protected by mu
}

func newSession(ctx context.Context, sid, profileID string, deps *Deps, publish func(types.Event)) *Session {
	s := &Session{
		id:        sid,
		profileID: profileID,
		createdAt: deps.Clock.Now(),
		deps:      deps,
		logger:    deps.Logger.ForSession(sid, profileID),
		overlays:  map[Overlay]bool{OverlayPalette: false, OverlayAchievements: false},
	}
	s.store, s.release = deps.Prefs.Acquire(ctx, profileID)
	s.lastActive.Store(s.createdAt.UnixNano())
	s.sink = &sink{session: s, publish: publish, clock: deps.Clock, metrics: deps.Metrics}

	s.notifications = notify.NewQueue(notify.Options{
		Clock:           deps.Clock,
		DefaultDuration: deps.NotifyDuration,
		MaxQueued:       deps.MaxNotifications,
		Listener:        s.sink,
	})
	s.tracker = achievement.NewTracker(s.store, s.notifications, achievement.Options{
		Clock:    deps.Clock,
		Location: deps.Location,
		OnUnlock: s.sink.achievementUnlocked,
		Logger:   s.logger,
	})
	s.desktop = desktop.NewManager(deps.Registry, s.tracker, s.sink).WithMetrics(deps.Metrics)
	s.shell = shell.New(deps.FS, s.desktop, s.tracker, shell.Options{Metrics: deps.Metrics})
	s.boot = boot.NewController(s.store, boot.Options{
		Clock:        deps.Clock,
		BIOSDuration: deps.BIOSDuration,
		Listener:     s.sink,
		Logger:       s.logger,
	})

	s.tracker.RecordEvent(ctx, achievement.Event{Kind: achievement.EventVisit})
	if s.boot.Stage() == boot.StageDesktop {
		s.tracker.RecordEvent(ctx, achievement.Event{Kind: achievement.EventDesktopReady})
	}
	return s
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// LastActive returns when the session was last looked up
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastActive.Store(now.UnixNano())
}

// ProfileID returns the preference profile the session belongs to
func (s *Session) ProfileID() string { return s.profileID }

// Stage returns the boot stage
func (s *Session) Stage() boot.Stage { return s.boot.Stage() }

// Power switches the machine on
func (s *Session) Power() error {
	return s.locked(func() error { return s.boot.Power() })
}

// Skip jumps straight to the desktop
func (s *Session) Skip(ctx context.Context) error {
	return s.locked(func() error { return s.boot.Skip(ctx) })
}

// Choose leaves the bootloader for a destination
func (s *Session) Choose(dest boot.Stage) error {
	return s.locked(func() error { return s.boot.Choose(dest) })
}

// Exit returns from an alternate experience to the bootloader
func (s *Session) Exit() error {
	return s.locked(func() error { return s.boot.Exit() })
}

// Launch opens or focuses an application
func (s *Session) Launch(ctx context.Context, appID string, payload map[string]any) (types.Window, error) {
	if err := utils.ValidateAppID(appID); err != nil {
		return types.Window{}, fmt.Errorf("%w: %v", registry.ErrUnknownApplication, err)
	}
	var w types.Window
	err := s.onDesktop(func() error {
		var err error
		w, err = s.desktop.Launch(ctx, appID, payload)
		return err
	})
	return w, err
}

// CloseWindow closes a window. Reports false for unknown ids.
func (s *Session) CloseWindow(id string) (bool, error) {
	return s.windowOp(func() bool { return s.desktop.Close(id) })
}

// FocusWindow focuses a visible window
func (s *Session) FocusWindow(id string) (bool, error) {
	return s.windowOp(func() bool { return s.desktop.Focus(id) })
}

// MinimizeWindow minimizes a window
func (s *Session) MinimizeWindow(id string) (bool, error) {
	return s.windowOp(func() bool { return s.desktop.Minimize(id) })
}

// ToggleMaximize flips a window's maximized state
func (s *Session) ToggleMaximize(id string) (bool, error) {
	return s.windowOp(func() bool { return s.desktop.ToggleMaximize(id) })
}

// SetOverlay opens or closes an overlay
func (s *Session) SetOverlay(name Overlay, open bool) error {
	return s.onDesktop(func() error {
		if _, ok := s.overlays[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownOverlay, name)
		}
		s.setOverlay(name, open)
		return nil
	})
}

// SearchPalette queries the command palette
func (s *Session) SearchPalette(query string) ([]palette.Item, error) {
	var items []palette.Item
	err := s.onDesktop(func() error {
		items = s.deps.Palette.Search(query, s.store.Get().PaletteHistory)
		return nil
	})
	return items, err
}

// SelectPalette launches a palette entry, records it and closes the palette
func (s *Session) SelectPalette(ctx context.Context, appID string) (types.Window, error) {
	var w types.Window
	err := s.onDesktop(func() error {
		var err error
		w, err = s.deps.Palette.Select(ctx, appID, s.store, s.desktop)
		if err != nil {
			return err
		}
		s.setOverlay(OverlayPalette, false)
		return nil
	})
	return w, err
}

// OpenFile launches the application associated with a file
func (s *Session) OpenFile(ctx context.Context, path string) (types.Window, error) {
	if err := utils.ValidatePath(path); err != nil {
		return types.Window{}, fmt.Errorf("%w: %v", vfs.ErrNotFound, err)
	}
	var w types.Window
	err := s.onDesktop(func() error {
		appID, err := s.deps.FS.Open(path)
		if err != nil {
			return err
		}
		w, err = s.desktop.Launch(ctx, appID, map[string]any{"file": path})
		return err
	})
	return w, err
}

// Execute runs one terminal command
func (s *Session) Execute(ctx context.Context, command string) (shell.Result, error) {
	var res shell.Result
	err := s.onDesktop(func() error {
		var err error
		res, err = s.shell.Execute(ctx, command)
		return err
	})
	return res, err
}

// Scrollback returns the terminal scrollback
func (s *Session) Scrollback() []shell.Line {
	return s.shell.Scrollback()
}

// Notify pushes a notification. A nil duration takes the default.
func (s *Session) Notify(req types.NotifyRequest) (types.Notification, error) {
	if err := utils.ValidateNotification(req.Title, req.Message); err != nil {
		return types.Notification{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	duration := notify.UseDefaultDuration
	if req.DurationMs != nil {
		duration = max(*req.DurationMs, 0)
	}
	return s.notifications.Push(types.Notification{
		Kind:       req.Kind,
		Title:      req.Title,
		Message:    req.Message,
		DurationMs: duration,
	})
}

// Dismiss removes a notification
func (s *Session) Dismiss(nid string) bool {
	return s.notifications.Dismiss(nid)
}

// Notifications lists queued notifications in insertion order
func (s *Session) Notifications() []types.Notification {
	return s.notifications.List()
}

// Achievements lists every badge with its state
func (s *Session) Achievements() []achievement.Status {
	return s.tracker.Statuses()
}

// RecordActivity reports an in-app activity: a game score, a project card
// expansion or a page visit
func (s *Session) RecordActivity(ctx context.Context, req types.ActivityRequest) ([]achievement.Definition, error) {
	ev := achievement.Event{AppID: req.AppID, Value: req.Value}
	switch achievement.EventKind(req.Kind) {
	case achievement.EventScore:
		ev.Kind = achievement.EventScore
		if ev.AppID == "" {
			ev.AppID = "snake"
		}
	case achievement.EventProjectExpand:
		ev.Kind = achievement.EventProjectExpand
	case achievement.EventVisit:
		ev.Kind = achievement.EventVisit
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivity, req.Kind)
	}

	var unlocked []achievement.Definition
	err := s.locked(func() error {
		unlocked = s.tracker.RecordEvent(ctx, ev)
		return nil
	})
	return unlocked, err
}

// Snapshot returns the full client-visible state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	overlays := make(map[Overlay]bool, len(s.overlays))
	for k, v := range s.overlays {
		overlays[k] = v
	}

	snap := Snapshot{
		ID:            s.id,
		ProfileID:     s.profileID,
		CreatedAt:     s.createdAt,
		Stage:         s.boot.Stage(),
		BootProgress:  s.boot.Progress(),
		Windows:       s.desktop.Windows(),
		Taskbar:       s.desktop.Taskbar(),
		Dock:          s.desktop.Dock(),
		DesktopIcons:  s.desktopIcons(),
		FocusedID:     s.desktop.Focused(),
		Overlays:      overlays,
		Notifications: s.notifications.List(),
		Preferences:   s.store.Get(),
		Degraded:      s.store.Degraded(),
		Cwd:           s.shell.Cwd(),
		Stats:         s.desktop.Stats(),
		Views:         make(map[string]registry.View),
	}
	for _, w := range snap.Taskbar {
		if v, ok := s.desktop.View(w.ID); ok {
			snap.Views[w.ID] = v
		}
	}
	return snap
}

// Summary returns the listing row
func (s *Session) Summary() Summary {
	return Summary{
		ID:         s.id,
		ProfileID:  s.profileID,
		Stage:      s.boot.Stage(),
		Windows:    s.desktop.Stats().TotalWindows,
		CreatedAt:  s.createdAt,
		LastActive: s.LastActive(),
	}
}

// Close releases every timer and window. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.boot.Close()
	s.notifications.Close()
	s.desktop.CloseAll()
	s.release()
}

func (s *Session) desktopIcons() []types.DockItem {
	ids := s.deps.Registry.Desktop()
	out := make([]types.DockItem, 0, len(ids))
	for _, id := range ids {
		entry, err := s.deps.Registry.Resolve(id)
		if err != nil {
			continue
		}
		_, running := s.desktop.Window(id)
		out = append(out, types.DockItem{AppID: id, Title: entry.Title, Icon: entry.Icon, Running: running})
	}
	return out
}

// setOverlay must be called with s.mu held
func (s *Session) setOverlay(name Overlay, open bool) {
	if s.overlays[name] == open {
		return
	}
	s.overlays[name] = open
	s.sink.emit(types.EventOverlayChanged, map[string]any{"overlay": name, "open": open})
}

func (s *Session) locked(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return fn()
}

func (s *Session) onDesktop(fn func() error) error {
	return s.locked(func() error {
		if stage := s.boot.Stage(); stage != boot.StageDesktop {
			return fmt.Errorf("%w: stage is %s", ErrNotOnDesktop, stage)
		}
		return fn()
	})
}

func (s *Session) windowOp(fn func() bool) (bool, error) {
	var ok bool
	err := s.onDesktop(func() error {
		ok = fn()
		return nil
	})
	return ok, err
}
