package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/boot"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/prefs"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/registry"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/shell"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/theme"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/vfs"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/scheduler"
)

type fixture struct {
	t       *testing.T
	router  *gin.Engine
	hub     *session.Manager
	clock   *scheduler.Fake
	metrics *monitoring.Metrics
}

func newFixture(t *testing.T, tweak ...func(*session.Deps)) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg, err := registry.Load()
	require.NoError(t, err)
	fs, err := vfs.Load()
	require.NoError(t, err)
	themes, err := theme.Load()
	require.NoError(t, err)

	clock := scheduler.NewFake(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	metrics := monitoring.NewMetrics()
	deps := session.Deps{
		Registry: reg,
		FS:       fs,
		Prefs:    prefs.NewManager(nil, themes, nil),
		Clock:    clock,
		Location: time.UTC,
		Metrics:  metrics,
	}
	for _, fn := range tweak {
		fn(&deps)
	}
	hub := session.NewManager(deps)
	t.Cleanup(hub.Close)

	h := NewHandlers(Deps{
		Sessions: hub,
		Registry: reg,
		FS:       fs,
		Themes:   themes,
		Metrics:  metrics,
	})
	router := gin.New()
	h.Register(router)
	router.GET("/metrics/json", NewMetricsAggregator(metrics, hub).GetAggregatedMetrics)

	return &fixture{t: t, router: router, hub: hub, clock: clock, metrics: metrics}
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// desktop creates a session for profile and skips straight to the desktop
func (f *fixture) desktop(profile string) string {
	f.t.Helper()
	w := f.do(http.MethodPost, "/sessions", gin.H{"profile_id": profile})
	require.Equal(f.t, http.StatusCreated, w.Code, w.Body.String())
	snap := decode[session.Snapshot](f.t, w)
	w = f.do(http.MethodPost, "/sessions/"+snap.ID+"/boot/skip", nil)
	require.Equal(f.t, http.StatusOK, w.Code, w.Body.String())
	return snap.ID
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorResponse](t, w).Code
}

func TestRootAndHealth(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", decode[map[string]any](t, w)["status"])

	f.desktop("health")
	w = f.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 12, body["apps"])
	assert.EqualValues(t, 1, body["sessions"].(map[string]any)["sessions"])
}

func TestCatalogs(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/themes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cyber", decode[map[string]any](t, w)["default"])

	w = f.do(http.MethodGet, "/themes/light", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "light", decode[theme.Theme](t, w).ID)

	w = f.do(http.MethodGet, "/themes/sepia", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown_theme", errorCode(t, w))

	w = f.do(http.MethodGet, "/apps", nil)
	require.Equal(t, http.StatusOK, w.Code)
	apps := decode[struct {
		Apps []AppInfo `json:"apps"`
		Dock []string  `json:"dock"`
	}](t, w)
	assert.Len(t, apps.Apps, 12)
	assert.Equal(t, "terminal", apps.Apps[0].ID)
	assert.Equal(t, registry.KindTerminal, apps.Apps[0].Kind)
	assert.Contains(t, apps.Dock, "snake")
}

func TestListFiles(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/fs?path=/home/user", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listing := decode[struct {
		Path    string      `json:"path"`
		Entries []vfs.Entry `json:"entries"`
	}](t, w)
	assert.Equal(t, "/home/user", listing.Path)
	var names []string
	for _, e := range listing.Entries {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "resume.pdf")

	w = f.do(http.MethodGet, "/fs?path=/home/nobody", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode[ErrorResponse](t, w).Error, "no such file or directory")

	w = f.do(http.MethodGet, "/fs?path=/home/user/resume.pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "not_directory", errorCode(t, w))

	w = f.do(http.MethodGet, "/fs?glob=**/*.pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[map[string]any](t, w)["matches"], "/home/user/resume.pdf")
}

func TestBootFlow(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/sessions", gin.H{"profile_id": "visitor"})
	require.Equal(t, http.StatusCreated, w.Code)
	snap := decode[session.Snapshot](t, w)
	assert.Equal(t, boot.StageOff, snap.Stage)
	base := "/sessions/" + snap.ID

	// The desktop is not up yet
	w = f.do(http.MethodPost, base+"/windows", gin.H{"app_id": "about"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "not_on_desktop", errorCode(t, w))

	w = f.do(http.MethodPost, base+"/boot/power", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, boot.StageBIOS, decode[session.Snapshot](t, w).Stage)

	w = f.do(http.MethodPost, base+"/boot/choose", gin.H{"destination": "DESKTOP"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_transition", errorCode(t, w))

	f.clock.Advance(2100 * time.Millisecond)

	w = f.do(http.MethodPost, base+"/boot/choose", gin.H{"destination": "MAINFRAME"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(http.MethodPost, base+"/boot/choose", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, base+"/boot/choose", gin.H{"destination": "CYBERWORLD"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, boot.StageCyberworld, decode[session.Snapshot](t, w).Stage)

	w = f.do(http.MethodPost, base+"/boot/exit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, boot.StageBootloader, decode[session.Snapshot](t, w).Stage)

	w = f.do(http.MethodPost, base+"/boot/reboot", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, base+"/boot/choose", gin.H{"destination": "DESKTOP"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, boot.StageDesktop, decode[session.Snapshot](t, w).Stage)
}

func TestWindowLifecycle(t *testing.T) {
	f := newFixture(t)
	base := "/sessions/" + f.desktop("windows")

	w := f.do(http.MethodPost, base+"/windows", gin.H{"app_id": "about"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	f.do(http.MethodPost, base+"/windows", gin.H{"app_id": "projects"})

	w = f.do(http.MethodPost, base+"/windows", gin.H{"app_id": "doom"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown_application", errorCode(t, w))

	w = f.do(http.MethodPost, base+"/windows", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, base+"/windows/about/focus", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["success"])

	w = f.do(http.MethodPost, base+"/windows/about/maximize", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodPost, base+"/windows/about/minimize", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, base, nil)
	snap := decode[session.Snapshot](t, w)
	assert.Equal(t, "projects", snap.FocusedID)
	require.Len(t, snap.Taskbar, 2)
	assert.True(t, snap.Taskbar[0].Minimized)

	w = f.do(http.MethodPost, base+"/windows/about/shake", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodDelete, base+"/windows/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["success"])

	w = f.do(http.MethodDelete, base+"/windows/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode[map[string]any](t, w)["success"])

	assert.EqualValues(t, 1, f.metrics.Snapshot().OpenWindows)
}

func TestKeysPaletteAndOverlays(t *testing.T) {
	f := newFixture(t)
	base := "/sessions/" + f.desktop("keys")

	w := f.do(http.MethodPost, base+"/keys", gin.H{"key": "k", "ctrl": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["handled"])

	w = f.do(http.MethodGet, base+"/palette?q=res", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode[struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}](t, w).Items
	require.NotEmpty(t, items)
	assert.Equal(t, "resume", items[0].ID)

	w = f.do(http.MethodPost, base+"/palette/select", gin.H{"app_id": "snake"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, base, nil)
	snap := decode[session.Snapshot](t, w)
	assert.False(t, snap.Overlays[session.OverlayPalette])
	assert.Equal(t, "snake", snap.FocusedID)
	assert.Equal(t, []string{"snake"}, snap.Preferences.PaletteHistory)

	w = f.do(http.MethodPost, base+"/overlays/achievements", gin.H{"open": true})
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodPost, base+"/overlays/settings", gin.H{"open": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unknown_overlay", errorCode(t, w))

	w = f.do(http.MethodPost, base+"/keys", gin.H{"key": "Escape"})
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodGet, base, nil)
	assert.False(t, decode[session.Snapshot](t, w).Overlays[session.OverlayAchievements])

	w = f.do(http.MethodPost, base+"/keys", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTerminalAndFiles(t *testing.T) {
	f := newFixture(t)
	base := "/sessions/" + f.desktop("shell")

	w := f.do(http.MethodPost, base+"/terminal", gin.H{"command": "cd projects"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/home/user/projects", decode[map[string]any](t, w)["cwd"])

	w = f.do(http.MethodPost, base+"/terminal", gin.H{"command": "skills"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "skills", decode[map[string]any](t, w)["launched"])

	w = f.do(http.MethodGet, base+"/terminal", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[map[string]any](t, w)["lines"])

	for _, bad := range []string{strings.Repeat("x", 2000), "ls\x00/etc"} {
		w = f.do(http.MethodPost, base+"/terminal", gin.H{"command": bad})
		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		assert.Equal(t, "invalid_command", errorCode(t, w))
	}

	w = f.do(http.MethodPost, base+"/fs/open", gin.H{"path": "/home/user/resume.pdf"})
	require.Equal(t, http.StatusOK, w.Code)
	win := decode[map[string]map[string]any](t, w)["window"]
	assert.Equal(t, "resume", win["id"])

	w = f.do(http.MethodPost, base+"/fs/open", gin.H{"path": "/home/user/missing.txt"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodPost, base+"/fs/open", gin.H{"path": "/home/user/documents/readme.txt"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "not_launchable", errorCode(t, w))
}

func TestNotifications(t *testing.T) {
	f := newFixture(t)
	base := "/sessions/" + f.desktop("notify")

	sticky := int64(0)
	w := f.do(http.MethodPost, base+"/notifications", gin.H{
		"kind": "success", "title": "Saved", "message": "done", "duration_ms": sticky,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	nid := decode[map[string]any](t, w)["id"].(string)

	w = f.do(http.MethodPost, base+"/notifications", gin.H{"title": "Heads up"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodPost, base+"/notifications", gin.H{"kind": "alarm", "title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_notification", errorCode(t, w))

	w = f.do(http.MethodPost, base+"/notifications", gin.H{"message": "no title"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.clock.Advance(5 * time.Second)

	w = f.do(http.MethodGet, base+"/notifications", nil)
	list := decode[map[string][]map[string]any](t, w)["notifications"]
	require.Len(t, list, 1)
	assert.Equal(t, nid, list[0]["id"])

	w = f.do(http.MethodDelete, base+"/notifications/"+nid, nil)
	assert.Equal(t, true, decode[map[string]any](t, w)["success"])
	w = f.do(http.MethodDelete, base+"/notifications/"+nid, nil)
	assert.Equal(t, false, decode[map[string]any](t, w)["success"])
}

func TestAchievementsAndEvents(t *testing.T) {
	f := newFixture(t)
	base := "/sessions/" + f.desktop("gamer")

	w := f.do(http.MethodPost, base+"/events", gin.H{"kind": "score", "value": 12})
	require.Equal(t, http.StatusOK, w.Code)
	unlocked := decode[map[string][]map[string]any](t, w)["unlocked"]
	require.Len(t, unlocked, 1)
	assert.Equal(t, "snake_charmer", unlocked[0]["id"])

	w = f.do(http.MethodPost, base+"/events", gin.H{"kind": "score", "value": 30})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[map[string][]map[string]any](t, w)["unlocked"])

	w = f.do(http.MethodPost, base+"/events", gin.H{"kind": "teleport"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unknown_activity", errorCode(t, w))

	w = f.do(http.MethodGet, base+"/achievements", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.EqualValues(t, 8, body["total"])
	assert.EqualValues(t, 1, body["unlocked"])

	w = f.do(http.MethodGet, base+"/notifications", nil)
	list := decode[map[string][]map[string]any](t, w)["notifications"]
	require.Len(t, list, 1)
	assert.Equal(t, "achievement", list[0]["kind"])
}

func TestSessionsCRUD(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	snap := decode[session.Snapshot](t, w)
	assert.Equal(t, DefaultProfile, snap.ProfileID)

	w = f.do(http.MethodPost, "/sessions", gin.H{"profile_id": "../etc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/sessions", nil)
	assert.EqualValues(t, 1, decode[map[string]any](t, w)["count"])

	w = f.do(http.MethodDelete, "/sessions/"+snap.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/sessions/"+snap.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "session_not_found", errorCode(t, w))

	w = f.do(http.MethodDelete, "/sessions/"+snap.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionLimit(t *testing.T) {
	f := newFixture(t, func(d *session.Deps) { d.MaxSessions = 1 })

	require.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/sessions", nil).Code)
	w := f.do(http.MethodPost, "/sessions", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "session_limit", errorCode(t, w))
}

func TestPreferences(t *testing.T) {
	f := newFixture(t)
	path := "/profiles/alice/preferences"

	w := f.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[PreferencesResponse](t, w)
	assert.Equal(t, prefs.Defaults().Volume, resp.Preferences.Volume)
	assert.False(t, resp.Degraded)

	w = f.do(http.MethodPatch, path, gin.H{"theme": "sepia"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_preference", errorCode(t, w))

	w = f.do(http.MethodPatch, path, gin.H{"volume": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPatch, path, gin.H{"theme": "light", "is_muted": true})
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[PreferencesResponse](t, w)
	assert.Equal(t, "light", resp.Preferences.Theme)
	assert.True(t, resp.Preferences.IsMuted)
	assert.Equal(t, 0.5, resp.Preferences.Volume)

	// Sessions for the profile see the stored value
	w = f.do(http.MethodPost, "/sessions", gin.H{"profile_id": "alice"})
	assert.Equal(t, "light", decode[session.Snapshot](t, w).Preferences.Theme)

	w = f.do(http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, prefs.DefaultTheme, decode[PreferencesResponse](t, w).Preferences.Theme)

	w = f.do(http.MethodGet, "/profiles/bad%20id/preferences", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStreamLogs(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/logs", ClientLogRequest{
		Source: "desktop",
		Entries: []ClientLogEntry{
			{ID: "1", Level: "error", Message: "render failed", Context: map[string]any{"app": "snake"}},
			{ID: "2", Level: "info", Message: "booted"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode[map[string]any](t, w)["entries_processed"])

	w = f.do(http.MethodPost, "/logs", ClientLogRequest{Source: "kernel", Entries: []ClientLogEntry{{}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/logs", ClientLogRequest{Source: "desktop"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/logs", ClientLogRequest{
		Source:  "desktop",
		Entries: make([]ClientLogEntry, maxLogBatch+1),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAggregatedMetrics(t *testing.T) {
	f := newFixture(t)
	base := "/sessions/" + f.desktop("metrics")
	f.do(http.MethodPost, base+"/windows", gin.H{"app_id": "about"})

	w := f.do(http.MethodGet, "/metrics/json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[MetricsSnapshot](t, w)
	assert.EqualValues(t, 1, snap.Backend.OpenWindows)
	assert.EqualValues(t, 1, snap.Backend.ActiveSessions)
	assert.Equal(t, 1, snap.Sessions.Sessions)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("x: %w", session.ErrSessionNotFound), http.StatusNotFound},
		{session.ErrNotOnDesktop, http.StatusConflict},
		{boot.ErrInvalidTransition, http.StatusConflict},
		{registry.ErrUnknownApplication, http.StatusNotFound},
		{vfs.ErrNotFound, http.StatusNotFound},
		{prefs.ErrInvalidPreference, http.StatusBadRequest},
		{session.ErrSessionLimit, http.StatusTooManyRequests},
		{session.ErrSessionClosed, http.StatusGone},
		{fmt.Errorf("%w: too long", shell.ErrInvalidCommand), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, _ := statusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
	}
}
