package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/achievement"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/boot"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/types"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/utils"
)

// DefaultProfile is used when a session is created without a profile
const DefaultProfile = "default"

// session resolves :sid, writing the error response when it is unknown
func (h *Handlers) session(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("sid"))
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return s, true
}

// CreateSession starts a desktop session
func (h *Handlers) CreateSession(c *gin.Context) {
	done := h.metrics.TrackSessionOperation("create")

	var req types.CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			done(err)
			badRequest(c, "invalid session request")
			return
		}
	}
	if req.ProfileID == "" {
		req.ProfileID = DefaultProfile
	}

	s, err := h.sessions.Create(c.Request.Context(), req.ProfileID)
	done(err)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.Snapshot())
}

// ListSessions lists live sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.sessions.List()
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession returns a session snapshot
func (h *Handlers) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// DeleteSession tears a session down
func (h *Handlers) DeleteSession(c *gin.Context) {
	sid := c.Param("sid")
	done := h.metrics.TrackSessionOperation("delete")
	err := h.sessions.Delete(sid)
	done(err)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session_id": sid})
}

// BootAction drives the boot stage machine: power, skip, choose or exit
func (h *Handlers) BootAction(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var err error
	switch action := c.Param("action"); action {
	case "power":
		err = s.Power()
	case "skip":
		err = s.Skip(c.Request.Context())
	case "exit":
		err = s.Exit()
	case "choose":
		var req types.ChooseRequest
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			badRequest(c, "destination is required")
			return
		}
		err = s.Choose(boot.Stage(req.Destination))
	default:
		badRequest(c, "unknown boot action: "+action)
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// LaunchWindow opens or focuses an application window
func (h *Handlers) LaunchWindow(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req types.LaunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "app_id is required")
		return
	}

	done := h.metrics.TrackSessionOperation("launch")
	w, err := s.Launch(c.Request.Context(), req.AppID, req.Payload)
	done(err)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"window": w})
}

// WindowOp focuses, minimizes or toggles maximize on a window
func (h *Handlers) WindowOp(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	wid := c.Param("id")
	var (
		changed bool
		err     error
	)
	switch op := c.Param("op"); op {
	case "focus":
		changed, err = s.FocusWindow(wid)
	case "minimize":
		changed, err = s.MinimizeWindow(wid)
	case "maximize":
		changed, err = s.ToggleMaximize(wid)
	default:
		badRequest(c, "unknown window operation: "+op)
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": changed, "window_id": wid})
}

// CloseWindow closes a window
func (h *Handlers) CloseWindow(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	wid := c.Param("id")
	closed, err := s.CloseWindow(wid)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": closed, "window_id": wid})
}

// HandleKey dispatches a keyboard shortcut
func (h *Handlers) HandleKey(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req types.KeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "key is required")
		return
	}

	handled, err := s.HandleKey(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"handled": handled})
}

// SearchPalette queries the command palette
func (h *Handlers) SearchPalette(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	query := c.Query("q")
	if err := utils.ValidateQuery(query); err != nil {
		badRequest(c, err.Error())
		return
	}
	items, err := s.SearchPalette(query)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "items": items})
}

// SelectPalette launches a palette entry
func (h *Handlers) SelectPalette(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req types.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "app_id is required")
		return
	}

	w, err := s.SelectPalette(c.Request.Context(), req.AppID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"window": w})
}

// SetOverlay opens or closes a desktop overlay
func (h *Handlers) SetOverlay(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req types.OverlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid overlay request")
		return
	}

	name := session.Overlay(c.Param("name"))
	if err := s.SetOverlay(name, req.Open); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"overlay": name, "open": req.Open})
}

// OpenFile launches the application associated with a virtual file
func (h *Handlers) OpenFile(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req types.OpenFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "path is required")
		return
	}

	w, err := s.OpenFile(c.Request.Context(), req.Path)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"window": w})
}

// ExecuteCommand runs one terminal line
func (h *Handlers) ExecuteCommand(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req types.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid command request")
		return
	}

	done := h.metrics.TrackSessionOperation("execute")
	res, err := s.Execute(c.Request.Context(), req.Command)
	done(err)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetScrollback returns the terminal scrollback
func (h *Handlers) GetScrollback(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": s.Scrollback()})
}

// ListNotifications lists queued notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": s.Notifications()})
}

// PushNotification enqueues a notification
func (h *Handlers) PushNotification(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req types.NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "title is required")
		return
	}

	n, err := s.Notify(req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

// DismissNotification removes a notification
func (h *Handlers) DismissNotification(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	nid := c.Param("nid")
	c.JSON(http.StatusOK, gin.H{"success": s.Dismiss(nid), "notification_id": nid})
}

// ListAchievements lists every badge with its state
func (h *Handlers) ListAchievements(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	statuses := s.Achievements()
	unlocked := 0
	for _, st := range statuses {
		if st.Unlocked {
			unlocked++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"achievements": statuses,
		"unlocked":     unlocked,
		"total":        len(statuses),
	})
}

// RecordActivity reports an in-app activity such as a game score
func (h *Handlers) RecordActivity(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req types.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "kind is required")
		return
	}

	unlocked, err := s.RecordActivity(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	if unlocked == nil {
		unlocked = []achievement.Definition{}
	}
	c.JSON(http.StatusOK, gin.H{"unlocked": unlocked})
}
