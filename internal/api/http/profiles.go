package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/prefs"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/utils"
)

// PreferencesResponse carries a profile's preferences
type PreferencesResponse struct {
	ProfileID   string            `json:"profile_id"`
	Preferences prefs.Preferences `json:"preferences"`
	Degraded    bool              `json:"degraded"`
}

// profileStore validates :pid and acquires its store. Callers release it
// when the request is done.
func (h *Handlers) profileStore(c *gin.Context) (*prefs.Store, func(), string, bool) {
	pid := c.Param("pid")
	if err := utils.ValidateID(pid, "profile_id", true); err != nil {
		badRequest(c, err.Error())
		return nil, nil, "", false
	}
	store, release := h.sessions.Preferences().Acquire(c.Request.Context(), pid)
	return store, release, pid, true
}

// GetPreferences returns a profile's preferences
func (h *Handlers) GetPreferences(c *gin.Context) {
	store, release, pid, ok := h.profileStore(c)
	if !ok {
		return
	}
	defer release()
	c.JSON(http.StatusOK, PreferencesResponse{
		ProfileID:   pid,
		Preferences: store.Get(),
		Degraded:    store.Degraded(),
	})
}

// UpdatePreferences applies a partial update
func (h *Handlers) UpdatePreferences(c *gin.Context) {
	done := h.metrics.TrackPreferenceOperation("update")

	var patch prefs.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		done(err)
		badRequest(c, "invalid preferences patch")
		return
	}
	if err := patch.Validate(h.validator); err != nil {
		done(err)
		fail(c, err)
		return
	}
	store, release, pid, ok := h.profileStore(c)
	if !ok {
		return
	}
	defer release()

	p := store.Update(c.Request.Context(), patch.Apply)
	done(nil)
	c.JSON(http.StatusOK, PreferencesResponse{
		ProfileID:   pid,
		Preferences: p,
		Degraded:    store.Degraded(),
	})
}

// ResetPreferences restores defaults
func (h *Handlers) ResetPreferences(c *gin.Context) {
	store, release, pid, ok := h.profileStore(c)
	if !ok {
		return
	}
	defer release()
	p := store.Reset(c.Request.Context())
	c.JSON(http.StatusOK, PreferencesResponse{
		ProfileID:   pid,
		Preferences: p,
		Degraded:    store.Degraded(),
	})
}
