package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/boot"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/notify"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/prefs"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/registry"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/shell"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/theme"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/vfs"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Checked in order; the first match wins.
var errorMappings = []errorMapping{
	{session.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
	{session.ErrSessionClosed, http.StatusGone, "session_closed"},
	{session.ErrSessionLimit, http.StatusTooManyRequests, "session_limit"},
	{session.ErrNotOnDesktop, http.StatusConflict, "not_on_desktop"},
	{boot.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{registry.ErrUnknownApplication, http.StatusNotFound, "unknown_application"},
	{vfs.ErrNotFound, http.StatusNotFound, "not_found"},
	{vfs.ErrIsDirectory, http.StatusBadRequest, "is_directory"},
	{vfs.ErrNotDirectory, http.StatusBadRequest, "not_directory"},
	{vfs.ErrNotLaunchable, http.StatusBadRequest, "not_launchable"},
	{theme.ErrUnknownTheme, http.StatusNotFound, "unknown_theme"},
	{prefs.ErrInvalidPreference, http.StatusBadRequest, "invalid_preference"},
	{notify.ErrInvalidKind, http.StatusBadRequest, "invalid_notification"},
	{notify.ErrClosed, http.StatusGone, "session_closed"},
	{session.ErrUnknownOverlay, http.StatusBadRequest, "unknown_overlay"},
	{session.ErrUnknownActivity, http.StatusBadRequest, "unknown_activity"},
	{shell.ErrInvalidCommand, http.StatusBadRequest, "invalid_command"},
	{session.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
}

// statusFor maps a domain error to its HTTP status and error code
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// fail writes the error response for err
func fail(c *gin.Context, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// badRequest rejects a malformed body or parameter
func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "invalid_request"})
}
