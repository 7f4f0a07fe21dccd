package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxLogBatch caps the entries accepted in one client log request
const maxLogBatch = 100

// ClientLogEntry is one log line reported by the desktop client
type ClientLogEntry struct {
	ID        string         `json:"id"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	SessionID string         `json:"session_id,omitempty"`
	Context   map[string]any `json:"context"`
	Timestamp string         `json:"timestamp"`
}

// ClientLogRequest is a batch of client log entries
type ClientLogRequest struct {
	Source  string           `json:"source"`
	Entries []ClientLogEntry `json:"entries"`
}

// StreamLogs forwards client log entries into the service log
func (h *Handlers) StreamLogs(c *gin.Context) {
	var req ClientLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid log request format")
		return
	}
	if req.Source != "desktop" {
		badRequest(c, "invalid log source")
		return
	}
	if len(req.Entries) == 0 {
		badRequest(c, "no log entries provided")
		return
	}
	if len(req.Entries) > maxLogBatch {
		badRequest(c, "too many log entries")
		return
	}

	logger := h.logger.Component("client")
	for _, entry := range req.Entries {
		fields := make([]zap.Field, 0, len(entry.Context)+3)
		fields = append(fields,
			zap.String("client_log_id", entry.ID),
			zap.String("client_timestamp", entry.Timestamp),
		)
		if entry.SessionID != "" {
			fields = append(fields, zap.String("session_id", entry.SessionID))
		}
		for key, value := range entry.Context {
			fields = append(fields, zap.Any(key, value))
		}

		switch entry.Level {
		case "error":
			logger.Error(entry.Message, fields...)
		case "warn":
			logger.Warn(entry.Message, fields...)
		case "debug", "verbose":
			logger.Debug(entry.Message, fields...)
		default:
			logger.Info(entry.Message, fields...)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"entries_processed": len(req.Entries),
		"timestamp":         time.Now().Unix(),
	})
}
