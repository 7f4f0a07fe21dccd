package http

import (
	"github.com/gin-gonic/gin"
)

// Register mounts every JSON route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	// Catalogs
	r.GET("/themes", h.ListThemes)
	r.GET("/themes/:id", h.GetTheme)
	r.GET("/apps", h.ListApps)
	r.GET("/fs", h.ListFiles)

	// Client logs
	r.POST("/logs", h.StreamLogs)

	// Preferences
	profiles := r.Group("/profiles/:pid")
	profiles.GET("/preferences", h.GetPreferences)
	profiles.PATCH("/preferences", h.UpdatePreferences)
	profiles.DELETE("/preferences", h.ResetPreferences)

	// Sessions
	r.POST("/sessions", h.CreateSession)
	r.GET("/sessions", h.ListSessions)

	s := r.Group("/sessions/:sid")
	s.GET("", h.GetSession)
	s.DELETE("", h.DeleteSession)
	s.POST("/boot/:action", h.BootAction)

	s.POST("/windows", h.LaunchWindow)
	s.POST("/windows/:id/:op", h.WindowOp)
	s.DELETE("/windows/:id", h.CloseWindow)

	s.POST("/keys", h.HandleKey)
	s.GET("/palette", h.SearchPalette)
	s.POST("/palette/select", h.SelectPalette)
	s.POST("/overlays/:name", h.SetOverlay)
	s.POST("/fs/open", h.OpenFile)

	s.GET("/terminal", h.GetScrollback)
	s.POST("/terminal", h.ExecuteCommand)

	s.GET("/notifications", h.ListNotifications)
	s.POST("/notifications", h.PushNotification)
	s.DELETE("/notifications/:nid", h.DismissNotification)

	s.GET("/achievements", h.ListAchievements)
	s.POST("/events", h.RecordActivity)
}
