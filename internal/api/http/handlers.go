package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/prefs"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/registry"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/theme"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/vfs"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/monitoring"
)

// Version is reported by the root endpoint
const Version = "1.0.0"

// Deps are the services the handlers serve
type Deps struct {
	Sessions *session.Manager
	Registry *registry.Manager
	FS       *vfs.FS
	Themes   *theme.Catalog
	Metrics  *monitoring.Metrics
	Logger   *logging.Logger
}

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions  *session.Manager
	registry  *registry.Manager
	fs        *vfs.FS
	themes    *theme.Catalog
	validator prefs.ThemeCatalog
	metrics   *HandlerMetrics
	logger    *logging.Logger
	startedAt time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(deps Deps) *Handlers {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	h := &Handlers{
		sessions:  deps.Sessions,
		registry:  deps.Registry,
		fs:        deps.FS,
		themes:    deps.Themes,
		metrics:   NewHandlerMetrics(deps.Metrics),
		logger:    deps.Logger.Component("http"),
		startedAt: time.Now(),
	}
	if deps.Themes != nil {
		h.validator = deps.Themes
	}
	return h
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "NexusOS Desktop Service",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	status := "healthy"
	stats := h.sessions.Stats()
	if stats.Preferences.BreakerState == "open" {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         status,
		"uptime_seconds": time.Since(h.startedAt).Seconds(),
		"sessions":       stats,
		"apps":           h.registry.Count(),
		"themes":         len(h.themes.List()),
	})
}

// ListThemes returns the theme catalog
func (h *Handlers) ListThemes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"themes":  h.themes.List(),
		"default": h.themes.Default(),
	})
}

// GetTheme returns one theme
func (h *Handlers) GetTheme(c *gin.Context) {
	t, err := h.themes.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// AppInfo is one registry entry with its component variant
type AppInfo struct {
	registry.Entry
	Kind registry.Kind `json:"kind"`
}

// ListApps returns the application registry
func (h *Handlers) ListApps(c *gin.Context) {
	entries := h.registry.List()
	apps := make([]AppInfo, 0, len(entries))
	for _, e := range entries {
		info := AppInfo{Entry: e}
		if e.Component != nil {
			info.Kind = e.Component.Kind()
		}
		apps = append(apps, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"apps":    apps,
		"desktop": h.registry.Desktop(),
		"dock":    h.registry.Dock(),
	})
}

// ListFiles lists a virtual directory, or matches a glob when ?glob= is set
func (h *Handlers) ListFiles(c *gin.Context) {
	if pattern := c.Query("glob"); pattern != "" {
		matches, err := h.fs.Glob(pattern)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"pattern": pattern, "matches": matches})
		return
	}

	p := c.DefaultQuery("path", "/")
	entries, err := h.fs.Entries(p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"path":    vfs.Join(vfs.ParsePath(p)),
		"entries": entries,
	})
}
