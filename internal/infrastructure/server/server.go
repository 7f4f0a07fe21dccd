package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/NexusOS/backend/internal/api/http"
	"github.com/GriffinCanCode/NexusOS/backend/internal/api/middleware"
	"github.com/GriffinCanCode/NexusOS/backend/internal/api/ws"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/palette"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/prefs"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/registry"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/theme"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/vfs"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/storage"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/utils"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	sessions *session.Manager
	store    *storage.SQLite
	tracer   *tracing.Tracer
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// Catalogs are the static content every session is built from
type Catalogs struct {
	Registry *registry.Manager
	FS       *vfs.FS
	Themes   *theme.Catalog
	Seeded   registry.SeedResult
}

// LoadCatalogs loads the built-in catalogs, seeds extra application
// manifests and checks that every reference resolves
func LoadCatalogs(cfg *config.Config, logger *logging.Logger) (*Catalogs, error) {
	reg, err := registry.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load application registry: %w", err)
	}

	seeded, err := registry.NewSeeder(reg, cfg.Catalog.AppsDir, logger).SeedApps()
	if err != nil {
		return nil, fmt.Errorf("failed to seed applications: %w", err)
	}

	fs, err := vfs.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load file system: %w", err)
	}
	if err := reg.Validate(fs.LaunchTargets()...); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	themes, err := theme.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load themes: %w", err)
	}

	return &Catalogs{Registry: reg, FS: fs, Themes: themes, Seeded: seeded}, nil
}

// NewLogger builds the service logger from configuration
func NewLogger(cfg *config.Config) (*logging.Logger, error) {
	lc := logging.DefaultConfig()
	if cfg.Logging.Development {
		lc = logging.DevelopmentConfig()
	}
	if cfg.Logging.Level != "" {
		lc.Level = cfg.Logging.Level
	}
	return logging.New(lc)
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	logger.Info("Initializing NexusOS desktop service",
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Driver),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()

	catalogs, err := LoadCatalogs(cfg, logger)
	if err != nil {
		return nil, err
	}
	metrics.SetRegistryApps(catalogs.Registry.Count())
	logger.Info("Catalogs loaded",
		zap.Int("apps", catalogs.Registry.Count()),
		zap.Int("seeded", catalogs.Seeded.Loaded),
		zap.Int("themes", len(catalogs.Themes.List())),
	)

	loc, err := cfg.Session.Location()
	if err != nil {
		logger.Warn("Falling back to local time", zap.Error(err))
	}

	store, backend, err := openStorage(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	preferences := prefs.NewManager(backend, catalogs.Themes, logger)
	sessions := session.NewManager(session.Deps{
		Registry:         catalogs.Registry,
		FS:               catalogs.FS,
		Palette:          palette.New(catalogs.Registry),
		Prefs:            preferences,
		Location:         loc,
		BIOSDuration:     cfg.Boot.BIOSDuration,
		NotifyDuration:   cfg.Notifications.DefaultDuration,
		MaxNotifications: cfg.Notifications.MaxQueued,
		MaxSessions:      cfg.Session.MaxSessions,
		SubscriberBuffer: cfg.Session.SubscriberBuffer,
		IdleTTL:          cfg.Session.IdleTTL,
		Metrics:          metrics,
		Logger:           logger,
	})

	tracer := tracing.New("nexus-desktop", logger.Logger)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(middleware.BodyLimit(utils.MaxBodySize))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))

		if cfg.RateLimit.GlobalRPS > 0 {
			logger.Info("Global rate limiting enabled", zap.Int("rps", cfg.RateLimit.GlobalRPS))
			router.Use(middleware.GlobalRateLimit(middleware.RateLimitConfig{
				RequestsPerSecond: cfg.RateLimit.GlobalRPS,
				Burst:             2 * cfg.RateLimit.GlobalRPS,
			}))
		}
	}

	handlers := apihttp.NewHandlers(apihttp.Deps{
		Sessions: sessions,
		Registry: catalogs.Registry,
		FS:       catalogs.FS,
		Themes:   catalogs.Themes,
		Metrics:  metrics,
		Logger:   logger,
	})
	handlers.Register(router)

	// WebSocket
	router.GET("/sessions/:sid/stream", ws.NewHandler(sessions, metrics, logger).HandleConnection)

	// Metrics endpoints
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/metrics/json", apihttp.NewMetricsAggregator(metrics, sessions).GetAggregatedMetrics)

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		sessions: sessions,
		store:    store,
		tracer:   tracer,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// openStorage opens the preference backend. A sqlite failure degrades to
// memory-only preferences rather than failing startup.
func openStorage(cfg config.StorageConfig, logger *logging.Logger) (*storage.SQLite, prefs.Backend, error) {
	switch cfg.Driver {
	case "memory":
		logger.Info("Preferences kept in memory")
		return nil, nil, nil
	case "sqlite":
		db, err := storage.Open(cfg.Path)
		if err != nil {
			logger.Warn("Failed to open preference database, keeping preferences in memory",
				zap.String("path", cfg.Path),
				zap.Error(err))
			return nil, nil, nil
		}
		logger.Info("Preferences stored in sqlite", zap.String("path", cfg.Path))
		return db, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.router
}

// Sessions returns the session hub
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Run starts the HTTP server and blocks until it stops. It returns nil at
// once if Shutdown was already called.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Close releases sessions, the tracer and storage
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.sessions.Close()
	s.tracer.Close()

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("Failed to close preference database", zap.Error(err))
			return fmt.Errorf("failed to close preference database: %w", err)
		}
		s.logger.Info("Closed preference database")
	}

	_ = s.logger.Sync()
	return nil
}
