package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Every Record/Set method is safe on a
// nil receiver, so components can run without a collector.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Desktop metrics
	WindowsOpen     prometheus.Gauge
	WindowsLaunched *prometheus.CounterVec
	BootTransitions *prometheus.CounterVec

	// Session metrics
	SessionsActive  prometheus.Gauge
	SessionsCreated prometheus.Counter

	// Feedback metrics
	Notifications        *prometheus.CounterVec
	AchievementsUnlocked *prometheus.CounterVec
	TerminalCommands     *prometheus.CounterVec

	// Service metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec

	// Registry metrics
	RegistryApps prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	OpenWindows       int64   `json:"open_windows"`
	ActiveSessions    int64   `json:"active_sessions"`
	ActiveConnections int64   `json:"active_connections"`
	TotalDuration     float64 `json:"-"`
	RequestCount      int64   `json:"-"`
	AvgDurationMs     float64 `json:"avg_duration_ms"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector on its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexus_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nexus_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nexus_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nexus_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Desktop metrics
		WindowsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "nexus_windows_open",
				Help: "Number of open windows across all sessions",
			},
		),
		WindowsLaunched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexus_windows_launched_total",
				Help: "Total number of windows created, by application",
			},
			[]string{"app_id"},
		),
		BootTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexus_boot_transitions_total",
				Help: "Total number of boot stage transitions",
			},
			[]string{"from", "to"},
		),

		// Session metrics
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "nexus_sessions_active",
				Help: "Number of live desktop sessions",
			},
		),
		SessionsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nexus_sessions_created_total",
				Help: "Total number of desktop sessions created",
			},
		),

		// Feedback metrics
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexus_notifications_total",
				Help: "Total number of notifications pushed",
			},
			[]string{"kind"},
		),
		AchievementsUnlocked: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexus_achievements_unlocked_total",
				Help: "Total number of achievement unlocks",
			},
			[]string{"achievement"},
		),
		TerminalCommands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexus_terminal_commands_total",
				Help: "Total number of terminal commands executed",
			},
			[]string{"command"},
		),

		// Service metrics
		ServiceCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexus_service_calls_total",
				Help: "Total number of service calls",
			},
			[]string{"service", "method", "status"},
		),
		ServiceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nexus_service_duration_seconds",
				Help:    "Service call duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"service", "method"},
		),

		// Registry metrics
		RegistryApps: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "nexus_registry_apps",
				Help: "Number of apps in registry",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "nexus_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexus_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "nexus_uptime_seconds",
			Help: "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the collector registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordServiceCall records a service call
func (m *Metrics) RecordServiceCall(service, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ServiceCalls.WithLabelValues(service, method, status).Inc()
	m.ServiceDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordWindowOpened records a newly created window
func (m *Metrics) RecordWindowOpened(appID string) {
	if m == nil {
		return
	}
	m.WindowsLaunched.WithLabelValues(appID).Inc()
	m.WindowsOpen.Inc()
	m.mu.Lock()
	m.snapshot.OpenWindows++
	m.mu.Unlock()
}

// RecordWindowsClosed records n windows going away
func (m *Metrics) RecordWindowsClosed(n int) {
	if m == nil || n == 0 {
		return
	}
	m.WindowsOpen.Sub(float64(n))
	m.mu.Lock()
	m.snapshot.OpenWindows -= int64(n)
	m.mu.Unlock()
}

// RecordBootTransition records a boot stage change
func (m *Metrics) RecordBootTransition(from, to string) {
	if m == nil {
		return
	}
	m.BootTransitions.WithLabelValues(from, to).Inc()
}

// RecordNotification records a pushed notification
func (m *Metrics) RecordNotification(kind string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(kind).Inc()
}

// RecordAchievement records an achievement unlock
func (m *Metrics) RecordAchievement(id string) {
	if m == nil {
		return
	}
	m.AchievementsUnlocked.WithLabelValues(id).Inc()
}

// RecordCommand records an executed terminal command
func (m *Metrics) RecordCommand(name string) {
	if m == nil {
		return
	}
	m.TerminalCommands.WithLabelValues(name).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// SetSessionsActive sets the number of live sessions
func (m *Metrics) SetSessionsActive(count int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveSessions = int64(count)
	m.mu.Unlock()
}

// IncSessionsCreated increments the sessions created counter
func (m *Metrics) IncSessionsCreated() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
}

// SetRegistryApps sets the number of apps in registry
func (m *Metrics) SetRegistryApps(count int) {
	if m == nil {
		return
	}
	m.RegistryApps.Set(float64(count))
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns current values for the JSON health endpoint
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.RequestCount > 0 {
		s.AvgDurationMs = s.TotalDuration / float64(s.RequestCount) * 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
