package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordWindowOpened("terminal")
		m.RecordWindowsClosed(1)
		m.RecordNotification("info")
		m.SetSessionsActive(3)
		NewTimer(m, "session", "create").Stop("success")
	})
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())
}

func TestIndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordWindowOpened("terminal")
	a.RecordWindowOpened("snake")
	a.RecordWindowsClosed(1)

	assert.EqualValues(t, 1, a.Snapshot().OpenWindows)
	assert.Zero(t, b.Snapshot().OpenWindows)
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.TotalRequests)
	assert.EqualValues(t, 1, snap.TotalErrors)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `nexus_http_requests_total{method="GET",path="/items/:id",status="200"} 1`)
	assert.Contains(t, string(body), `path="unmatched"`)
	assert.Contains(t, string(body), "nexus_uptime_seconds")
}
