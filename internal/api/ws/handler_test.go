package ws

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/registry"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/vfs"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/scheduler"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type frame struct {
	Type      types.EventType `json:"type"`
	SessionID string          `json:"session_id"`
	Data      map[string]any  `json:"data"`
}

func newServer(t *testing.T) (*httptest.Server, *session.Manager, *monitoring.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg, err := registry.Load()
	require.NoError(t, err)
	fs, err := vfs.Load()
	require.NoError(t, err)
	metrics := monitoring.NewMetrics()

	hub := session.NewManager(session.Deps{
		Registry: reg,
		FS:       fs,
		Clock:    scheduler.NewFake(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
		Location: time.UTC,
		Metrics:  metrics,
	})

	r := gin.New()
	r.GET("/sessions/:sid/stream", NewHandler(hub, metrics, nil).HandleConnection)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		hub.Close()
	})
	return srv, hub, metrics
}

func dial(t *testing.T, srv *httptest.Server, sid string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + sid + "/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var f frame
	require.NoError(t, sonic.Unmarshal(data, &f))
	return f
}

// readUntil skips frames until one of type want arrives
func readUntil(t *testing.T, conn *websocket.Conn, want types.EventType) frame {
	t.Helper()
	for {
		f := readFrame(t, conn)
		if f.Type == want {
			return f
		}
	}
}

func TestStreamDeliversSessionEvents(t *testing.T) {
	srv, hub, metrics := newServer(t)
	ctx := context.Background()

	s, err := hub.Create(ctx, "streamer")
	require.NoError(t, err)
	conn := dial(t, srv, s.ID())

	snap := readFrame(t, conn)
	assert.Equal(t, types.EventSnapshot, snap.Type)
	assert.Equal(t, s.ID(), snap.SessionID)
	assert.Equal(t, "OFF", snap.Data["stage"])

	require.NoError(t, s.Skip(ctx))
	stage := readUntil(t, conn, types.EventStageChanged)
	assert.Equal(t, "DESKTOP", stage.Data["to"])

	_, err = s.Launch(ctx, "about", nil)
	require.NoError(t, err)
	launched := readUntil(t, conn, types.EventWindowLaunched)
	assert.Equal(t, "about", launched.Data["id"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	pong := readUntil(t, conn, types.EventPong)
	assert.Equal(t, s.ID(), pong.SessionID)
	assert.EqualValues(t, 1, metrics.Snapshot().ActiveConnections)

	require.NoError(t, hub.Delete(s.ID()))
	readUntil(t, conn, types.EventSessionEnded)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestStreamUnknownSession(t *testing.T) {
	srv, _, _ := newServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/nope/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStreamClientDisconnect(t *testing.T) {
	srv, hub, metrics := newServer(t)

	s, err := hub.Create(context.Background(), "leaver")
	require.NoError(t, err)
	conn := dial(t, srv, s.ID())
	readFrame(t, conn)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return metrics.Snapshot().ActiveConnections == 0 && hub.Stats().Subscribers == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestStreamBoundsInboundMessageLabels(t *testing.T) {
	srv, hub, metrics := newServer(t)

	s, err := hub.Create(context.Background(), "noisy")
	require.NoError(t, err)
	conn := dial(t, srv, s.ID())
	readFrame(t, conn)

	for i := 0; i < 50; i++ {
		msg := fmt.Sprintf(`{"type":"junk-%d"}`, i)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
	}
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	readUntil(t, conn, types.EventPong)

	assert.Equal(t, float64(50), testutil.ToFloat64(metrics.WSMessages.WithLabelValues("in", "unknown")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.WSMessages.WithLabelValues("in", "ping")))
	// in/unknown, in/ping, out/session.snapshot, out/pong
	assert.Eventually(t, func() bool {
		return testutil.CollectAndCount(metrics.WSMessages) == 4
	}, 5*time.Second, 10*time.Millisecond)
}
