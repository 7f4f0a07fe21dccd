package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/NexusOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/NexusOS/backend/internal/shared/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Handler manages WebSocket connections
type Handler struct {
	sessions *session.Manager
	metrics  *monitoring.Metrics
	logger   *logging.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(sessions *session.Manager, metrics *monitoring.Metrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		sessions: sessions,
		metrics:  metrics,
		logger:   logger.Component("ws"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in dev
			},
		},
	}
}

// HandleConnection upgrades the request and streams the session's events
func (h *Handler) HandleConnection(c *gin.Context) {
	sid := c.Param("sid")
	s, err := h.sessions.Get(sid)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "session_not_found"})
		return
	}
	sub, err := h.sessions.Subscribe(sid)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "session_not_found"})
		return
	}
	defer sub.Cancel()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	log := h.logger.With(zap.String("session_id", sid))
	log.Debug("Stream connected")

	cl := &client{
		conn:    conn,
		sid:     sid,
		metrics: h.metrics,
		pongs:   make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	go cl.readPump()
	defer func() {
		_ = conn.Close()
		<-cl.done
	}()

	if err := cl.write(types.Event{Type: types.EventSnapshot, SessionID: sid, Data: s.Snapshot(), At: time.Now()}); err != nil {
		log.Debug("Stream closed before snapshot", zap.Error(err))
		return
	}
	if err := cl.writePump(sub); err != nil && !isClosure(err) {
		log.Warn("Stream write failed", zap.Error(err))
	}
	log.Debug("Stream disconnected", zap.Int64("dropped", sub.Dropped()))
}

// client is one connected stream. Only writePump writes to conn.
type client struct {
	conn    *websocket.Conn
	sid     string
	metrics *monitoring.Metrics
	pongs   chan struct{}
	done    chan struct{}
}

// readPump handles client frames until the connection fails
func (c *client) readPump() {
	defer close(c.done)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg types.WSMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			continue
		}
		c.metrics.RecordWSMessage("in", inboundLabel(msg.Type))
		if msg.Type == "ping" {
			select {
			case c.pongs <- struct{}{}:
			default:
			}
		}
	}
}

// writePump forwards events, pongs and keepalive pings until the session
// ends or the client goes away
func (c *client) writePump(sub *session.Subscription) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				_ = c.write(types.Event{Type: types.EventSessionEnded, SessionID: c.sid, At: time.Now()})
				return c.close(websocket.CloseNormalClosure, "session ended")
			}
			if err := c.write(ev); err != nil {
				return err
			}
		case <-c.pongs:
			if err := c.write(types.Event{Type: types.EventPong, SessionID: c.sid, At: time.Now()}); err != nil {
				return err
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		case <-c.done:
			return nil
		}
	}
}

func (c *client) write(ev types.Event) error {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return err
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	c.metrics.RecordWSMessage("out", string(ev.Type))
	return nil
}

func (c *client) close(code int, reason string) error {
	msg := websocket.FormatCloseMessage(code, reason)
	return c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

func isClosure(err error) bool {
	var ce *websocket.CloseError
	return errors.As(err, &ce) || errors.Is(err, websocket.ErrCloseSent)
}

// inboundLabel keeps client-chosen message types out of metric labels
func inboundLabel(msgType string) string {
	if msgType == "ping" {
		return msgType
	}
	return "unknown"
}
