package gateway

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	heartbeatInterval = 41250 * time.Millisecond
	// A client that misses a heartbeat by more than this is dropped.
	heartbeatGrace  = 10 * time.Second
	identifyTimeout = 20 * time.Second
	pingPeriod      = 30 * time.Second
	writeWait       = 10 * time.Second
	maxFrameSize    = 4096
	outboundBuffer  = 256
)

// Connection is one gateway socket. It is anonymous until IDENTIFY or RESUME
// succeeds, after which UserID and SessionID are set.
type Connection struct {
	UserID    int64
	SessionID string

	ws       *websocket.Conn
	manager  *Manager
	outbound chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newConnection(ws *websocket.Conn, manager *Manager) *Connection {
	return &Connection{
		ws:       ws,
		manager:  manager,
		outbound: make(chan []byte, outboundBuffer),
		done:     make(chan struct{}),
	}
}

// SendPayload queues p for the writer. A client that cannot keep up is
// disconnected and has to RESUME.
func (c *Connection) SendPayload(p GatewayPayload) {
	data, err := json.Marshal(p)
	if err != nil {
		slog.Error("gateway: encoding payload", "userID", c.UserID, "op", p.Op, "error", err)
		return
	}

	select {
	case <-c.done:
	case c.outbound <- data:
	default:
		slog.Warn("gateway: outbound queue full, disconnecting", "userID", c.UserID)
		c.Close()
	}
}

// SendEvent queues a DISPATCH stamped with the next gateway sequence number.
func (c *Connection) SendEvent(name string, data any) {
	c.manager.stamp(func(seq int64) {
		c.sendDispatch(seq, name, data)
	})
}

func (c *Connection) sendDispatch(seq int64, name string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		slog.Error("gateway: encoding event", "event", name, "error", err)
		return
	}
	c.SendPayload(GatewayPayload{Op: OpDispatch, Data: raw, Sequence: &seq, Event: &name})
}

// Close tears down the socket. Safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *Connection) identified() bool { return c.UserID != 0 }

// readPump owns every read on the socket, and so every read deadline.
// Anonymous sockets get identifyTimeout from connect; identified ones must
// heartbeat within heartbeatInterval+heartbeatGrace.
func (c *Connection) readPump() {
	defer func() {
		c.manager.unregister(c)
		c.Close()
	}()

	c.ws.SetReadLimit(maxFrameSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(identifyTimeout))

	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("gateway: read failed", "userID", c.UserID, "error", err)
			}
			return
		}

		if c.handleFrame(frame) && c.identified() {
			_ = c.ws.SetReadDeadline(time.Now().Add(heartbeatInterval + heartbeatGrace))
		}
	}
}

// writePump drains the outbound queue and keeps the socket alive with pings.
func (c *Connection) writePump() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.Close()
	}()

	for {
		select {
		case data := <-c.outbound:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ping.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}

		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

// handleFrame dispatches one client payload and reports whether it counts
// as a sign of life.
func (c *Connection) handleFrame(frame []byte) bool {
	var p GatewayPayload
	if err := json.Unmarshal(frame, &p); err != nil {
		slog.Warn("gateway: malformed payload", "userID", c.UserID, "error", err)
		return false
	}

	switch p.Op {
	case OpHeartbeat:
		c.SendPayload(GatewayPayload{Op: OpHeartbeatAck})
		return true

	case OpIdentify, OpResume:
		if c.identified() {
			slog.Warn("gateway: repeated handshake", "userID", c.UserID, "op", p.Op)
			return false
		}
		if p.Op == OpIdentify {
			c.manager.handleIdentify(c, p.Data)
		} else {
			c.manager.handleResume(c, p.Data)
		}
		return true

	case OpPresenceUpdate:
		if !c.identified() {
			slog.Warn("gateway: presence update before identify")
			return false
		}
		c.manager.handlePresenceUpdate(c, p.Data)
		return true
	}

	slog.Debug("gateway: ignoring op", "userID", c.UserID, "op", p.Op)
	return false
}
