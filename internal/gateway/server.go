package gateway

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:    1024,
	WriteBufferSize:   1024,
	EnableCompression: true,
	// Clients authenticate with IDENTIFY, not cookies.
	CheckOrigin: func(*http.Request) bool { return true },
}

// HandleWebSocket handles GET /gateway.
func (m *Manager) HandleWebSocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		slog.Warn("gateway: upgrade failed", "remote", c.RealIP(), "error", err)
		return nil
	}
	m.serve(ws)
	return nil
}

// serve greets a freshly upgraded socket with HELLO and starts its pumps.
func (m *Manager) serve(ws *websocket.Conn) *Connection {
	conn := newConnection(ws, m)
	conn.SendPayload(GatewayPayload{
		Op: OpHello,
		Data: mustMarshal(HelloData{
			HeartbeatInterval: int(heartbeatInterval.Milliseconds()),
		}),
	})

	go conn.writePump()
	go conn.readPump()
	return conn
}
