package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket handles GET /gateway.
func (m *Manager) HandleWebSocket(c echo.Context) error {
	m.ServeHTTP(c.Response(), c.Request())
	return nil
}

// ServeHTTP upgrades the request and greets the client with HELLO. Nothing is
// dispatched to the connection until it sends IDENTIFY or RESUME.
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("gateway upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	conn := newConnection(ws, m)
	conn.SendPayload(GatewayPayload{
		Op:   OpHello,
		Data: mustMarshal(HelloData{HeartbeatInterval: int(heartbeatInterval.Milliseconds())}),
	})

	go conn.writePump()
	go conn.readPump()
}

// mustMarshal is for the gateway's own payload types, which always encode.
func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic("gateway: encoding payload: " + err.Error())
	}
	return data
}
