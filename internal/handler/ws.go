package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"opensentry/internal/logger"
	"opensentry/internal/ws"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// AlertFeedHandler upgrades the connection and registers it with the
// hub to receive live alert events.
func AlertFeedHandler(hub *ws.Hub, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		hub.Register(connection)
		defer hub.Unregister(connection)

		for {
			_, _, err := connection.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Alert feed client closed connection")
				} else {
					logger.Error("Alert feed client disconnected with error: %v", err)
				}
				break
			}
		}
	}
}
