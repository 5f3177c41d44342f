package serve

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocketHandler upgrades HTTP connections into hub-registered viewers.
// A connection made as /ws?object=<name> starts pre-subscribed to that
// object, instead of every viewer starting on the firehose and having to
// send a separate subscribe message before it can narrow its feed.
type WebSocketHandler struct {
	hub *Hub
}

// NewWebSocketHandler constructs a WebSocketHandler bound to hub.
func NewWebSocketHandler(hub *Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeHTTP implements http.Handler.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("failed to upgrade viewer connection")
		return
	}

	client := &Client{
		hub:             h.hub,
		conn:            conn,
		send:            make(chan []byte, 256),
		id:              uuid.NewString(),
		subscribeObject: r.URL.Query().Get("object"),
	}
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}
