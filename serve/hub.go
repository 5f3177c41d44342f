// Hub fans out batch-dispatch and run-termination notifications to
// connected viewers, filtered by the simulation object each viewer is
// watching. A viewer subscribed to "" (the default, and what a bare /ws
// connection gets) sees every object; a viewer that sends a subscribe
// message narrows its feed to one object's batches, so e.g. a dashboard
// panel dedicated to a single PHOLD node isn't woken for every other
// node's traffic.
package serve

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client is one connected WebSocket viewer, optionally scoped to one
// simulation object's notifications.
type Client struct {
	hub             *Hub
	conn            *websocket.Conn
	send            chan []byte
	id              string
	subscribeObject string
}

// outboundMessage carries the object identity a broadcast is about, so
// Hub.Run can route it only to viewers subscribed to that object.
// object == "" means "every object" — used for run-wide notifications
// like termination, and delivered to every viewer regardless of their
// subscription.
type outboundMessage struct {
	object  string
	payload []byte
}

// Hub manages WebSocket viewer connections and object-scoped broadcasts.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	broadcast  chan outboundMessage
	register   chan *Client
	unregister chan *Client
	log        *logrus.Entry

	onMessage func(clientID string, msgType string, data []byte)
}

// NewHub constructs an unstarted Hub; call Run in its own goroutine.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outboundMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        logrus.WithField("component", "serve.hub"),
	}
}

// SetMessageHandler installs the callback invoked for every inbound
// client message (serve.Server wires this to its engine).
func (h *Hub) SetMessageHandler(fn func(clientID, msgType string, data []byte)) {
	h.onMessage = fn
}

// Run processes register/unregister/broadcast events until the process
// exits; it never returns.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.log.WithField("client", c.id).Info("viewer connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.log.WithField("client", c.id).Info("viewer disconnected")

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				if msg.object != "" && c.subscribeObject != "" && c.subscribeObject != msg.object {
					continue
				}
				select {
				case c.send <- msg.payload:
				default:
					h.mu.RUnlock()
					h.mu.Lock()
					close(c.send)
					delete(h.clients, c)
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastForObject sends a raw payload to every viewer subscribed to
// object (or to every viewer, if object is "").
func (h *Hub) BroadcastForObject(object string, message []byte) {
	h.broadcast <- outboundMessage{object: object, payload: message}
}

// BroadcastJSON marshals v and broadcasts it, scoped to object.
func (h *Hub) BroadcastJSON(object string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.BroadcastForObject(object, data)
	return nil
}

// SetSubscription narrows clientID's feed to one object's notifications,
// or to every object if object is "".
func (h *Hub) SetSubscription(clientID, object string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.id == clientID {
			c.subscribeObject = object
			return
		}
	}
}

// SendToClient sends a raw payload to one connected viewer by ID.
func (h *Hub) SendToClient(clientID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.id == clientID {
			select {
			case c.send <- message:
			default:
			}
			return
		}
	}
}

// SendJSONToClient marshals v and sends it to one connected viewer.
func (h *Hub) SendJSONToClient(clientID string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.SendToClient(clientID, data)
	return nil
}

// ClientCount reports the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithField("client", c.id).WithError(err).Warn("viewer connection closed unexpectedly")
			}
			break
		}

		msgType, err := ParseMessage(raw)
		if err != nil {
			c.hub.log.WithField("client", c.id).WithError(err).Warn("malformed viewer message")
			continue
		}
		if msgType == MsgSubscribe {
			sub, err := ParseSubscribe(raw)
			if err != nil {
				c.hub.log.WithField("client", c.id).WithError(err).Warn("malformed subscribe request")
				continue
			}
			c.hub.SetSubscription(c.id, sub.Object)
			continue
		}
		if c.hub.onMessage != nil {
			c.hub.onMessage(c.id, string(msgType), raw)
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		message, ok := <-c.send
		if !ok {
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)

		n := len(c.send)
		for i := 0; i < n; i++ {
			w.Write([]byte("\n"))
			w.Write(<-c.send)
		}
		if err := w.Close(); err != nil {
			return
		}
	}
}
