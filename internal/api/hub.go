// Websocket hub broadcasting game events (round resolved, game reset) to
// connected clients, so player dashboards refresh without polling.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// Event is the JSON envelope for all pushed messages.
type Event struct {
	Type    string `json:"type"` // "round_resolved", "game_reset"
	Payload any    `json:"payload"`
}

// Client is one connected websocket peer.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte // buffered outbound queue; slow clients get dropped
}

// Hub maintains the set of active clients and fans out events.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

// NewHub creates an idle hub; call Run in a goroutine to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes register/unregister/broadcast until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			slog.Debug("websocket client registered", "clients", len(h.clients))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Broadcast pushes an event to every connected client.
func (h *Hub) Broadcast(event Event) {
	raw, err := json.Marshal(event)
	if err != nil {
		slog.Error("marshal broadcast event", "error", err)
		return
	}
	h.broadcast <- raw
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Same-origin policy is the reverse proxy's job; game events are public.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS upgrades the connection and attaches it to the hub.
func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 32)}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// writePump drains the send queue to the peer.
func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// readPump discards inbound frames; the stream is push-only. Reading is still
// required to notice closes and process control frames.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
