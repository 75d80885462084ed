package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mpdx/internal/services"
	"github.com/gorilla/websocket"
)

// client is one websocket connection. Writes are serialized per connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// SocketHandler serves the push channel. Every client gets a welcome frame on connect, "ping"
// is answered with "pong", and [SocketHandler.Broadcast] reaches every connected client.
type SocketHandler struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*client]struct{}
	logger   *log.Logger
}

func NewSocketHandler(logger *log.Logger) *SocketHandler {
	return &SocketHandler{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		clients:  map[*client]struct{}{},
		logger:   logger,
	}
}

// Routes implements [Handler]. The path suffix names the partition.
func (h *SocketHandler) Routes() []string { return []string{"/ws/"} }

func (h *SocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	defer h.drop(c)

	partition := r.URL.Path[len("/ws/"):]
	if partition == "" {
		partition = "default"
	}
	welcome, _ := frame("welcome", map[string]any{"mympdVersion": "mock", "partition": partition})
	if err := c.write(welcome); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if string(data) == "ping" {
			if err := c.write([]byte("pong")); err != nil {
				return
			}
		}
	}
}

// Broadcast sends a push notification to every client and returns how many received it.
func (h *SocketHandler) Broadcast(method string, params any) (int, error) {
	data, err := frame(method, params)
	if err != nil {
		return 0, err
	}

	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	sent := 0
	for _, c := range clients {
		if err := c.write(data); err != nil {
			h.logger.Debug("broadcast failed, dropping client", "error", err)
			h.drop(c)
			continue
		}
		sent++
	}
	return sent, nil
}

// Clients returns the number of connected clients.
func (h *SocketHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll disconnects every client.
func (h *SocketHandler) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = map[*client]struct{}{}
	h.mu.Unlock()
	for c := range clients {
		c.conn.Close()
	}
}

func (h *SocketHandler) drop(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.conn.Close()
}

func frame(method string, params any) ([]byte, error) {
	if params == nil {
		params = map[string]any{}
	}
	return json.Marshal(map[string]any{"jsonrpc": services.JSONRPCVersion, "method": method, "params": params})
}
