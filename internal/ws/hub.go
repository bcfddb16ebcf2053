package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/playmatatu/carom/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is checked by middleware.WebSocketCORSCheck
	},
}

// Role is what a connection may do at a table.
type Role string

const (
	RoleController Role = "controller"
	RoleSpectator  Role = "spectator"
)

// Client represents a connected WebSocket client
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	table    *game.Table
	tableID  string
	role     Role
	operator string

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func newClient(h *Hub, conn *websocket.Conn, table *game.Table, role Role, operator string) *Client {
	return &Client{
		hub:      h,
		conn:     conn,
		table:    table,
		tableID:  table.ID,
		role:     role,
		operator: operator,
		send:     make(chan []byte, 256),
	}
}

// trySend queues data without blocking. It reports false when the buffer is
// full or the client is gone.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) sendJSON(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}
	if !c.trySend(data) {
		log.Printf("[WS] dropped message for %s client on table %s", c.role, c.tableID)
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.sendJSON(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}

// Pulse forwards strike feedback to the controller. It runs on the table
// loop and must not block.
func (c *Client) Pulse(intensity float64, duration time.Duration) {
	c.sendJSON(map[string]interface{}{
		"type":        "haptic_pulse",
		"intensity":   intensity,
		"duration_ms": duration.Milliseconds(),
	})
}

// Hub maintains the set of active clients, grouped by table
type Hub struct {
	rooms       map[string]map[*Client]bool // tableID -> clients
	controllers map[string]*Client          // tableID -> controller
	register    chan *Client
	unregister  chan *Client
	mu          sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		rooms:       make(map[string]map[*Client]bool),
		controllers: make(map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
	}
}

// TableHub is the single hub for all tables.
var TableHub *Hub

func init() {
	TableHub = NewHub()
	go TableHub.Run(context.Background())
}

// Run processes registrations until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	var replaced *Client
	if client.role == RoleController {
		if old, exists := h.controllers[client.tableID]; exists && old != client {
			replaced = old
			if room, ok := h.rooms[client.tableID]; ok {
				delete(room, old)
			}
		}
		h.controllers[client.tableID] = client
	}
	if _, exists := h.rooms[client.tableID]; !exists {
		h.rooms[client.tableID] = make(map[*Client]bool)
	}
	h.rooms[client.tableID][client] = true
	h.mu.Unlock()

	if client.role == RoleController {
		client.table.SetHaptics(client)
	}
	if replaced != nil {
		log.Printf("[WS] controller %s on table %s replaced by %s", replaced.operator, client.tableID, client.operator)
		if replaced.conn != nil {
			if err := replaced.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by new controller"), time.Now().Add(5*time.Second)); err != nil {
				log.Printf("[WS] Error writing close control to old controller: %v", err)
			}
			replaced.conn.Close()
		}
		replaced.close()
	}

	log.Printf("[WS] %s %s connected to table %s", client.role, client.operator, client.tableID)
	client.sendJSON(stateMessage(client.table.Snapshot()))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	wasController := false
	if room, exists := h.rooms[client.tableID]; exists {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, client.tableID)
		}
	}
	if cur, ok := h.controllers[client.tableID]; ok && cur == client {
		delete(h.controllers, client.tableID)
		wasController = true
	}
	h.mu.Unlock()

	if wasController {
		// the cue is no longer tracked until a controller reconnects
		client.table.ClearPose()
		client.table.SetHaptics(nil)
	}
	client.close()
	log.Printf("[WS] %s %s disconnected from table %s", client.role, client.operator, client.tableID)
}

// RoomSize returns the number of clients watching a table.
func (h *Hub) RoomSize(tableID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[tableID])
}

// HasController reports whether a controller is attached to the table.
func (h *Hub) HasController(tableID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.controllers[tableID]
	return ok
}

// BroadcastToTable sends a message to every client of a table
func (h *Hub) BroadcastToTable(tableID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[tableID] {
		if !client.trySend(data) {
			log.Printf("[WS] send buffer full for %s client on table %s, dropping message", client.role, tableID)
		}
	}
}

// BroadcastEvent forwards a table event to the table's clients.
func (h *Hub) BroadcastEvent(ev game.TableEvent) {
	h.BroadcastToTable(ev.TableID, ev)
}

func stateMessage(snap game.TableSnapshot) map[string]interface{} {
	return map[string]interface{}{
		"type":  "table_state",
		"state": snap,
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] write error on table %s: %v", c.tableID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] ping error on table %s: %v", c.tableID, err)
				return
			}
		}
	}
}

// readPump reads messages until the connection fails.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] unexpected close on table %s: %v", c.tableID, err)
			}
			break
		}
		// any traffic counts as liveness
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		switch messageType {
		case websocket.BinaryMessage:
			c.handleFrame(message)
		case websocket.TextMessage:
			var msg WSMessage
			if err := json.Unmarshal(message, &msg); err != nil {
				c.sendError("Invalid message")
				continue
			}
			c.handleMessage(msg)
		}
	}
}
