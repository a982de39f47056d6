package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Message is the envelope for everything sent over the websocket.
type Message struct {
	Type   string `json:"type"`
	ScanID string `json:"scan_id,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type wsClient struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	scanID string // empty subscribes to every scan
}

// Hub fans scan events out to connected websocket clients.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
	}
}

// Run owns client registration. It never returns.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a message to every connected client.
func (h *Hub) Broadcast(msg Message) {
	h.BroadcastToScan("", msg)
}

// BroadcastToScan sends a message to clients watching scanID, plus the
// ones watching everything. Clients with a full send buffer are skipped
// rather than blocking a scan.
func (h *Hub) BroadcastToScan(scanID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[ws] marshal message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if scanID != "" && client.scanID != "" && client.scanID != scanID {
			continue
		}
		select {
		case client.send <- data:
		default:
		}
	}
}

// ClientCount reports connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handleWebSocket upgrades the request and streams scan events. The
// optional scan_id query restricts the stream to one scan.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[ws] upgrade: %v", err)
		return
	}

	client := &wsClient{
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		scanID: c.Query("scan_id"),
	}
	s.hub.register <- client

	// Queue the welcome before the pumps start so it cannot race the
	// unregister path closing the send channel.
	welcome := Message{Type: "connected", ScanID: client.scanID}
	if data, err := json.Marshal(welcome); err == nil {
		client.send <- data
	}

	go client.writePump()
	go client.readPump()
}

func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg struct {
			Type   string `json:"type"`
			ScanID string `json:"scan_id,omitempty"`
		}
		if json.Unmarshal(raw, &msg) == nil && msg.Type == "subscribe" {
			c.hub.mu.Lock()
			c.scanID = msg.ScanID
			c.hub.mu.Unlock()
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
