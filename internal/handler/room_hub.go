package handler

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"whiteboard-backend/internal/auth"
)

// WSMessage is the realtime envelope in both directions.
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// wsInbound keeps the payload raw so the dispatch loop can decode it per type.
type wsInbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client is one realtime connection with its stamped identity.
type Client struct {
	ID       string
	Identity auth.Identity
	Conn     *websocket.Conn
	writeMu  sync.Mutex
}

// NewClient wraps a websocket connection. The connection ID doubles as the
// guest user ID for unauthenticated clients.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{ID: uuid.NewString(), Conn: conn}
}

// Send writes one message to this client only.
func (c *Client) Send(msgType string, payload any) {
	msgBytes, err := json.Marshal(WSMessage{Type: msgType, Payload: payload})
	if err != nil {
		log.Printf("[Hub] Failed to marshal %s message: %v", msgType, err)
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.Conn.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
		log.Printf("[Hub] Failed to send %s to client %s: %v", msgType, c.ID, err)
	}
}

// RoomHub tracks which connections belong to which board and fans broadcasts
// out to a board's room.
type RoomHub struct {
	rooms map[int64]map[*Client]bool
	mu    sync.RWMutex
}

// NewRoomHub creates an empty hub.
func NewRoomHub() *RoomHub {
	return &RoomHub{rooms: make(map[int64]map[*Client]bool)}
}

// Join adds the client to the board's broadcast group. Joining a second board
// does not leave the first; a connection stays in every room it ever joined
// until it disconnects (single-board clients in practice).
func (h *RoomHub) Join(client *Client, boardID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[boardID] == nil {
		h.rooms[boardID] = make(map[*Client]bool)
	}
	h.rooms[boardID][client] = true

	log.Printf("[Hub] Client %s joined board %d, members: %d", client.ID, boardID, len(h.rooms[boardID]))
}

// Remove drops the client from every room it joined.
func (h *RoomHub) Remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for boardID, room := range h.rooms {
		if room[client] {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, boardID)
			}
		}
	}
}

// Broadcast delivers a message to every connection currently joined to the
// board, including the originator. Mutation broadcasts go to the whole room;
// the sender's optimistic render picks up the authoritative event ID from the
// echo.
func (h *RoomHub) Broadcast(boardID int64, msgType string, payload any) {
	msgBytes, err := json.Marshal(WSMessage{Type: msgType, Payload: payload})
	if err != nil {
		log.Printf("[Hub] Failed to marshal %s broadcast: %v", msgType, err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[boardID]))
	for client := range h.rooms[boardID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.writeMu.Lock()
		err := client.Conn.WriteMessage(websocket.TextMessage, msgBytes)
		client.writeMu.Unlock()
		if err != nil {
			log.Printf("[Hub] Failed to broadcast %s to client %s: %v", msgType, client.ID, err)
		}
	}
}

// Members returns how many connections are joined to the board.
func (h *RoomHub) Members(boardID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[boardID])
}

// InRoom reports whether the client is joined to the board.
func (h *RoomHub) InRoom(client *Client, boardID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[boardID][client]
}
