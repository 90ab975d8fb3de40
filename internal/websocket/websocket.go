// Package websocket fans room lifecycle events out to connected presentation
// clients (the chat-platform bridge, the room-list page). It is the only
// consumer of services.Notifier in production.
package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/groovematch/groovematch/internal/logger"
	"github.com/groovematch/groovematch/internal/models"
	"github.com/groovematch/groovematch/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// RoomLister provides the initial room state sent to a newly connected client
type RoomLister interface {
	Categories() []string
	ListRooms(category string) []models.RoomView
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	log        logger.Logger
	clients    map[*Client]bool
	broadcast  chan models.WSMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	rooms      RoomLister
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan models.WSMessage
}

// New creates a new Hub instance
func New(log logger.Logger) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.WSMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// SetRoomLister attaches the room source for initial-state snapshots. Set
// after construction because the room service needs the hub as its notifier.
func (h *Hub) SetRoomLister(rooms RoomLister) {
	h.rooms = rooms
}

// Start begins the hub's main loop in a goroutine
func (h *Hub) Start() {
	go h.run()
}

// run handles client registration/unregistration and message broadcasting
func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.log.Debug("Client connected", "total_clients", h.clientCount())

			// Send the current room lists to the new client
			if h.rooms != nil {
				go func() {
					for _, category := range h.rooms.Categories() {
						client.send <- models.WSMessage{
							Type: "room_list",
							Payload: map[string]interface{}{
								"category": category,
								"rooms":    h.rooms.ListRooms(category),
							},
						}
					}
				}()
			}

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			h.log.Debug("Client disconnected", "total_clients", h.clientCount())

		case message := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's send channel is full, unregister
					go func(c *Client) {
						h.unregister <- c
					}(client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

func (h *Hub) clientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// BroadcastMessage sends a message to all connected clients
func (h *Hub) BroadcastMessage(msgType string, payload interface{}) {
	h.broadcast <- models.WSMessage{
		Type:    msgType,
		Payload: payload,
	}
}

// ServeWs upgrades an HTTP request to a websocket connection
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade failed", "error", err)
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan models.WSMessage, 16)}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// writePump forwards hub messages to the websocket connection
func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteJSON(message); err != nil {
			return
		}
	}
}

// readPump drains (and discards) client messages so pings are processed,
// and unregisters on disconnect. Clients are display-only; commands come in
// over the HTTP API.
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

// The Notifier implementation maps room lifecycle events to wire messages.

var _ services.Notifier = (*Hub)(nil)

func (h *Hub) RoomCreated(room models.RoomView) {
	h.BroadcastMessage("room_created", room)
}

func (h *Hub) RoomClosed(category string, roomID int, name string) {
	h.BroadcastMessage("room_closed", map[string]interface{}{
		"category": category,
		"room_id":  roomID,
		"name":     name,
	})
}

func (h *Hub) RoomRenamed(category string, roomID int, name string) {
	h.BroadcastMessage("room_renamed", map[string]interface{}{
		"category": category,
		"room_id":  roomID,
		"name":     name,
	})
}

func (h *Hub) PlayerJoined(room models.RoomView, playerID string, mmr int) {
	h.BroadcastMessage("player_joined", map[string]interface{}{
		"room":      room,
		"player_id": playerID,
		"mmr":       mmr,
	})
}

func (h *Hub) PlayerLeft(room models.RoomView, playerID string) {
	h.BroadcastMessage("player_left", map[string]interface{}{
		"room":      room,
		"player_id": playerID,
	})
}

func (h *Hub) PollStarted(room models.RoomView, poll models.PollView) {
	h.BroadcastMessage("poll_started", map[string]interface{}{
		"room": room,
		"poll": poll,
	})
}

func (h *Hub) PollResolved(room models.RoomView, winner *models.Song) {
	h.BroadcastMessage("poll_resolved", map[string]interface{}{
		"room":   room,
		"winner": winner,
	})
}

func (h *Hub) ResultsPending(room models.RoomView, txs []models.RatingTransaction, deadline time.Time) {
	h.BroadcastMessage("results_pending", map[string]interface{}{
		"room":         room,
		"transactions": txs,
		"deadline":     deadline,
	})
}

func (h *Hub) ResultsCommitted(room models.RoomView, txs []models.RatingTransaction) {
	h.BroadcastMessage("results_committed", map[string]interface{}{
		"room":         room,
		"transactions": txs,
	})
}

func (h *Hub) ResultsRejected(room models.RoomView, reason string) {
	h.BroadcastMessage("results_rejected", map[string]interface{}{
		"room":   room,
		"reason": reason,
	})
}

func (h *Hub) InactivityWarning(category string, roomID int, playerID string) {
	h.BroadcastMessage("inactivity_warning", map[string]interface{}{
		"category":  category,
		"room_id":   roomID,
		"player_id": playerID,
	})
}

func (h *Hub) PlayerEvicted(category string, roomID int, playerID string) {
	h.BroadcastMessage("player_evicted", map[string]interface{}{
		"category":  category,
		"room_id":   roomID,
		"player_id": playerID,
	})
}

func (h *Hub) RoomList(category string, rooms []models.RoomView) {
	h.BroadcastMessage("room_list", map[string]interface{}{
		"category": category,
		"rooms":    rooms,
	})
}
