// Package realtime fans live store snapshots out to websocket clients.
// Each room corresponds to one store path; the first client to join a room
// opens a subscription on that path and every snapshot published there is
// broadcast to the room's clients.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gameport/arena/metrics"
	"github.com/gameport/arena/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	clientSendBuffer = 256
)

// Message is the envelope pushed to websocket clients. Payload is the whole
// current value at the path, or null when the path is absent.
type Message struct {
	Type    string          `json:"type"`
	Path    string          `json:"path"`
	Payload json.RawMessage `json:"payload"`
}

const TypeValue = "VALUE"

type Hub struct {
	store  *store.Store
	logger *slog.Logger

	mu    sync.Mutex
	rooms map[string]*room
}

type room struct {
	clients     map[*Client]bool
	unsubscribe func()
}

func NewHub(st *store.Store, logger *slog.Logger) *Hub {
	return &Hub{
		store:  st,
		logger: logger,
		rooms:  make(map[string]*room),
	}
}

// Join attaches conn to the room for path and starts its pumps. The client
// receives the current snapshot immediately (initial replay) and every
// subsequent change until the connection drops.
func (h *Hub) Join(ctx context.Context, path string, conn *websocket.Conn) error {
	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
		room: path,
	}

	h.mu.Lock()
	rm, ok := h.rooms[path]
	if !ok {
		rm = &room{clients: make(map[*Client]bool)}
		h.rooms[path] = rm
	}
	rm.clients[client] = true
	h.mu.Unlock()

	metrics.WebsocketClients.Inc()

	if !ok {
		// First client of the room: open the backing subscription. The
		// initial replay lands in this client's buffer; later snapshots
		// reach everyone in the room.
		unsubscribe, err := h.store.Ref(path).OnChange(ctx, func(snap store.Snapshot) {
			h.broadcast(path, snap)
		})
		if err != nil {
			h.leave(client)
			return err
		}
		h.mu.Lock()
		if current, exists := h.rooms[path]; exists && current == rm {
			rm.unsubscribe = unsubscribe
			h.mu.Unlock()
		} else {
			// Room vanished while subscribing (client dropped instantly).
			h.mu.Unlock()
			unsubscribe()
		}
	} else {
		// Room already live: replay the current snapshot to just this
		// client so it does not wait for the next write.
		snap, err := h.store.Ref(path).Read(ctx)
		if err != nil {
			h.leave(client)
			return err
		}
		client.enqueue(h.encode(path, snap))
	}

	go client.writePump()
	go client.readPump()

	h.logger.Info("websocket client joined", slog.String("room", path))
	return nil
}

func (h *Hub) leave(c *Client) {
	var unsubscribe func()

	h.mu.Lock()
	if rm, ok := h.rooms[c.room]; ok {
		if _, member := rm.clients[c]; member {
			delete(rm.clients, c)
			close(c.send)
			metrics.WebsocketClients.Dec()
		}
		if len(rm.clients) == 0 {
			unsubscribe = rm.unsubscribe
			delete(h.rooms, c.room)
		}
	}
	h.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
		h.logger.Info("room closed", slog.String("room", c.room))
	}
}

func (h *Hub) broadcast(path string, snap store.Snapshot) {
	message := h.encode(path, snap)

	h.mu.Lock()
	defer h.mu.Unlock()

	rm, ok := h.rooms[path]
	if !ok {
		return
	}
	for client := range rm.clients {
		client.enqueue(message)
	}
}

func (h *Hub) encode(path string, snap store.Snapshot) []byte {
	payload := json.RawMessage("null")
	if snap.Exists {
		payload = snap.Value
	}
	message, err := json.Marshal(Message{Type: TypeValue, Path: path, Payload: payload})
	if err != nil {
		h.logger.Error("failed to encode room message", slog.String("room", path), slog.Any("error", err))
		return nil
	}
	return message
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room string
}

func (c *Client) enqueue(message []byte) {
	if message == nil {
		return
	}
	select {
	case c.send <- message:
	default:
		// Slow client; drop the snapshot. The next publish carries the
		// full value anyway.
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Inbound frames are ignored; writes go through the HTTP API.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("websocket read failed", slog.String("room", c.room), slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
