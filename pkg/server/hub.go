package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gokaycavdar/go-senderinfo/pkg/models"
)

// Frame types sent to clients.
const (
	FrameHello   = "hello"
	FrameMessage = "message"
)

// Frame is the JSON envelope of every server-to-client WebSocket message.
type Frame struct {
	Type    string             `json:"type"`
	Session string             `json:"session"`
	Sender  *models.SenderData `json:"sender,omitempty"`
	Body    string             `json:"body,omitempty"`
}

// client is one WebSocket connection. Writes are serialized by mu because
// relays from other connections write concurrently.
type client struct {
	session      *models.Session
	conn         *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

// writeJSON sends v within the write timeout. A failed write closes the
// connection, which ends the read loop of that client.
func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		_ = c.conn.Close()
		return err
	}
	defer func() { _ = c.conn.SetWriteDeadline(time.Time{}) }()
	err := c.conn.WriteJSON(v)
	if err != nil {
		_ = c.conn.Close()
	}
	return err
}

// hub tracks the clients of each channel.
type hub struct {
	mu       sync.RWMutex
	channels map[string]map[string]*client
}

func newHub() *hub {
	return &hub{channels: make(map[string]map[string]*client)}
}

func (h *hub) join(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.channels[c.session.Channel]
	if !ok {
		members = make(map[string]*client)
		h.channels[c.session.Channel] = members
	}
	members[c.session.ID] = c
}

func (h *hub) leave(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.channels[c.session.Channel]
	delete(members, c.session.ID)
	if len(members) == 0 {
		delete(h.channels, c.session.Channel)
	}
}

// peers returns the other clients on the channel of c.
func (h *hub) peers(c *client) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := h.channels[c.session.Channel]
	out := make([]*client, 0, len(members))
	for id, member := range members {
		if id != c.session.ID {
			out = append(out, member)
		}
	}
	return out
}

func (h *hub) size(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}
