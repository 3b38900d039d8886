package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/linskybing/gigdesk/pkg/logger"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxFrameSize = 4 * 1024
	outboxSize   = 32

	// Minimum gap between two forwarded typing signals from one connection.
	typingInterval = 500 * time.Millisecond
)

// Client is one participant connection joined to a ticket room.
type Client struct {
	TicketID uuid.UUID
	ActorID  uuid.UUID

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu      sync.Mutex
	version int64 // newest ticket version queued as an update
}

func NewClient(hub *Hub, ticketID, actorID uuid.UUID) *Client {
	return &Client{
		TicketID: ticketID,
		ActorID:  actorID,
		hub:      hub,
		send:     make(chan []byte, outboxSize),
	}
}

// Join registers the client in its ticket room. Frames delivered from then on
// are queued even before Run attaches a socket.
func (c *Client) Join() {
	c.hub.Join(c)
}

// Leave removes the client from its room and closes the outbox.
func (c *Client) Leave() {
	c.hub.Leave(c)
}

// Outbox exposes the frames queued for this connection.
func (c *Client) Outbox() <-chan []byte {
	return c.send
}

// Push queues an event for this connection only. An update older than one
// already queued is dropped. It must not be called after Leave.
func (c *Client) Push(ev Event) bool {
	data, err := json.Marshal(ev)
	if err != nil {
		return false
	}
	queued, _ := c.offer(data, ev.version())
	return queued
}

// offer queues a frame without blocking. Frames with a version (updates) never
// go out older than the newest update already queued, so a connection cannot
// move back to an earlier snapshot. stale reports that case.
func (c *Client) offer(frame []byte, version int64) (queued, stale bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if version > 0 && version <= c.version {
		return false, true
	}
	select {
	case c.send <- frame:
		if version > 0 {
			c.version = version
		}
		return true, false
	default:
		return false, false
	}
}

// Run attaches the socket and pumps frames until the peer goes away or ctx
// ends. The client joins its room if Join was not called yet.
// onTyping is called for every accepted typing frame from the peer.
func (c *Client) Run(ctx context.Context, conn *websocket.Conn, onTyping func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.conn = conn
	c.hub.Join(c)
	defer c.hub.Leave(c)

	go c.writePump(ctx, cancel)

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	log := logger.WithComponent("realtime.client").
		WithField("ticket_id", c.TicketID).
		WithField("actor_id", c.ActorID)

	var lastTyping time.Time
	for {
		var frame ClientFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("websocket closed")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		switch frame.Type {
		case EventTyping:
			if time.Since(lastTyping) < typingInterval {
				continue
			}
			lastTyping = time.Now()
			if onTyping != nil {
				onTyping(ctx)
			}
		default:
			c.Push(Event{Type: EventError, TicketID: c.TicketID, Error: "unsupported frame type", Code: "validation_error"})
		}
	}
}

func (c *Client) writePump(ctx context.Context, cancel context.CancelFunc) {
	pingTicker := time.NewTicker(pingPeriod)
	defer func() {
		pingTicker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				cancel()
				return
			}
		case <-pingTicker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cancel()
				return
			}
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
