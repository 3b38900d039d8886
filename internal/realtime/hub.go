package realtime

import (
	"sync"

	"github.com/google/uuid"
	"github.com/linskybing/gigdesk/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Hub is the process-local registry of connected sockets, one room per ticket.
// It is rebuilt empty on restart and never consulted as state.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*Client]struct{}
	log   *logrus.Entry
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[uuid.UUID]map[*Client]struct{}),
		log:   logger.WithComponent("realtime.hub"),
	}
}

func (h *Hub) Join(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[c.TicketID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.TicketID] = room
	}
	room[c] = struct{}{}
}

// Leave removes the client and closes its outbox. Safe to call more than once.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[c.TicketID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.TicketID)
	}
	close(c.send)
}

// Deliver hands the payload to every client in the room except the origin
// actor's own connections. A client whose buffer is full misses the event, and
// one that already holds a newer update skips it.
func (h *Hub) Deliver(env Envelope) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered, dropped := 0, 0
	for c := range h.rooms[env.TicketID] {
		if env.Origin != uuid.Nil && c.ActorID == env.Origin {
			continue
		}
		switch queued, stale := c.offer([]byte(env.Payload), env.Version); {
		case queued:
			delivered++
		case !stale:
			dropped++
		}
	}
	if dropped > 0 {
		h.log.WithFields(logrus.Fields{
			"ticket_id": env.TicketID,
			"dropped":   dropped,
		}).Warn("slow subscribers skipped")
	}
	return delivered
}

func (h *Hub) RoomSize(ticketID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[ticketID])
}
