package realtime

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/linskybing/gigdesk/internal/domain/ticket"
)

type EventType string

const (
	EventUpdate EventType = "update"
	EventTyping EventType = "typing"
	EventError  EventType = "error"
)

// Event is the JSON frame written to a participant's socket.
// An update carries the full snapshot and is only a hint to reload.
type Event struct {
	Type     EventType        `json:"type"`
	TicketID uuid.UUID        `json:"ticket_id"`
	ActorID  *uuid.UUID       `json:"actor_id,omitempty"`
	Ticket   *ticket.Snapshot `json:"ticket,omitempty"`
	TTLMs    int64            `json:"ttl_ms,omitempty"`
	Error    string           `json:"error,omitempty"`
	Code     string           `json:"code,omitempty"`
}

func (ev Event) version() int64 {
	if ev.Type != EventUpdate || ev.Ticket == nil {
		return 0
	}
	return ev.Ticket.Version
}

// ClientFrame is what participants send over the socket.
type ClientFrame struct {
	Type EventType `json:"type"`
}

// Envelope is the unit carried by a Broker. Origin is the actor whose own
// connections are skipped on delivery; uuid.Nil reaches everyone. Version is
// the ticket version of an update payload and zero otherwise.
type Envelope struct {
	TicketID uuid.UUID       `json:"ticket_id"`
	Origin   uuid.UUID       `json:"origin"`
	Version  int64           `json:"version,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

func newEnvelope(origin uuid.UUID, ev Event) (Envelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{TicketID: ev.TicketID, Origin: origin, Version: ev.version(), Payload: payload}, nil
}
