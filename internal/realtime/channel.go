package realtime

import (
	"context"

	"github.com/google/uuid"
	"github.com/linskybing/gigdesk/internal/domain/ticket"
	"github.com/pkg/errors"
)

// Notifier is the outbound side of the realtime channel used by services.
type Notifier interface {
	NotifyUpdate(ctx context.Context, snap ticket.Snapshot, origin uuid.UUID) error
	Typing(ctx context.Context, ticketID, actorID uuid.UUID) error
}

// Channel publishes ticket events through a Broker and delivers whatever the
// broker hands back to the local Hub.
type Channel struct {
	hub       *Hub
	broker    Broker
	typingTTL int64
}

func NewChannel(hub *Hub, broker Broker, typingTTLMs int64) *Channel {
	return &Channel{hub: hub, broker: broker, typingTTL: typingTTLMs}
}

// Start subscribes the hub to the broker. Call once before serving.
func (ch *Channel) Start() error {
	return ch.broker.Subscribe(func(env Envelope) {
		ch.hub.Deliver(env)
	})
}

// NotifyUpdate pushes a committed snapshot to the other participants in the room.
func (ch *Channel) NotifyUpdate(ctx context.Context, snap ticket.Snapshot, origin uuid.UUID) error {
	env, err := newEnvelope(origin, Event{Type: EventUpdate, TicketID: snap.ID, Ticket: &snap})
	if err != nil {
		return errors.Wrap(err, "encode update")
	}
	return errors.Wrapf(ch.broker.Publish(ctx, env), "publish update for ticket %s", snap.ID)
}

// Typing broadcasts an ephemeral signal that receivers expire after TTLMs.
func (ch *Channel) Typing(ctx context.Context, ticketID, actorID uuid.UUID) error {
	env, err := newEnvelope(actorID, Event{Type: EventTyping, TicketID: ticketID, ActorID: &actorID, TTLMs: ch.typingTTL})
	if err != nil {
		return errors.Wrap(err, "encode typing")
	}
	return errors.Wrapf(ch.broker.Publish(ctx, env), "publish typing for ticket %s", ticketID)
}
