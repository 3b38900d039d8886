package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/linskybing/gigdesk/pkg/logger"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const routingPrefix = "ticket."

// RabbitBroker fans envelopes out through a RabbitMQ topic exchange. Each
// process consumes from its own exclusive queue bound to every ticket key.
type RabbitBroker struct {
	conn     *amqp.Connection
	pub      *amqp.Channel
	exchange string

	mu  sync.Mutex
	sub *amqp.Channel
}

func NewRabbitBroker(url, exchange string) (*RabbitBroker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "declare exchange %s", exchange)
	}
	return &RabbitBroker{conn: conn, pub: ch, exchange: exchange}, nil
}

func (b *RabbitBroker) Publish(ctx context.Context, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pub.PublishWithContext(ctx, b.exchange, routingPrefix+env.TicketID.String(), false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func (b *RabbitBroker) Subscribe(handler func(Envelope)) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return errors.Wrap(err, "open consumer channel")
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		return errors.Wrap(err, "declare queue")
	}
	if err := ch.QueueBind(q.Name, routingPrefix+"*", b.exchange, false, nil); err != nil {
		ch.Close()
		return errors.Wrap(err, "bind queue")
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		ch.Close()
		return errors.Wrap(err, "consume")
	}

	b.mu.Lock()
	b.sub = ch
	b.mu.Unlock()

	go consume(deliveries, handler)
	return nil
}

// consume decodes deliveries until the channel closes. Malformed bodies are
// logged and skipped.
func consume(deliveries <-chan amqp.Delivery, handler func(Envelope)) {
	log := logger.WithComponent("realtime.rabbit")
	for msg := range deliveries {
		var env Envelope
		if err := json.Unmarshal(msg.Body, &env); err != nil {
			log.WithError(err).Warn("discarding malformed envelope")
			continue
		}
		handler(env)
	}
	log.Info("consumer stopped")
}

func (b *RabbitBroker) Close() error {
	if b == nil {
		return nil
	}
	log := logger.WithComponent("realtime.rabbit")
	b.mu.Lock()
	if b.sub != nil {
		if err := b.sub.Close(); err != nil {
			log.WithError(err).Warn("close consumer channel")
		}
	}
	if err := b.pub.Close(); err != nil {
		log.WithError(err).Warn("close publish channel")
	}
	b.mu.Unlock()
	return b.conn.Close()
}
