package realtime

import (
	"context"
	"sync"
)

// Broker moves envelopes between server processes so every process can deliver
// to the sockets it holds.
type Broker interface {
	Publish(ctx context.Context, env Envelope) error
	Subscribe(handler func(Envelope)) error
	Close() error
}

// LocalBroker hands envelopes straight to in-process subscribers. It is enough
// for a single server process.
type LocalBroker struct {
	mu       sync.RWMutex
	handlers []func(Envelope)
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{}
}

func (b *LocalBroker) Publish(ctx context.Context, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, h := range b.handlers {
		h(env)
	}
	return nil
}

func (b *LocalBroker) Subscribe(handler func(Envelope)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
	return nil
}

func (b *LocalBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = nil
	return nil
}
