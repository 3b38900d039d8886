package ticket

import (
	"context"

	"github.com/google/uuid"
)

// MutateFunc applies one operation to a ticket inside a commit. Returning an
// error aborts the commit with nothing written.
type MutateFunc func(t *Ticket) error

// Store is the persistence contract for tickets and their message logs.
// Commit is the only write path for existing tickets.
type Store interface {
	Create(ctx context.Context, t *Ticket) error
	Load(ctx context.Context, id uuid.UUID) (*Ticket, error)
	// Commit applies mutate to the stored ticket and persists it only if the
	// stored version still equals expectedVersion, bumping the version by one.
	// A mismatch returns ErrConcurrencyConflict with no side effects.
	Commit(ctx context.Context, id uuid.UUID, expectedVersion int64, mutate MutateFunc) (*Ticket, error)
	ListByParticipant(ctx context.Context, actorID uuid.UUID, limit int) ([]Ticket, error)
	ListMessages(ctx context.Context, id uuid.UUID, afterSeq int) ([]MessageRecord, error)
}
