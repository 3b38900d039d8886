package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/linskybing/gigdesk/internal/domain/ticket"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// TicketRepo matches the domain ticket store contract.
type TicketRepo interface {
	ticket.Store
	WithTx(tx *gorm.DB) TicketRepo
}

type DBTicketRepo struct {
	db *gorm.DB
}

func NewTicketRepo(db *gorm.DB) *DBTicketRepo {
	return &DBTicketRepo{
		db: db,
	}
}

func (r *DBTicketRepo) Create(ctx context.Context, t *ticket.Ticket) error {
	return errors.WithStack(r.db.WithContext(ctx).Create(t).Error)
}

func (r *DBTicketRepo) Load(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error) {
	return loadTicket(r.db.WithContext(ctx), id)
}

// Commit runs load, version check, mutation and conditional write in one
// transaction. Only the message rows appended by mutate are inserted; existing
// rows are never updated.
func (r *DBTicketRepo) Commit(ctx context.Context, id uuid.UUID, expectedVersion int64, mutate ticket.MutateFunc) (*ticket.Ticket, error) {
	var committed *ticket.Ticket
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := loadTicket(tx, id)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return errors.Wrapf(ticket.ErrConcurrencyConflict, "ticket %s is at version %d, expected %d", id, current.Version, expectedVersion)
		}

		next := current.Clone()
		if err := mutate(next); err != nil {
			return err
		}
		if len(next.Messages) < len(current.Messages) {
			return errors.Errorf("ticket %s: mutation dropped messages from the log", id)
		}
		next.Version = current.Version + 1
		if next.UpdatedAt.Equal(current.UpdatedAt) {
			next.UpdatedAt = time.Now().UTC()
		}

		res := tx.Model(&ticket.Ticket{}).
			Where("id = ? AND version = ?", id, expectedVersion).
			Updates(map[string]any{
				"status":          next.Status,
				"proposed_amount": next.ProposedAmount,
				"proposed_by":     next.ProposedBy,
				"agreed_price":    next.AgreedPrice,
				"rating":          next.Rating,
				"version":         next.Version,
				"updated_at":      next.UpdatedAt,
			})
		if res.Error != nil {
			return errors.WithStack(res.Error)
		}
		if res.RowsAffected == 0 {
			return errors.Wrapf(ticket.ErrConcurrencyConflict, "ticket %s changed during commit", id)
		}

		if appended := next.Messages[len(current.Messages):]; len(appended) > 0 {
			if err := tx.Create(&appended).Error; err != nil {
				return errors.WithStack(err)
			}
		}
		committed = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed, nil
}

func (r *DBTicketRepo) ListByParticipant(ctx context.Context, actorID uuid.UUID, limit int) ([]ticket.Ticket, error) {
	if limit <= 0 {
		limit = 50
	}
	var tickets []ticket.Ticket
	err := r.db.WithContext(ctx).
		Where("requester_id = ? OR performer_id = ?", actorID, actorID).
		Order("updated_at desc").
		Limit(limit).
		Find(&tickets).Error
	return tickets, errors.WithStack(err)
}

func (r *DBTicketRepo) ListMessages(ctx context.Context, id uuid.UUID, afterSeq int) ([]ticket.MessageRecord, error) {
	var msgs []ticket.MessageRecord
	err := r.db.WithContext(ctx).
		Where("ticket_id = ? AND seq > ?", id, afterSeq).
		Order("seq asc").
		Find(&msgs).Error
	return msgs, errors.WithStack(err)
}

func (r *DBTicketRepo) WithTx(tx *gorm.DB) TicketRepo {
	if tx == nil {
		return r
	}
	return &DBTicketRepo{
		db: tx,
	}
}

func loadTicket(db *gorm.DB, id uuid.UUID) (*ticket.Ticket, error) {
	var t ticket.Ticket
	err := db.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq asc")
	}).First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ticket.ErrNotFound, "ticket %s", id)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &t, nil
}
