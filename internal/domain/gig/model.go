package gig

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Application records a performer applying to a gig. Each application owns
// exactly one ticket, created in the same transaction.
type Application struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GigRef      string    `gorm:"not null;uniqueIndex:idx_applications_gig_performer" json:"gig_ref"`
	PerformerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_applications_gig_performer" json:"performer_id"`
	RequesterID uuid.UUID `gorm:"type:uuid;not null;index" json:"requester_id"`
	TicketID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"ticket_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Application) TableName() string {
	return "applications"
}

func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ApplyDTO is the body a performer posts to apply to a gig. The requester is
// the gig owner as resolved by the listing service.
type ApplyDTO struct {
	RequesterID uuid.UUID `json:"requester_id" binding:"required"`
}
