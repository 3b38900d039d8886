package ticket

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Status represents the lifecycle state of a ticket
type Status string

const (
	StatusOpen        Status = "OPEN"        // Created from an application, no price on the table
	StatusNegotiating Status = "NEGOTIATING" // A price proposal is pending
	StatusAccepted    Status = "ACCEPTED"    // Price agreed, waiting for payment
	StatusPaid        Status = "PAID"        // Requester confirmed payment
	StatusCompleted   Status = "COMPLETED"   // Performer delivered the work
	StatusClosed      Status = "CLOSED"      // Rated and closed, terminal
)

// Role of a participant within a ticket
type Role string

const (
	RoleRequester Role = "requester"
	RolePerformer Role = "performer"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Ticket is one negotiation/fulfillment thread between a requester and a performer.
// Messages are persisted in their own table and ordered by Seq.
type Ticket struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	GigRef         string          `gorm:"index;not null"`
	RequesterID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	PerformerID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	Status         Status          `gorm:"type:varchar(16);not null"`
	ProposedAmount *int64          // set while NEGOTIATING
	ProposedBy     *uuid.UUID      `gorm:"type:uuid"`
	AgreedPrice    *int64          // immutable once set
	Rating         *int            // set once on close
	Messages       []MessageRecord `gorm:"foreignKey:TicketID"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64 `gorm:"not null;default:1"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// BeforeCreate populates the primary key and the initial lifecycle fields.
func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = StatusOpen
	}
	if t.Version == 0 {
		t.Version = 1
	}
	return nil
}

// RoleOf returns the role the actor plays in the ticket, if any.
func (t *Ticket) RoleOf(actorID uuid.UUID) (Role, bool) {
	switch actorID {
	case t.RequesterID:
		return RoleRequester, true
	case t.PerformerID:
		return RolePerformer, true
	}
	return "", false
}

// RequireParticipant fails with ErrAuthorization unless actorID is the requester or performer.
func (t *Ticket) RequireParticipant(actorID uuid.UUID) error {
	if actorID == uuid.Nil {
		return ErrAuthentication
	}
	if _, ok := t.RoleOf(actorID); !ok {
		return errors.Wrapf(ErrAuthorization, "actor %s is not a participant of ticket %s", actorID, t.ID)
	}
	return nil
}

// Clone returns a deep copy so a mutation can be attempted without touching the original.
func (t *Ticket) Clone() *Ticket {
	c := *t
	c.ProposedAmount = clonePtr(t.ProposedAmount)
	c.ProposedBy = clonePtr(t.ProposedBy)
	c.AgreedPrice = clonePtr(t.AgreedPrice)
	c.Rating = clonePtr(t.Rating)
	c.Messages = make([]MessageRecord, len(t.Messages), len(t.Messages)+1)
	for i := range t.Messages {
		c.Messages[i] = t.Messages[i].clone()
	}
	return &c
}

// NextSeq is the sequence number the next appended message receives.
func (t *Ticket) NextSeq() int {
	if n := len(t.Messages); n > 0 {
		return t.Messages[n-1].Seq + 1
	}
	return 1
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
