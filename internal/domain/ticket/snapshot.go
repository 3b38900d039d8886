package ticket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProposedPrice is the price currently on the table during negotiation.
type ProposedPrice struct {
	Amount     int64     `json:"amount"`
	ProposedBy uuid.UUID `json:"proposed_by"`
}

// Snapshot is the authoritative view of a ticket returned by every operation
// and pushed over the realtime channel.
type Snapshot struct {
	ID            uuid.UUID      `json:"id"`
	GigRef        string         `json:"gig_ref"`
	RequesterID   uuid.UUID      `json:"requester_id"`
	PerformerID   uuid.UUID      `json:"performer_id"`
	Status        Status         `json:"status"`
	ProposedPrice *ProposedPrice `json:"proposed_price"`
	AgreedPrice   *int64         `json:"agreed_price"`
	Rating        *int           `json:"rating"`
	Messages      []Message      `json:"messages"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Version       int64          `json:"version"`
}

// Summary is the list view of a ticket, without its log.
type Summary struct {
	ID          uuid.UUID `json:"id"`
	GigRef      string    `json:"gig_ref"`
	RequesterID uuid.UUID `json:"requester_id"`
	PerformerID uuid.UUID `json:"performer_id"`
	Status      Status    `json:"status"`
	AgreedPrice *int64    `json:"agreed_price"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int64     `json:"version"`
}

// Snapshot builds the public view of the ticket.
func (t *Ticket) Snapshot() (Snapshot, error) {
	msgs, err := Messages(t.Messages)
	if err != nil {
		return Snapshot{}, err
	}
	s := Snapshot{
		ID:          t.ID,
		GigRef:      t.GigRef,
		RequesterID: t.RequesterID,
		PerformerID: t.PerformerID,
		Status:      t.Status,
		AgreedPrice: clonePtr(t.AgreedPrice),
		Rating:      clonePtr(t.Rating),
		Messages:    msgs,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		Version:     t.Version,
	}
	if t.ProposedAmount != nil && t.ProposedBy != nil {
		s.ProposedPrice = &ProposedPrice{Amount: *t.ProposedAmount, ProposedBy: *t.ProposedBy}
	}
	return s, nil
}

func (t *Ticket) Summary() Summary {
	return Summary{
		ID:          t.ID,
		GigRef:      t.GigRef,
		RequesterID: t.RequesterID,
		PerformerID: t.PerformerID,
		Status:      t.Status,
		AgreedPrice: clonePtr(t.AgreedPrice),
		UpdatedAt:   t.UpdatedAt,
		Version:     t.Version,
	}
}

// UnmarshalJSON decodes the tagged message variants.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	type alias Snapshot
	aux := struct {
		*alias
		Messages []json.RawMessage `json:"messages"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Messages = make([]Message, 0, len(aux.Messages))
	for _, raw := range aux.Messages {
		m, err := DecodeMessage(raw)
		if err != nil {
			return err
		}
		s.Messages = append(s.Messages, m)
	}
	return nil
}
