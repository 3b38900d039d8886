package ticket

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
)

// Every operation below checks, in order: membership, status, role, payload.
// All checks run before the first field is written, so a failed call leaves the
// ticket untouched.

// ProposePrice puts a new price on the table. Any participant may propose while
// the ticket is OPEN or NEGOTIATING; there is no limit on rounds.
func (t *Ticket) ProposePrice(actorID uuid.UUID, amount int64, now time.Time) error {
	role, err := t.participant(actorID)
	if err != nil {
		return err
	}
	if t.Status != StatusOpen && t.Status != StatusNegotiating {
		return t.invalid("propose a price")
	}
	if amount <= 0 {
		return errors.Wrapf(ErrValidation, "price must be positive, got %d", amount)
	}

	from := t.Status
	t.ProposedAmount = &amount
	t.ProposedBy = &actorID
	t.Status = StatusNegotiating
	t.notice(now, fmt.Sprintf("The %s proposed a price of %d", role, amount), datatypes.JSONMap{
		"action": "propose_price",
		"from":   string(from),
		"to":     string(t.Status),
		"amount": amount,
		"by":     actorID.String(),
	})
	return nil
}

// AcceptPrice agrees to the pending proposal. The proposer cannot accept their own price.
func (t *Ticket) AcceptPrice(actorID uuid.UUID, now time.Time) error {
	if _, err := t.participant(actorID); err != nil {
		return err
	}
	if t.Status != StatusNegotiating || t.ProposedAmount == nil || t.ProposedBy == nil {
		return t.invalid("accept a price")
	}
	if *t.ProposedBy == actorID {
		return errors.Wrap(ErrAuthorization, "a price cannot be accepted by the participant who proposed it")
	}
	if t.AgreedPrice != nil {
		return errors.Wrap(ErrInvalidTransition, "agreed price is already set")
	}

	agreed := *t.ProposedAmount
	t.AgreedPrice = &agreed
	t.ProposedAmount = nil
	t.ProposedBy = nil
	t.Status = StatusAccepted
	t.notice(now, fmt.Sprintf("Price of %d accepted", agreed), datatypes.JSONMap{
		"action": "accept_price",
		"from":   string(StatusNegotiating),
		"to":     string(t.Status),
		"amount": agreed,
		"by":     actorID.String(),
	})
	return nil
}

// ConfirmPayment records that the requester paid the agreed price.
func (t *Ticket) ConfirmPayment(actorID uuid.UUID, now time.Time) error {
	return t.advance(actorID, StatusAccepted, StatusPaid, RoleRequester, "confirm_payment", "confirm payment",
		"Payment confirmed by the requester", now)
}

// MarkComplete records that the performer delivered the work.
func (t *Ticket) MarkComplete(actorID uuid.UUID, now time.Time) error {
	return t.advance(actorID, StatusPaid, StatusCompleted, RolePerformer, "mark_complete", "mark the work complete",
		"Work marked complete by the performer", now)
}

// CloseAndRate rates the performer and closes the ticket for good.
func (t *Ticket) CloseAndRate(actorID uuid.UUID, rating int, now time.Time) error {
	role, err := t.participant(actorID)
	if err != nil {
		return err
	}
	if t.Status != StatusCompleted {
		return t.invalid("close and rate")
	}
	if role != RoleRequester {
		return errors.Wrap(ErrAuthorization, "only the requester can close and rate the ticket")
	}
	if rating < MinRating || rating > MaxRating {
		return errors.Wrapf(ErrValidation, "rating must be between %d and %d, got %d", MinRating, MaxRating, rating)
	}
	if t.Rating != nil {
		return errors.Wrap(ErrInvalidTransition, "ticket is already rated")
	}

	t.Rating = &rating
	t.Status = StatusClosed
	t.notice(now, fmt.Sprintf("Ticket closed with a rating of %d", rating), datatypes.JSONMap{
		"action": "close_and_rate",
		"from":   string(StatusCompleted),
		"to":     string(t.Status),
		"rating": rating,
		"by":     actorID.String(),
	})
	return nil
}

// AppendMessage adds a participant message to the log. Content is trimmed; an
// attachment may carry an optional caption.
func (t *Ticket) AppendMessage(actorID uuid.UUID, content, attachmentRef string, maxLen int, now time.Time) error {
	if _, err := t.participant(actorID); err != nil {
		return err
	}
	if t.Status == StatusClosed {
		return errors.Wrap(ErrInvalidTransition, "cannot send messages on a closed ticket")
	}
	content = strings.TrimSpace(content)
	attachmentRef = strings.TrimSpace(attachmentRef)
	if content == "" && attachmentRef == "" {
		return errors.Wrap(ErrValidation, "message needs content or an attachment")
	}
	if maxLen <= 0 {
		maxLen = MaxMessageLength
	}
	if utf8.RuneCountInString(content) > maxLen {
		return errors.Wrapf(ErrValidation, "message exceeds %d characters", maxLen)
	}
	if attachmentRef != "" && !t.ownsAttachment(attachmentRef) {
		return errors.Wrapf(ErrValidation, "attachment must be stored under %s", AttachmentPrefix(t.ID))
	}

	kind := KindText
	if attachmentRef != "" {
		kind = KindAttachment
	}
	t.Messages = append(t.Messages, MessageRecord{
		TicketID:      t.ID,
		Seq:           t.NextSeq(),
		Kind:          kind,
		SenderID:      &actorID,
		Content:       content,
		AttachmentRef: attachmentRef,
		CreatedAt:     now,
	})
	t.UpdatedAt = now
	return nil
}

// AttachmentPrefix is the object key prefix of every file attached to a ticket.
func AttachmentPrefix(id uuid.UUID) string {
	return "tickets/" + id.String() + "/"
}

// ownsAttachment accepts "<prefix><name>" or "<bucket>/<prefix><name>".
func (t *Ticket) ownsAttachment(ref string) bool {
	prefix := AttachmentPrefix(t.ID)
	key := ref
	if !strings.HasPrefix(key, prefix) {
		i := strings.IndexByte(ref, '/')
		if i <= 0 {
			return false
		}
		key = ref[i+1:]
	}
	return strings.HasPrefix(key, prefix) && len(key) > len(prefix) && !strings.Contains(key, "..")
}

// Opened appends the notice written when the ticket is created.
func (t *Ticket) Opened(now time.Time) {
	t.notice(now, fmt.Sprintf("Ticket opened for gig %s", t.GigRef), datatypes.JSONMap{
		"action": "open",
		"to":     string(StatusOpen),
	})
}

func (t *Ticket) advance(actorID uuid.UUID, from, to Status, role Role, key, action, text string, now time.Time) error {
	actual, err := t.participant(actorID)
	if err != nil {
		return err
	}
	if t.Status != from {
		return t.invalid(action)
	}
	if actual != role {
		return errors.Wrapf(ErrAuthorization, "only the %s can %s", role, action)
	}
	t.Status = to
	t.notice(now, text, datatypes.JSONMap{
		"action": key,
		"from":   string(from),
		"to":     string(to),
		"by":     actorID.String(),
	})
	return nil
}

func (t *Ticket) participant(actorID uuid.UUID) (Role, error) {
	if err := t.RequireParticipant(actorID); err != nil {
		return "", err
	}
	role, _ := t.RoleOf(actorID)
	return role, nil
}

func (t *Ticket) invalid(action string) error {
	return errors.Wrapf(ErrInvalidTransition, "cannot %s while ticket is %s", action, t.Status)
}

func (t *Ticket) notice(now time.Time, content string, details datatypes.JSONMap) {
	t.Messages = append(t.Messages, MessageRecord{
		TicketID:  t.ID,
		Seq:       t.NextSeq(),
		Kind:      KindSystem,
		Content:   content,
		Details:   details,
		CreatedAt: now,
	})
	t.UpdatedAt = now
}
