package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linskybing/gigdesk/internal/domain/gig"
	"github.com/linskybing/gigdesk/internal/domain/ticket"
	"github.com/linskybing/gigdesk/internal/realtime"
	"github.com/linskybing/gigdesk/internal/repository"
	"github.com/linskybing/gigdesk/pkg/logger"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type TicketOptions struct {
	StoreTimeout     time.Duration
	NotifyTimeout    time.Duration
	MaxMessageLength int
}

func (o TicketOptions) withDefaults() TicketOptions {
	if o.StoreTimeout <= 0 {
		o.StoreTimeout = 5 * time.Second
	}
	if o.NotifyTimeout <= 0 {
		o.NotifyTimeout = 2 * time.Second
	}
	if o.MaxMessageLength <= 0 {
		o.MaxMessageLength = ticket.MaxMessageLength
	}
	return o
}

// TicketService runs every ticket operation through the same path:
// guard, version-checked commit, then a best-effort push to the other participant.
type TicketService struct {
	repos    *repository.Repos
	notifier realtime.Notifier
	opts     TicketOptions
	now      func() time.Time
	log      *logrus.Entry
}

func NewTicketService(repos *repository.Repos, notifier realtime.Notifier, opts TicketOptions) *TicketService {
	return &TicketService{
		repos:    repos,
		notifier: notifier,
		opts:     opts.withDefaults(),
		now:      func() time.Time { return time.Now().UTC() },
		log:      logger.WithComponent("ticket.service"),
	}
}

// Get loads the authoritative snapshot. It is also the join check for the
// realtime channel.
func (s *TicketService) Get(ctx context.Context, id, actorID uuid.UUID) (ticket.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	t, err := s.load(ctx, id, actorID)
	if err != nil {
		return ticket.Snapshot{}, err
	}
	return t.Snapshot()
}

func (s *TicketService) List(ctx context.Context, actorID uuid.UUID, limit int) ([]ticket.Summary, error) {
	if actorID == uuid.Nil {
		return nil, ticket.ErrAuthentication
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	tickets, err := s.repos.Ticket.ListByParticipant(ctx, actorID, limit)
	if err != nil {
		return nil, timeoutOr(ctx, err)
	}
	out := make([]ticket.Summary, 0, len(tickets))
	for i := range tickets {
		out = append(out, tickets[i].Summary())
	}
	return out, nil
}

// ListMessages returns the log entries after afterSeq, oldest first.
func (s *TicketService) ListMessages(ctx context.Context, id, actorID uuid.UUID, afterSeq int) ([]ticket.Message, error) {
	if afterSeq < 0 {
		return nil, errors.Wrapf(ticket.ErrValidation, "after must not be negative, got %d", afterSeq)
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	if _, err := s.load(ctx, id, actorID); err != nil {
		return nil, err
	}
	records, err := s.repos.Ticket.ListMessages(ctx, id, afterSeq)
	if err != nil {
		return nil, timeoutOr(ctx, err)
	}
	return ticket.Messages(records)
}

func (s *TicketService) ProposePrice(ctx context.Context, id, actorID uuid.UUID, amount int64) (ticket.Snapshot, error) {
	return s.mutate(ctx, id, actorID, "propose_price", func(t *ticket.Ticket) error {
		return t.ProposePrice(actorID, amount, s.now())
	})
}

func (s *TicketService) AcceptPrice(ctx context.Context, id, actorID uuid.UUID) (ticket.Snapshot, error) {
	return s.mutate(ctx, id, actorID, "accept_price", func(t *ticket.Ticket) error {
		return t.AcceptPrice(actorID, s.now())
	})
}

func (s *TicketService) ConfirmPayment(ctx context.Context, id, actorID uuid.UUID) (ticket.Snapshot, error) {
	return s.mutate(ctx, id, actorID, "confirm_payment", func(t *ticket.Ticket) error {
		return t.ConfirmPayment(actorID, s.now())
	})
}

func (s *TicketService) MarkComplete(ctx context.Context, id, actorID uuid.UUID) (ticket.Snapshot, error) {
	return s.mutate(ctx, id, actorID, "mark_complete", func(t *ticket.Ticket) error {
		return t.MarkComplete(actorID, s.now())
	})
}

func (s *TicketService) CloseAndRate(ctx context.Context, id, actorID uuid.UUID, rating int) (ticket.Snapshot, error) {
	return s.mutate(ctx, id, actorID, "close_and_rate", func(t *ticket.Ticket) error {
		return t.CloseAndRate(actorID, rating, s.now())
	})
}

func (s *TicketService) AppendMessage(ctx context.Context, id, actorID uuid.UUID, input ticket.CreateMessageDTO) (ticket.Snapshot, error) {
	return s.mutate(ctx, id, actorID, "append_message", func(t *ticket.Ticket) error {
		return t.AppendMessage(actorID, input.Content, input.AttachmentRef, s.opts.MaxMessageLength, s.now())
	})
}

// Typing relays the ephemeral typing signal. Nothing is persisted.
func (s *TicketService) Typing(ctx context.Context, id, actorID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.NotifyTimeout)
	defer cancel()
	if err := s.notifier.Typing(ctx, id, actorID); err != nil {
		s.log.WithError(err).WithField("ticket_id", id).Debug("typing signal not delivered")
	}
}

// CreateForApplication records the performer's application and opens its
// ticket in one transaction. A performer applies to a gig at most once.
func (s *TicketService) CreateForApplication(ctx context.Context, gigRef string, requesterID, performerID uuid.UUID) (ticket.Snapshot, error) {
	gigRef = strings.TrimSpace(gigRef)
	switch {
	case performerID == uuid.Nil:
		return ticket.Snapshot{}, ticket.ErrAuthentication
	case gigRef == "":
		return ticket.Snapshot{}, errors.Wrap(ticket.ErrValidation, "gig reference is required")
	case requesterID == uuid.Nil:
		return ticket.Snapshot{}, errors.Wrap(ticket.ErrValidation, "requester is required")
	case requesterID == performerID:
		return ticket.Snapshot{}, errors.Wrap(ticket.ErrValidation, "cannot apply to your own gig")
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.StoreTimeout)
	defer cancel()

	var created *ticket.Ticket
	err := s.repos.ExecTx(ctx, func(tx *repository.Repos) error {
		_, err := tx.Application.FindByGigAndPerformer(ctx, gigRef, performerID)
		if err == nil {
			return errors.Wrapf(ticket.ErrValidation, "performer %s already applied to gig %s", performerID, gigRef)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := s.now()
		t := &ticket.Ticket{
			ID:          uuid.New(),
			GigRef:      gigRef,
			RequesterID: requesterID,
			PerformerID: performerID,
			Status:      ticket.StatusOpen,
			CreatedAt:   now,
			Version:     1,
		}
		t.Opened(now)
		if err := tx.Ticket.Create(ctx, t); err != nil {
			return err
		}
		if err := tx.Application.Create(ctx, &gig.Application{
			GigRef:      gigRef,
			PerformerID: performerID,
			RequesterID: requesterID,
			TicketID:    t.ID,
		}); err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return ticket.Snapshot{}, timeoutOr(ctx, err)
	}

	s.log.WithFields(logrus.Fields{
		"ticket_id":    created.ID,
		"gig_ref":      gigRef,
		"performer_id": performerID,
	}).Info("ticket opened")

	snap, err := created.Snapshot()
	if err != nil {
		return ticket.Snapshot{}, err
	}
	s.notify(ctx, snap, performerID)
	return snap, nil
}

func (s *TicketService) load(ctx context.Context, id, actorID uuid.UUID) (*ticket.Ticket, error) {
	if actorID == uuid.Nil {
		return nil, ticket.ErrAuthentication
	}
	t, err := s.repos.Ticket.Load(ctx, id)
	if err != nil {
		return nil, timeoutOr(ctx, err)
	}
	if err := t.RequireParticipant(actorID); err != nil {
		return nil, err
	}
	return t, nil
}

// mutate is not cancellable by the caller once started: it either commits or
// fails, bounded only by the store timeout. A version conflict is retried once
// against a fresh load.
func (s *TicketService) mutate(ctx context.Context, id, actorID uuid.UUID, op string, fn ticket.MutateFunc) (ticket.Snapshot, error) {
	if actorID == uuid.Nil {
		return ticket.Snapshot{}, ticket.ErrAuthentication
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.StoreTimeout)
	defer cancel()

	log := s.log.WithFields(logrus.Fields{"ticket_id": id, "actor_id": actorID, "op": op})

	committed, err := s.commit(ctx, id, fn)
	if errors.Is(err, ticket.ErrConcurrencyConflict) {
		log.Debug("version conflict, retrying with a fresh load")
		committed, err = s.commit(ctx, id, fn)
	}
	if err != nil {
		return ticket.Snapshot{}, timeoutOr(ctx, err)
	}

	snap, err := committed.Snapshot()
	if err != nil {
		return ticket.Snapshot{}, err
	}
	log.WithFields(logrus.Fields{"status": snap.Status, "version": snap.Version}).Info("ticket updated")

	s.notify(ctx, snap, actorID)
	return snap, nil
}

func (s *TicketService) commit(ctx context.Context, id uuid.UUID, fn ticket.MutateFunc) (*ticket.Ticket, error) {
	current, err := s.repos.Ticket.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.repos.Ticket.Commit(ctx, id, current.Version, fn)
}

// notify never fails the operation: the push is only a hint to reload.
func (s *TicketService) notify(ctx context.Context, snap ticket.Snapshot, origin uuid.UUID) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.NotifyTimeout)
	defer cancel()
	if err := s.notifier.NotifyUpdate(ctx, snap, origin); err != nil {
		s.log.WithError(err).WithField("ticket_id", snap.ID).Warn("realtime notify failed")
	}
}

func timeoutOr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrap(ticket.ErrTimeout, err.Error())
	}
	return err
}
