package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/linskybing/gigdesk/internal/domain/gig"
	"github.com/linskybing/gigdesk/internal/domain/ticket"
	"github.com/linskybing/gigdesk/internal/testutils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	requesterID = uuid.New()
	performerID = uuid.New()
)

func seedTicket(t *testing.T, repo TicketRepo) *ticket.Ticket {
	t.Helper()
	now := time.Now().UTC()
	tk := &ticket.Ticket{
		ID:          uuid.New(),
		GigRef:      "gig-1",
		RequesterID: requesterID,
		PerformerID: performerID,
		Status:      ticket.StatusOpen,
		Version:     1,
	}
	tk.Opened(now)
	require.NoError(t, repo.Create(context.Background(), tk))
	return tk
}

func TestTicketRepo_CreateAndLoad(t *testing.T) {
	repo := NewTicketRepo(testutils.NewSQLiteDB(t))
	tk := seedTicket(t, repo)

	loaded, err := repo.Load(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusOpen, loaded.Status)
	assert.Equal(t, int64(1), loaded.Version)
	require.Len(t, loaded.Messages, 1)
	assert.Equal(t, ticket.KindSystem, loaded.Messages[0].Kind)
	assert.Equal(t, "open", loaded.Messages[0].Details["action"])
}

func TestTicketRepo_LoadMissing(t *testing.T) {
	repo := NewTicketRepo(testutils.NewSQLiteDB(t))
	_, err := repo.Load(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, ticket.ErrNotFound))
}

func TestTicketRepo_CommitBumpsVersionAndAppends(t *testing.T) {
	repo := NewTicketRepo(testutils.NewSQLiteDB(t))
	tk := seedTicket(t, repo)
	ctx := context.Background()

	committed, err := repo.Commit(ctx, tk.ID, 1, func(t *ticket.Ticket) error {
		return t.ProposePrice(requesterID, 120, time.Now().UTC())
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), committed.Version)
	assert.Equal(t, ticket.StatusNegotiating, committed.Status)

	loaded, err := repo.Load(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.Version)
	require.NotNil(t, loaded.ProposedAmount)
	assert.Equal(t, int64(120), *loaded.ProposedAmount)
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, 2, loaded.Messages[1].Seq)
}

func TestTicketRepo_CommitStaleVersion(t *testing.T) {
	repo := NewTicketRepo(testutils.NewSQLiteDB(t))
	tk := seedTicket(t, repo)
	ctx := context.Background()

	_, err := repo.Commit(ctx, tk.ID, 1, func(t *ticket.Ticket) error {
		return t.AppendMessage(performerID, "first", "", 0, time.Now().UTC())
	})
	require.NoError(t, err)

	called := false
	_, err = repo.Commit(ctx, tk.ID, 1, func(t *ticket.Ticket) error {
		called = true
		return nil
	})
	assert.True(t, errors.Is(err, ticket.ErrConcurrencyConflict))
	assert.False(t, called)

	loaded, err := repo.Load(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), loaded.Version)
	assert.Len(t, loaded.Messages, 2)
}

func TestTicketRepo_CommitMutationErrorWritesNothing(t *testing.T) {
	repo := NewTicketRepo(testutils.NewSQLiteDB(t))
	tk := seedTicket(t, repo)
	ctx := context.Background()

	before, err := repo.Load(ctx, tk.ID)
	require.NoError(t, err)

	_, err = repo.Commit(ctx, tk.ID, 1, func(t *ticket.Ticket) error {
		return t.ConfirmPayment(requesterID, time.Now().UTC())
	})
	assert.True(t, errors.Is(err, ticket.ErrInvalidTransition))

	after, err := repo.Load(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.Status, after.Status)
	assert.Len(t, after.Messages, len(before.Messages))
}

func TestTicketRepo_CommitRejectsDroppedMessages(t *testing.T) {
	repo := NewTicketRepo(testutils.NewSQLiteDB(t))
	tk := seedTicket(t, repo)

	_, err := repo.Commit(context.Background(), tk.ID, 1, func(t *ticket.Ticket) error {
		t.Messages = nil
		return nil
	})
	assert.Error(t, err)
}

func TestTicketRepo_ListByParticipantAndMessages(t *testing.T) {
	repo := NewTicketRepo(testutils.NewSQLiteDB(t))
	ctx := context.Background()
	a := seedTicket(t, repo)
	seedTicket(t, repo)

	mine, err := repo.ListByParticipant(ctx, performerID, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := repo.ListByParticipant(ctx, uuid.New(), 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	for _, text := range []string{"one", "two"} {
		current, err := repo.Load(ctx, a.ID)
		require.NoError(t, err)
		_, err = repo.Commit(ctx, a.ID, current.Version, func(t *ticket.Ticket) error {
			return t.AppendMessage(requesterID, text, "", 0, time.Now().UTC())
		})
		require.NoError(t, err)
	}

	tail, err := repo.ListMessages(ctx, a.ID, 1)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "one", tail[0].Content)
	assert.Equal(t, "two", tail[1].Content)
}

func TestRepos_ExecTxRollsBack(t *testing.T) {
	db := testutils.NewSQLiteDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()
	ticketID := uuid.New()

	err := repos.ExecTx(ctx, func(tx *Repos) error {
		tk := &ticket.Ticket{ID: ticketID, GigRef: "gig-2", RequesterID: requesterID, PerformerID: performerID}
		tk.Opened(time.Now().UTC())
		if err := tx.Ticket.Create(ctx, tk); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	_, err = repos.Ticket.Load(ctx, ticketID)
	assert.True(t, errors.Is(err, ticket.ErrNotFound))
}

func TestApplicationRepo_UniquePerformerPerGig(t *testing.T) {
	db := testutils.NewSQLiteDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	_, err := repos.Application.FindByGigAndPerformer(ctx, "gig-3", performerID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	require.NoError(t, repos.Application.Create(ctx, &gig.Application{
		GigRef: "gig-3", PerformerID: performerID, RequesterID: requesterID, TicketID: uuid.New(),
	}))
	found, err := repos.Application.FindByGigAndPerformer(ctx, "gig-3", performerID)
	require.NoError(t, err)
	assert.Equal(t, requesterID, found.RequesterID)

	err = repos.Application.Create(ctx, &gig.Application{
		GigRef: "gig-3", PerformerID: performerID, RequesterID: requesterID, TicketID: uuid.New(),
	})
	assert.Error(t, err)
}
