package application

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/linskybing/gigdesk/internal/domain/ticket"
	"github.com/linskybing/gigdesk/internal/realtime"
	rtmock "github.com/linskybing/gigdesk/internal/realtime/mock"
	"github.com/linskybing/gigdesk/internal/repository"
	"github.com/linskybing/gigdesk/internal/repository/mock"
	"github.com/linskybing/gigdesk/internal/testutils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------- Setup ---------------------
func setupTicketService(t *testing.T) (*TicketService, *rtmock.MockNotifier) {
	ctrl := gomock.NewController(t)
	t.Cleanup(func() { ctrl.Finish() })

	notifier := rtmock.NewMockNotifier(ctrl)
	notifier.EXPECT().NotifyUpdate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	repos := repository.NewRepositories(testutils.NewSQLiteDB(t))
	return NewTicketService(repos, notifier, TicketOptions{}), notifier
}

type parties struct {
	requester uuid.UUID
	performer uuid.UUID
}

func openTicket(t *testing.T, svc *TicketService) (ticket.Snapshot, parties) {
	t.Helper()
	p := parties{requester: uuid.New(), performer: uuid.New()}
	snap, err := svc.CreateForApplication(context.Background(), "gig-500", p.requester, p.performer)
	require.NoError(t, err)
	return snap, p
}

// --------------------- Scenarios ---------------------
func TestScenario_ApplyOpensTicket(t *testing.T) {
	svc, _ := setupTicketService(t)
	snap, p := openTicket(t, svc)

	assert.Equal(t, ticket.StatusOpen, snap.Status)
	assert.Nil(t, snap.AgreedPrice)
	assert.Nil(t, snap.ProposedPrice)
	assert.Equal(t, p.requester, snap.RequesterID)
	assert.Equal(t, p.performer, snap.PerformerID)
	assert.Equal(t, int64(1), snap.Version)
	require.Len(t, snap.Messages, 1)
	assert.IsType(t, ticket.SystemNotice{}, snap.Messages[0])
}

func TestScenario_FullLifecycle(t *testing.T) {
	svc, _ := setupTicketService(t)
	ctx := context.Background()
	snap, p := openTicket(t, svc)

	snap, err := svc.ProposePrice(ctx, snap.ID, p.performer, 600)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusNegotiating, snap.Status)
	require.NotNil(t, snap.ProposedPrice)
	assert.Equal(t, ticket.ProposedPrice{Amount: 600, ProposedBy: p.performer}, *snap.ProposedPrice)

	snap, err = svc.AcceptPrice(ctx, snap.ID, p.requester)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusAccepted, snap.Status)
	require.NotNil(t, snap.AgreedPrice)
	assert.Equal(t, int64(600), *snap.AgreedPrice)

	snap, err = svc.ConfirmPayment(ctx, snap.ID, p.requester)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusPaid, snap.Status)

	snap, err = svc.MarkComplete(ctx, snap.ID, p.performer)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusCompleted, snap.Status)

	snap, err = svc.CloseAndRate(ctx, snap.ID, p.requester, 5)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusClosed, snap.Status)
	require.NotNil(t, snap.Rating)
	assert.Equal(t, 5, *snap.Rating)
	assert.Equal(t, int64(6), snap.Version)

	_, err = svc.CloseAndRate(ctx, snap.ID, p.requester, 3)
	assert.True(t, errors.Is(err, ticket.ErrInvalidTransition))

	final, err := svc.Get(ctx, snap.ID, p.performer)
	require.NoError(t, err)
	assert.Equal(t, 5, *final.Rating)
	assert.Equal(t, snap.Version, final.Version)
}

func TestScenario_WrongRoleLeavesStatus(t *testing.T) {
	svc, _ := setupTicketService(t)
	ctx := context.Background()
	snap, p := openTicket(t, svc)

	_, err := svc.ProposePrice(ctx, snap.ID, p.performer, 600)
	require.NoError(t, err)
	accepted, err := svc.AcceptPrice(ctx, snap.ID, p.requester)
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(ctx, snap.ID, p.performer)
	assert.True(t, errors.Is(err, ticket.ErrAuthorization))

	after, err := svc.Get(ctx, snap.ID, p.requester)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusAccepted, after.Status)
	assert.Equal(t, accepted.Version, after.Version)
}

func TestScenario_EmptyMessageRejected(t *testing.T) {
	svc, _ := setupTicketService(t)
	ctx := context.Background()
	snap, p := openTicket(t, svc)

	_, err := svc.AppendMessage(ctx, snap.ID, p.requester, ticket.CreateMessageDTO{Content: "  "})
	assert.True(t, errors.Is(err, ticket.ErrValidation))

	after, err := svc.Get(ctx, snap.ID, p.requester)
	require.NoError(t, err)
	assert.Len(t, after.Messages, len(snap.Messages))
	assert.Equal(t, snap.Version, after.Version)
}

func TestScenario_ConcurrentAcceptFromTwoTabs(t *testing.T) {
	svc, _ := setupTicketService(t)
	ctx := context.Background()
	snap, p := openTicket(t, svc)
	_, err := svc.ProposePrice(ctx, snap.ID, p.performer, 600)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AcceptPrice(ctx, snap.ID, p.requester)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, ticket.ErrInvalidTransition), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	after, err := svc.Get(ctx, snap.ID, p.requester)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusAccepted, after.Status)
	assert.Equal(t, int64(3), after.Version)
}

// --------------------- Guard ---------------------
func TestTicketService_OutsiderCannotReadOrWrite(t *testing.T) {
	svc, _ := setupTicketService(t)
	ctx := context.Background()
	snap, _ := openTicket(t, svc)
	outsider := uuid.New()

	_, err := svc.Get(ctx, snap.ID, outsider)
	assert.True(t, errors.Is(err, ticket.ErrAuthorization))
	_, err = svc.ProposePrice(ctx, snap.ID, outsider, 10)
	assert.True(t, errors.Is(err, ticket.ErrAuthorization))
	_, err = svc.ListMessages(ctx, snap.ID, outsider, 0)
	assert.True(t, errors.Is(err, ticket.ErrAuthorization))

	_, err = svc.Get(ctx, snap.ID, uuid.Nil)
	assert.True(t, errors.Is(err, ticket.ErrAuthentication))
	_, err = svc.Get(ctx, uuid.New(), outsider)
	assert.True(t, errors.Is(err, ticket.ErrNotFound))
}

func TestTicketService_MessagesAndListing(t *testing.T) {
	svc, _ := setupTicketService(t)
	ctx := context.Background()
	snap, p := openTicket(t, svc)

	_, err := svc.AppendMessage(ctx, snap.ID, p.performer, ticket.CreateMessageDTO{Content: "hello"})
	require.NoError(t, err)
	latest, err := svc.AppendMessage(ctx, snap.ID, p.requester, ticket.CreateMessageDTO{AttachmentRef: "bucket/" + ticket.AttachmentPrefix(snap.ID) + "brief.pdf"})
	require.NoError(t, err)
	require.Len(t, latest.Messages, 3)
	assert.IsType(t, ticket.AttachmentMessage{}, latest.Messages[2])

	tail, err := svc.ListMessages(ctx, snap.ID, p.requester, 1)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, 2, tail[0].Sequence())

	_, err = svc.ListMessages(ctx, snap.ID, p.requester, -1)
	assert.True(t, errors.Is(err, ticket.ErrValidation))

	list, err := svc.List(ctx, p.performer, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, snap.ID, list[0].ID)
}

func TestTicketService_DuplicateApplication(t *testing.T) {
	svc, _ := setupTicketService(t)
	ctx := context.Background()
	_, p := openTicket(t, svc)

	_, err := svc.CreateForApplication(ctx, "gig-500", p.requester, p.performer)
	assert.True(t, errors.Is(err, ticket.ErrValidation))

	_, err = svc.CreateForApplication(ctx, "gig-501", p.performer, p.performer)
	assert.True(t, errors.Is(err, ticket.ErrValidation))

	_, err = svc.CreateForApplication(ctx, " ", p.requester, p.performer)
	assert.True(t, errors.Is(err, ticket.ErrValidation))

	list, err := svc.List(ctx, p.performer, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// --------------------- Realtime ---------------------
func TestTicketService_NotifySkipsActor(t *testing.T) {
	repos := repository.NewRepositories(testutils.NewSQLiteDB(t))
	hub := realtime.NewHub()
	channel := realtime.NewChannel(hub, realtime.NewLocalBroker(), 3000)
	require.NoError(t, channel.Start())
	svc := NewTicketService(repos, channel, TicketOptions{})
	ctx := context.Background()

	snap, p := openTicket(t, svc)
	requesterConn := realtime.NewClient(hub, snap.ID, p.requester)
	performerConn := realtime.NewClient(hub, snap.ID, p.performer)
	hub.Join(requesterConn)
	hub.Join(performerConn)

	_, err := svc.ProposePrice(ctx, snap.ID, p.performer, 600)
	require.NoError(t, err)

	select {
	case frame := <-requesterConn.Outbox():
		var ev realtime.Event
		require.NoError(t, json.Unmarshal(frame, &ev))
		assert.Equal(t, realtime.EventUpdate, ev.Type)
		require.NotNil(t, ev.Ticket)
		assert.Equal(t, ticket.StatusNegotiating, ev.Ticket.Status)
	case <-time.After(time.Second):
		t.Fatal("requester was not notified")
	}
	assert.Empty(t, performerConn.Outbox())

	svc.Typing(ctx, snap.ID, p.requester)
	frame := <-performerConn.Outbox()
	var ev realtime.Event
	require.NoError(t, json.Unmarshal(frame, &ev))
	assert.Equal(t, realtime.EventTyping, ev.Type)
	assert.Equal(t, int64(3000), ev.TTLMs)
	assert.Empty(t, requesterConn.Outbox())
}

func TestTicketService_NotifyFailureDoesNotFailMutation(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := rtmock.NewMockNotifier(ctrl)
	svc := NewTicketService(repository.NewRepositories(testutils.NewSQLiteDB(t)), notifier, TicketOptions{})

	notifier.EXPECT().NotifyUpdate(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("broker down")).Times(2)

	snap, p := openTicket(t, svc)
	out, err := svc.ProposePrice(context.Background(), snap.ID, p.requester, 50)
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusNegotiating, out.Status)
}

// --------------------- Store failures (mocked) ---------------------
func setupMockedStore(t *testing.T) (*TicketService, *mock.MockTicketRepo, *ticket.Ticket) {
	ctrl := gomock.NewController(t)
	t.Cleanup(func() { ctrl.Finish() })

	mockTicket := mock.NewMockTicketRepo(ctrl)
	svc := NewTicketService(&repository.Repos{Ticket: mockTicket}, nil, TicketOptions{StoreTimeout: time.Second})
	tk := &ticket.Ticket{
		ID:          uuid.New(),
		RequesterID: uuid.New(),
		PerformerID: uuid.New(),
		Status:      ticket.StatusOpen,
		Version:     4,
	}
	return svc, mockTicket, tk
}

func TestTicketService_RetriesConflictOnce(t *testing.T) {
	svc, mockTicket, tk := setupMockedStore(t)
	fresh := tk.Clone()
	fresh.Version = 5
	committed := fresh.Clone()
	committed.Version = 6
	committed.Status = ticket.StatusNegotiating

	gomock.InOrder(
		mockTicket.EXPECT().Load(gomock.Any(), tk.ID).Return(tk, nil),
		mockTicket.EXPECT().Commit(gomock.Any(), tk.ID, int64(4), gomock.Any()).Return(nil, ticket.ErrConcurrencyConflict),
		mockTicket.EXPECT().Load(gomock.Any(), tk.ID).Return(fresh, nil),
		mockTicket.EXPECT().Commit(gomock.Any(), tk.ID, int64(5), gomock.Any()).Return(committed, nil),
	)

	snap, err := svc.ProposePrice(context.Background(), tk.ID, tk.RequesterID, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(6), snap.Version)
}

func TestTicketService_SecondConflictSurfaces(t *testing.T) {
	svc, mockTicket, tk := setupMockedStore(t)

	mockTicket.EXPECT().Load(gomock.Any(), tk.ID).Return(tk, nil).Times(2)
	mockTicket.EXPECT().Commit(gomock.Any(), tk.ID, int64(4), gomock.Any()).Return(nil, ticket.ErrConcurrencyConflict).Times(2)

	_, err := svc.AcceptPrice(context.Background(), tk.ID, tk.RequesterID)
	assert.True(t, errors.Is(err, ticket.ErrConcurrencyConflict))
}

func TestTicketService_StoreTimeoutIsRetryable(t *testing.T) {
	svc, mockTicket, tk := setupMockedStore(t)

	mockTicket.EXPECT().Load(gomock.Any(), tk.ID).Return(tk, nil)
	mockTicket.EXPECT().Commit(gomock.Any(), tk.ID, int64(4), gomock.Any()).
		Return(nil, errors.WithStack(context.DeadlineExceeded))

	_, err := svc.ConfirmPayment(context.Background(), tk.ID, tk.RequesterID)
	assert.True(t, errors.Is(err, ticket.ErrTimeout))
}

func TestTicketService_MutationSurvivesCallerCancel(t *testing.T) {
	svc, mockTicket, tk := setupMockedStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	committed := tk.Clone()
	committed.Version = 5
	mockTicket.EXPECT().Load(gomock.Any(), tk.ID).DoAndReturn(func(ctx context.Context, _ uuid.UUID) (*ticket.Ticket, error) {
		assert.NoError(t, ctx.Err())
		return tk, nil
	})
	mockTicket.EXPECT().Commit(gomock.Any(), tk.ID, int64(4), gomock.Any()).Return(committed, nil)

	_, err := svc.AppendMessage(ctx, tk.ID, tk.PerformerID, ticket.CreateMessageDTO{Content: "hi"})
	assert.NoError(t, err)
}
