package application

import (
	"context"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/linskybing/gigdesk/internal/domain/ticket"
	"github.com/linskybing/gigdesk/internal/repository"
	"github.com/linskybing/gigdesk/internal/repository/mock"
	storagemock "github.com/linskybing/gigdesk/internal/storage/mock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAttachmentService(t *testing.T, maxBytes int64) (*AttachmentService, *mock.MockTicketRepo, *storagemock.MockObjectStore, *ticket.Ticket) {
	ctrl := gomock.NewController(t)
	t.Cleanup(func() { ctrl.Finish() })

	mockTicket := mock.NewMockTicketRepo(ctrl)
	store := storagemock.NewMockObjectStore(ctrl)
	svc := NewAttachmentService(&repository.Repos{Ticket: mockTicket}, store, maxBytes, 0)
	tk := &ticket.Ticket{ID: uuid.New(), RequesterID: uuid.New(), PerformerID: uuid.New(), Status: ticket.StatusNegotiating, Version: 2}
	return svc, mockTicket, store, tk
}

func TestUpload_Success(t *testing.T) {
	svc, mockTicket, store, tk := setupAttachmentService(t, 1024)

	mockTicket.EXPECT().Load(gomock.Any(), tk.ID).Return(tk, nil)
	store.EXPECT().PutObject(gomock.Any(), gomock.Any(), gomock.Any(), int64(5), "text/plain").
		DoAndReturn(func(_ context.Context, key string, _ interface{}, _ int64, _ string) (string, error) {
			assert.True(t, strings.HasPrefix(key, "tickets/"+tk.ID.String()+"/"))
			assert.True(t, strings.HasSuffix(key, "-my_notes.txt"))
			return "ticket-attachments/" + key, nil
		})

	out, err := svc.Upload(context.Background(), tk.ID, tk.PerformerID, "../my notes.txt", strings.NewReader("hello"), 5, "text/plain")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.AttachmentRef, "ticket-attachments/tickets/"))
	assert.Equal(t, int64(5), out.Size)
}

func TestUpload_TooLarge(t *testing.T) {
	svc, mockTicket, _, tk := setupAttachmentService(t, 4)
	mockTicket.EXPECT().Load(gomock.Any(), tk.ID).Return(tk, nil)

	_, err := svc.Upload(context.Background(), tk.ID, tk.RequesterID, "a.bin", strings.NewReader("hello"), 5, "")
	assert.True(t, errors.Is(err, ticket.ErrValidation))
}

func TestUpload_Outsider(t *testing.T) {
	svc, mockTicket, _, tk := setupAttachmentService(t, 1024)
	mockTicket.EXPECT().Load(gomock.Any(), tk.ID).Return(tk, nil)

	_, err := svc.Upload(context.Background(), tk.ID, uuid.New(), "a.bin", strings.NewReader("x"), 1, "")
	assert.True(t, errors.Is(err, ticket.ErrAuthorization))
}

func TestUpload_ClosedTicket(t *testing.T) {
	svc, mockTicket, _, tk := setupAttachmentService(t, 1024)
	tk.Status = ticket.StatusClosed
	mockTicket.EXPECT().Load(gomock.Any(), tk.ID).Return(tk, nil)

	_, err := svc.Upload(context.Background(), tk.ID, tk.RequesterID, "a.bin", strings.NewReader("x"), 1, "")
	assert.True(t, errors.Is(err, ticket.ErrInvalidTransition))
}

func TestCleanFilename(t *testing.T) {
	assert.Equal(t, "report.pdf", cleanFilename(`C:\Users\me\report.pdf`))
	assert.Equal(t, "file", cleanFilename(".."))
	assert.Equal(t, "a_b.png", cleanFilename("a b.png"))
}
