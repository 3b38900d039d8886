package application

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linskybing/gigdesk/internal/domain/ticket"
	"github.com/linskybing/gigdesk/internal/repository"
	"github.com/linskybing/gigdesk/internal/storage"
	"github.com/pkg/errors"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// AttachmentService uploads files whose reference is later sent with
// AppendMessage. The upload alone does not touch the ticket.
type AttachmentService struct {
	repos    *repository.Repos
	store    storage.ObjectStore
	maxBytes int64
	timeout  time.Duration
}

func NewAttachmentService(repos *repository.Repos, store storage.ObjectStore, maxBytes int64, timeout time.Duration) *AttachmentService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AttachmentService{repos: repos, store: store, maxBytes: maxBytes, timeout: timeout}
}

func (s *AttachmentService) Upload(ctx context.Context, ticketID, actorID uuid.UUID, filename string, r io.Reader, size int64, contentType string) (ticket.AttachmentDTO, error) {
	if actorID == uuid.Nil {
		return ticket.AttachmentDTO{}, ticket.ErrAuthentication
	}
	if s.store == nil {
		return ticket.AttachmentDTO{}, errors.New("attachment storage is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	t, err := s.repos.Ticket.Load(ctx, ticketID)
	if err != nil {
		return ticket.AttachmentDTO{}, timeoutOr(ctx, err)
	}
	if err := t.RequireParticipant(actorID); err != nil {
		return ticket.AttachmentDTO{}, err
	}
	if t.Status == ticket.StatusClosed {
		return ticket.AttachmentDTO{}, errors.Wrap(ticket.ErrInvalidTransition, "cannot attach files to a closed ticket")
	}
	if size <= 0 {
		return ticket.AttachmentDTO{}, errors.Wrap(ticket.ErrValidation, "attachment is empty")
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return ticket.AttachmentDTO{}, errors.Wrapf(ticket.ErrValidation, "attachment exceeds %d bytes", s.maxBytes)
	}

	key := fmt.Sprintf("%s%s-%s", ticket.AttachmentPrefix(ticketID), uuid.New(), cleanFilename(filename))
	ref, err := s.store.PutObject(ctx, key, r, size, contentType)
	if err != nil {
		return ticket.AttachmentDTO{}, timeoutOr(ctx, err)
	}
	return ticket.AttachmentDTO{AttachmentRef: ref, Size: size, ContentType: contentType}, nil
}

func cleanFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	return name
}
