package application

import (
	"time"

	"github.com/linskybing/gigdesk/internal/realtime"
	"github.com/linskybing/gigdesk/internal/repository"
	"github.com/linskybing/gigdesk/internal/storage"
)

type Services struct {
	Ticket     *TicketService
	Attachment *AttachmentService
}

type Options struct {
	Ticket             TicketOptions
	MaxAttachmentBytes int64
	UploadTimeout      time.Duration
}

func New(repos *repository.Repos, notifier realtime.Notifier, store storage.ObjectStore, opts Options) *Services {
	return &Services{
		Ticket:     NewTicketService(repos, notifier, opts.Ticket),
		Attachment: NewAttachmentService(repos, store, opts.MaxAttachmentBytes, opts.UploadTimeout),
	}
}
