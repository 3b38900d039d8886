package handlers

import (
	"github.com/linskybing/gigdesk/internal/application"
	"github.com/linskybing/gigdesk/internal/realtime"
	"gorm.io/gorm"
)

type Handlers struct {
	Ticket       *TicketHandler
	Gig          *GigHandler
	TicketSocket *TicketSocketHandler
	Health       *HealthHandler
}

func New(svc *application.Services, hub *realtime.Hub, db *gorm.DB, allowedOrigins []string) *Handlers {
	return &Handlers{
		Ticket:       NewTicketHandler(svc.Ticket, svc.Attachment),
		Gig:          NewGigHandler(svc.Ticket),
		TicketSocket: NewTicketSocketHandler(svc.Ticket, hub, allowedOrigins),
		Health:       NewHealthHandler(db),
	}
}
