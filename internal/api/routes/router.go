package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/linskybing/gigdesk/internal/api/handlers"
	"github.com/linskybing/gigdesk/internal/api/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.GET("/healthz", h.Health.Healthz)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := r.Group("/")
	auth.Use(middleware.JWTAuthMiddleware())
	{
		auth.GET("/ws/tickets/:id", h.TicketSocket.Join)

		TicketRoutes(auth, h.Ticket)

		gigs := auth.Group("/gigs")
		{
			gigs.POST("/:gig_ref/applications", h.Gig.Apply)
		}
	}
}
