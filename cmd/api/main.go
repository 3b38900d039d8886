package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/linskybing/gigdesk/docs"
	"github.com/linskybing/gigdesk/internal/api/handlers"
	"github.com/linskybing/gigdesk/internal/api/middleware"
	"github.com/linskybing/gigdesk/internal/api/routes"
	"github.com/linskybing/gigdesk/internal/application"
	"github.com/linskybing/gigdesk/internal/config"
	"github.com/linskybing/gigdesk/internal/config/db"
	"github.com/linskybing/gigdesk/internal/realtime"
	"github.com/linskybing/gigdesk/internal/repository"
	"github.com/linskybing/gigdesk/internal/storage"
	"github.com/linskybing/gigdesk/pkg/logger"
)

// @title Gig Ticket API
// @version 1.0
// @description Negotiation, fulfillment and messaging for campus gig tickets.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables and .env file
	config.LoadConfig()
	logger.Init(config.LogLevel, config.LogFormat)
	log := logger.WithComponent("main")

	// Initialize JWT signing key
	middleware.Init()

	// Initialize database connection and migrate
	db.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	broker := newBroker()
	defer broker.Close()

	hub := realtime.NewHub()
	channel := realtime.NewChannel(hub, broker, config.TypingTTL.Milliseconds())
	if err := channel.Start(); err != nil {
		log.Fatalf("Failed to subscribe realtime channel: %v", err)
	}

	var objects storage.ObjectStore
	minioStore, err := storage.NewMinioStore(ctx, storage.MinioOptions{
		Endpoint:  config.MinioEndpoint,
		AccessKey: config.MinioAccessKey,
		SecretKey: config.MinioSecretKey,
		Bucket:    config.MinioBucket,
		UseSSL:    config.MinioUseSSL,
	})
	if err != nil {
		// Attachments are optional; text messaging keeps working.
		log.WithError(err).Warn("attachment storage unavailable")
	} else {
		objects = minioStore
	}

	repos := repository.NewRepositories(db.DB)
	services := application.New(repos, channel, objects, application.Options{
		Ticket: application.TicketOptions{
			StoreTimeout:     config.StoreTimeout,
			NotifyTimeout:    config.NotifyTimeout,
			MaxMessageLength: config.MaxMessageLength,
		},
		MaxAttachmentBytes: config.MaxAttachmentBytes,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(config.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware())
	router.MaxMultipartMemory = config.MaxAttachmentBytes

	h := handlers.New(services, hub, db.DB, config.AllowedOrigins)
	routes.RegisterRoutes(router, h)

	srv := &http.Server{
		Addr:              ":" + config.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Starting API server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

func newBroker() realtime.Broker {
	log := logger.WithComponent("main")
	if config.RealtimeBroker != "rabbitmq" {
		return realtime.NewLocalBroker()
	}
	broker, err := realtime.NewRabbitBroker(config.RabbitMQURL, config.RabbitMQExchange)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	log.WithField("exchange", config.RabbitMQExchange).Info("realtime fan-out through RabbitMQ")
	return broker
}
