package db

import (
	"fmt"

	"github.com/linskybing/gigdesk/internal/config"
	"github.com/linskybing/gigdesk/internal/domain/gig"
	"github.com/linskybing/gigdesk/internal/domain/ticket"
	"github.com/linskybing/gigdesk/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init() {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		config.DbHost,
		config.DbPort,
		config.DbUser,
		config.DbPassword,
		config.DbName,
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Log.Fatalf("Failed to connect to DB: %v", err)
	}

	if err := Migrate(DB); err != nil {
		logger.Log.Fatalf("Failed to auto migrate: %v", err)
	}

	logger.Log.Info("Database connected and migrated")
}

// Migrate creates or updates the engine's tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&ticket.Ticket{},
		&ticket.MessageRecord{},
		&gig.Application{},
	)
}
