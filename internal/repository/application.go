package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/linskybing/gigdesk/internal/domain/gig"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ApplicationRepo interface {
	Create(ctx context.Context, app *gig.Application) error
	FindByGigAndPerformer(ctx context.Context, gigRef string, performerID uuid.UUID) (*gig.Application, error)
	WithTx(tx *gorm.DB) ApplicationRepo
}

type DBApplicationRepo struct {
	db *gorm.DB
}

func NewApplicationRepo(db *gorm.DB) *DBApplicationRepo {
	return &DBApplicationRepo{
		db: db,
	}
}

func (r *DBApplicationRepo) Create(ctx context.Context, app *gig.Application) error {
	return errors.WithStack(r.db.WithContext(ctx).Create(app).Error)
}

// FindByGigAndPerformer returns gorm.ErrRecordNotFound (wrapped) when the performer has not applied.
func (r *DBApplicationRepo) FindByGigAndPerformer(ctx context.Context, gigRef string, performerID uuid.UUID) (*gig.Application, error) {
	var app gig.Application
	err := r.db.WithContext(ctx).
		Where("gig_ref = ? AND performer_id = ?", gigRef, performerID).
		First(&app).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &app, nil
}

func (r *DBApplicationRepo) WithTx(tx *gorm.DB) ApplicationRepo {
	if tx == nil {
		return r
	}
	return &DBApplicationRepo{
		db: tx,
	}
}
