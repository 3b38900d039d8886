package repository

import (
	"context"

	"gorm.io/gorm"
)

type Repos struct {
	Ticket      TicketRepo
	Application ApplicationRepo

	db *gorm.DB
}

func NewRepositories(db *gorm.DB) *Repos {
	return &Repos{
		Ticket:      NewTicketRepo(db),
		Application: NewApplicationRepo(db),
		db:          db,
	}
}

func (r *Repos) WithTx(tx *gorm.DB) *Repos {
	return &Repos{
		Ticket:      r.Ticket.WithTx(tx),
		Application: r.Application.WithTx(tx),
		db:          tx,
	}
}

func (r *Repos) ExecTx(ctx context.Context, fn func(*Repos) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepos := r.WithTx(tx)
		return fn(txRepos)
	})
}
