package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories that share one connection or transaction.
type Store struct {
	db            *gorm.DB
	Tasks         *TaskRepository
	Checkins      *CheckinRepository
	NumberEntries *NumberEntryRepository
	Subscribers   *SubscriberRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Tasks:         NewTaskRepository(db),
		Checkins:      NewCheckinRepository(db),
		NumberEntries: NewNumberEntryRepository(db),
		Subscribers:   NewSubscriberRepository(db),
	}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn as one unit of work. Returning an error rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
