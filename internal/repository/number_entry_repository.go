package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"goal-tracker/internal/model"
)

// NumberEntryRepository stores daily values of number_diff tasks.
type NumberEntryRepository struct {
	db *gorm.DB
}

func NewNumberEntryRepository(db *gorm.DB) *NumberEntryRepository {
	return &NumberEntryRepository{db: db}
}

// Latest returns the most recent entry by day, or nil when the task has none.
func (r *NumberEntryRepository) Latest(ctx context.Context, taskID uint) (*model.NumberEntry, error) {
	var entry model.NumberEntry
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("day DESC").First(&entry).Error
	switch {
	case err == nil:
		return &entry, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find latest entry: %w", err)
	}
}

// ListByTask returns all entries of a task, newest day first.
func (r *NumberEntryRepository) ListByTask(ctx context.Context, taskID uint) ([]model.NumberEntry, error) {
	var entries []model.NumberEntry
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).
		Order("day DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Upsert writes the entry for its day, replacing a value stored earlier that day.
func (r *NumberEntryRepository) Upsert(ctx context.Context, entry *model.NumberEntry) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "task_id"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "created_at"}),
	}).Create(entry).Error
	if err != nil {
		return fmt.Errorf("upsert number entry: %w", err)
	}
	return nil
}
