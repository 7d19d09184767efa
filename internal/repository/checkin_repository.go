package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"goal-tracker/internal/model"
)

// CheckinRepository stores daily answers of confirm tasks.
type CheckinRepository struct {
	db *gorm.DB
}

func NewCheckinRepository(db *gorm.DB) *CheckinRepository {
	return &CheckinRepository{db: db}
}

// FindForDay returns the checkin of a task for a day, or nil when there is none.
func (r *CheckinRepository) FindForDay(ctx context.Context, taskID uint, day string) (*model.Checkin, error) {
	var checkin model.Checkin
	err := r.db.WithContext(ctx).Where("task_id = ? AND day = ?", taskID, day).First(&checkin).Error
	switch {
	case err == nil:
		return &checkin, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find checkin: %w", err)
	}
}

// ListSince returns checkins of a task on or after the given day, oldest first.
func (r *CheckinRepository) ListSince(ctx context.Context, taskID uint, day string) ([]model.Checkin, error) {
	var checkins []model.Checkin
	if err := r.db.WithContext(ctx).Where("task_id = ? AND day >= ?", taskID, day).
		Order("day ASC").
		Find(&checkins).Error; err != nil {
		return nil, err
	}
	return checkins, nil
}

// UpsertUnlessYes writes the checkin for its day. An existing "yes" is never
// overwritten; in that case applied is false.
func (r *CheckinRepository) UpsertUnlessYes(ctx context.Context, checkin *model.Checkin) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "task_id"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"answer", "created_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Neq{Column: clause.Column{Table: "checkins", Name: "answer"}, Value: model.AnswerYes},
		}},
	}).Create(checkin)
	if res.Error != nil {
		return false, fmt.Errorf("upsert checkin: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
