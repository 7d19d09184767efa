package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"goal-tracker/internal/model"
)

// TaskRepository handles reads and catalog writes for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// UpdateDefinition overwrites every catalog-owned column, including zero values.
func (r *TaskRepository) UpdateDefinition(ctx context.Context, task *model.Task) error {
	err := r.db.WithContext(ctx).Model(task).
		Select("tile_text", "success_text", "deadline", "goal", "task_type", "start_value").
		Updates(task).Error
	if err != nil {
		return fmt.Errorf("update task %s: %w", task.TechnicalName, err)
	}
	return nil
}

// List returns all tasks ordered by id.
func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) FindByTechnicalName(ctx context.Context, name string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("technical_name = ?", name).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}
