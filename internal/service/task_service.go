package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"goal-tracker/internal/apperrors"
	"goal-tracker/internal/clock"
	"goal-tracker/internal/logger"
	"goal-tracker/internal/model"
	"goal-tracker/internal/repository"
)

const (
	MinValue = -100000
	MaxValue = 100000
)

// Overview is the list response: today's date and every task's progress.
type Overview struct {
	Today string     `json:"today"`
	Tasks []TaskView `json:"tasks"`
}

type ConfirmResult struct {
	AlreadyYes bool
}

// TaskService wraps the daily check-in and measurement logic.
type TaskService struct {
	store    *repository.Store
	calendar *clock.Calendar
	log      *logger.Logger
}

func NewTaskService(store *repository.Store, calendar *clock.Calendar, log *logger.Logger) *TaskService {
	return &TaskService{store: store, calendar: calendar, log: log}
}

func (s *TaskService) progressDate() ProgressDate {
	return ProgressDate{Today: s.calendar.TodayISO(), YearStart: s.calendar.YearStartISO()}
}

// List computes the progress view of every task, ordered by id.
func (s *TaskService) List(ctx context.Context) (Overview, error) {
	date := s.progressDate()
	overview := Overview{Today: date.Today, Tasks: []TaskView{}}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		tasks, err := tx.Tasks.List(ctx)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		for _, task := range tasks {
			entries, err := loadEntries(ctx, tx, task, date)
			if err != nil {
				return fmt.Errorf("load entries for task %d: %w", task.ID, err)
			}
			overview.Tasks = append(overview.Tasks, ComputeView(task, entries, date))
		}
		return nil
	})
	if err != nil {
		return Overview{}, err
	}
	return overview, nil
}

// Confirm records today's answer for a confirm task. A "yes" already stored for
// today is never replaced; the result reports it instead.
func (s *TaskService) Confirm(ctx context.Context, taskID uint, answer string) (ConfirmResult, error) {
	answer = normalizeKeyword(answer)
	if answer != model.AnswerYes && answer != model.AnswerNo {
		rejectedWrites.WithLabelValues("invalid_answer").Inc()
		return ConfirmResult{}, apperrors.Validation("answer must be 'yes' or 'no'")
	}

	var result ConfirmResult
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		task, err := findTask(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if !task.IsConfirm() {
			rejectedWrites.WithLabelValues("wrong_task_type").Inc()
			return apperrors.Validation("task %d is not a confirm task", taskID)
		}

		today := s.calendar.TodayISO()
		existing, err := tx.Checkins.FindForDay(ctx, task.ID, today)
		if err != nil {
			return err
		}
		if existing != nil && existing.Answer == model.AnswerYes {
			result.AlreadyYes = true
			return nil
		}

		applied, err := tx.Checkins.UpsertUnlessYes(ctx, &model.Checkin{
			TaskID:    task.ID,
			Day:       today,
			Answer:    answer,
			CreatedAt: s.calendar.Now(),
		})
		if err != nil {
			return err
		}
		// A concurrent request stored "yes" between the read and the write.
		result.AlreadyYes = !applied
		return nil
	})
	if err != nil {
		return ConfirmResult{}, err
	}

	if !result.AlreadyYes {
		checkinsTotal.WithLabelValues(answer).Inc()
		s.log.Info("checkin recorded", zap.Uint("task_id", taskID), zap.String("answer", answer))
	}
	return result, nil
}

// RecordValue stores today's measurement for a number_diff task. Once the latest
// stored value has reached the goal the task is locked for good.
func (s *TaskService) RecordValue(ctx context.Context, taskID uint, value float64) error {
	if math.IsNaN(value) || value < MinValue || value > MaxValue {
		rejectedWrites.WithLabelValues("out_of_range").Inc()
		return apperrors.Validation("value must be between %d and %d", MinValue, MaxValue)
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		task, err := findTask(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if !task.IsNumberDiff() {
			rejectedWrites.WithLabelValues("wrong_task_type").Inc()
			return apperrors.Validation("task %d is not a number_diff task", taskID)
		}

		latest, err := tx.NumberEntries.Latest(ctx, task.ID)
		if err != nil {
			return err
		}
		if latest != nil && latest.Value <= task.Goal {
			rejectedWrites.WithLabelValues("already_achieved").Inc()
			return apperrors.Conflict("task %d already achieved", taskID)
		}

		return tx.NumberEntries.Upsert(ctx, &model.NumberEntry{
			TaskID:    task.ID,
			Day:       s.calendar.TodayISO(),
			Value:     value,
			CreatedAt: s.calendar.Now(),
		})
	})
	if err != nil {
		return err
	}

	numberEntriesTotal.Inc()
	s.log.Info("value recorded", zap.Uint("task_id", taskID), zap.Float64("value", value))
	return nil
}

func findTask(ctx context.Context, tx *repository.Store, taskID uint) (*model.Task, error) {
	task, err := tx.Tasks.FindByID(ctx, taskID)
	switch {
	case err == nil:
		return task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperrors.NotFound("task %d not found", taskID)
	default:
		return nil, fmt.Errorf("find task %d: %w", taskID, err)
	}
}
