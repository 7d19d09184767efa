package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"goal-tracker/internal/apperrors"
	"goal-tracker/internal/clock"
	"goal-tracker/internal/logger"
	"goal-tracker/internal/model"
	"goal-tracker/internal/repository"
)

// TaskDefinition is one entry of the task catalog file.
type TaskDefinition struct {
	ID            *uint    `json:"id"`
	TechnicalName string   `json:"technical_name"`
	TileText      *string  `json:"tile_text"`
	TitleText     *string  `json:"title_text"`
	SuccessText   *string  `json:"success_text"`
	SucessText    *string  `json:"sucess_text"`
	Deadline      string   `json:"deadline"`
	Goal          *float64 `json:"goal"`
	TaskType      string   `json:"task_type"`
	StartValue    *float64 `json:"startvalue"`
}

// SyncResult reports what a catalog load changed.
type SyncResult struct {
	Created int
	Updated int
}

// CatalogService keeps the tasks table in line with the catalog file.
type CatalogService struct {
	store *repository.Store
	log   *logger.Logger
}

func NewCatalogService(store *repository.Store, log *logger.Logger) *CatalogService {
	return &CatalogService{store: store, log: log}
}

// SyncFile validates every definition in path and upserts them in one
// transaction. Nothing is written when any definition is invalid.
func (s *CatalogService) SyncFile(ctx context.Context, path string) (SyncResult, error) {
	tasks, err := ReadCatalog(path)
	if err != nil {
		return SyncResult{}, err
	}
	result, err := s.Sync(ctx, tasks)
	if err != nil {
		return result, err
	}
	s.log.Info("task catalog synced",
		zap.String("path", path),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
	)
	return result, nil
}

// Sync upserts already validated tasks by technical name. Tasks missing from
// the input are left alone.
func (s *CatalogService) Sync(ctx context.Context, tasks []model.Task) (SyncResult, error) {
	var result SyncResult
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		result = SyncResult{}
		for i := range tasks {
			def := tasks[i]
			existing, err := tx.Tasks.FindByTechnicalName(ctx, def.TechnicalName)
			switch {
			case err == nil:
				existing.TileText = def.TileText
				existing.SuccessText = def.SuccessText
				existing.Deadline = def.Deadline
				existing.Goal = def.Goal
				existing.TaskType = def.TaskType
				existing.StartValue = def.StartValue
				if err := tx.Tasks.UpdateDefinition(ctx, existing); err != nil {
					return err
				}
				result.Updated++
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Tasks.Create(ctx, &def); err != nil {
					if errors.Is(err, gorm.ErrDuplicatedKey) {
						return apperrors.Config("task %s: id %d is already used by another task", def.TechnicalName, def.ID)
					}
					return err
				}
				result.Created++
			default:
				return fmt.Errorf("find task %s: %w", def.TechnicalName, err)
			}
		}
		return nil
	})
	return result, err
}

// ReadCatalog loads and validates the catalog file.
func ReadCatalog(path string) ([]model.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.Config("task file not found: %s", path)
		}
		return nil, apperrors.Config("read task file %s: %v", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a JSON array of task definitions and validates each one.
func ParseCatalog(data []byte) ([]model.Task, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.Config("task file is not valid JSON: %v", err)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, apperrors.Config("task file must contain a JSON array")
	}

	var defs []TaskDefinition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, apperrors.Config("decode task definitions: %v", err)
	}

	tasks := make([]model.Task, 0, len(items))
	seenNames := make(map[string]int, len(defs))
	seenIDs := make(map[uint]int, len(defs))
	for i, def := range defs {
		task, err := def.toTask()
		if err != nil {
			return nil, apperrors.Config("task #%d (%s): %v", i+1, def.TechnicalName, err)
		}
		if first, ok := seenNames[task.TechnicalName]; ok {
			return nil, apperrors.Config("task #%d: technical_name %q already used by task #%d", i+1, task.TechnicalName, first)
		}
		seenNames[task.TechnicalName] = i + 1
		if task.ID != 0 {
			if first, ok := seenIDs[task.ID]; ok {
				return nil, apperrors.Config("task #%d (%s): id %d already used by task #%d", i+1, task.TechnicalName, task.ID, first)
			}
			seenIDs[task.ID] = i + 1
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (d TaskDefinition) toTask() (model.Task, error) {
	name := strings.TrimSpace(d.TechnicalName)
	if name == "" {
		return model.Task{}, errors.New("technical_name is required")
	}

	tile := firstNonEmpty(d.TileText, d.TitleText)
	if strings.TrimSpace(tile) == "" {
		return model.Task{}, errors.New("tile_text is required")
	}

	if strings.TrimSpace(d.Deadline) == "" {
		return model.Task{}, errors.New("deadline is required")
	}
	deadline, err := clock.ParseDate(strings.TrimSpace(d.Deadline))
	if err != nil {
		return model.Task{}, fmt.Errorf("deadline %q is not an ISO date", d.Deadline)
	}

	if d.Goal == nil {
		return model.Task{}, errors.New("goal is required")
	}

	taskType := model.TaskType(normalizeKeyword(d.TaskType))
	if taskType == "" {
		taskType = model.TaskTypeConfirm
	}
	if _, ok := taskKinds[taskType]; !ok {
		return model.Task{}, fmt.Errorf("unknown task_type %q", d.TaskType)
	}

	success := NormalizeLineBreaks(firstNonEmpty(d.SuccessText, d.SucessText))

	switch taskType {
	case model.TaskTypeNumberDiff:
		if d.StartValue == nil {
			return model.Task{}, errors.New("startvalue is required for number_diff tasks")
		}
	case model.TaskTypeConfirm:
		if strings.TrimSpace(success) == "" {
			return model.Task{}, errors.New("success_text is required for confirm tasks")
		}
	}

	task := model.Task{
		TechnicalName: name,
		TileText:      tile,
		SuccessText:   success,
		Deadline:      deadline.Format(clock.DateLayout),
		Goal:          *d.Goal,
		TaskType:      taskType,
		StartValue:    d.StartValue,
	}
	if d.ID != nil {
		task.ID = *d.ID
	}
	return task, nil
}

func firstNonEmpty(values ...*string) string {
	for _, v := range values {
		if v != nil && strings.TrimSpace(*v) != "" {
			return *v
		}
	}
	return ""
}
