package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"goal-tracker/internal/clock"
	"goal-tracker/internal/logger"
	"goal-tracker/internal/model"
	"goal-tracker/internal/repository"
)

type testEnv struct {
	store    *repository.Store
	clock    *clock.Fixed
	calendar *clock.Calendar
	tasks    *TaskService
	catalog  *CatalogService
}

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()

	log := logger.NewNop()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "app.db"), log)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db, log))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := repository.NewStore(db)
	fixed := clock.NewFixed(now)
	cal := clock.NewCalendar(fixed, time.UTC)

	return &testEnv{
		store:    store,
		clock:    fixed,
		calendar: cal,
		tasks:    NewTaskService(store, cal, log),
		catalog:  NewCatalogService(store, log),
	}
}

func ptr[T any](v T) *T { return &v }

func confirmTask(id uint, name string) model.Task {
	return model.Task{
		ID:            id,
		TechnicalName: name,
		TileText:      "Went swimming?",
		SuccessText:   "§current of $goal, due $deadline",
		Deadline:      "2025-12-31",
		Goal:          26,
		TaskType:      model.TaskTypeConfirm,
	}
}

func numberTask(id uint, name string) model.Task {
	return model.Task{
		ID:            id,
		TechnicalName: name,
		TileText:      "Weight",
		SuccessText:   "now §current, target $goal",
		Deadline:      "2025-12-31",
		Goal:          80,
		TaskType:      model.TaskTypeNumberDiff,
		StartValue:    ptr(85.0),
	}
}

func (e *testEnv) seed(t *testing.T, tasks ...model.Task) {
	t.Helper()
	_, err := e.catalog.Sync(context.Background(), tasks)
	require.NoError(t, err)
}
