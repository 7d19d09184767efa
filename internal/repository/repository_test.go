package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"goal-tracker/internal/logger"
	"goal-tracker/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "app.db"), logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, Migrate(db, logger.NewNop()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return NewStore(db)
}

func seedTask(t *testing.T, s *Store, task model.Task) *model.Task {
	t.Helper()
	require.NoError(t, s.Tasks.Create(context.Background(), &task))
	return &task
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, Migrate(s.DB(), logger.NewNop()))

	history, err := MigrationHistory(s.DB())
	require.NoError(t, err)
	require.Len(t, history, len(Migrations))
	for i, rec := range history {
		assert.Equal(t, Migrations[i].Version, rec.Version)
		assert.Equal(t, Migrations[i].Name, rec.Name)
	}
}

func TestMigrateStopsOnFailingStep(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "app.db"), logger.NewNop())
	require.NoError(t, err)

	steps := []Migration{
		{Version: 1, Name: "create_tasks", Up: func(tx *gorm.DB) error { return tx.AutoMigrate(&model.Task{}) }},
		{Version: 2, Name: "broken", Up: func(*gorm.DB) error { return errors.New("boom") }},
	}
	err = migrate(db, logger.NewNop(), steps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	history, err := MigrationHistory(db)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestBackfillTaskType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := seedTask(t, s, model.Task{ID: 1, TechnicalName: "swim", TileText: "Swim?", SuccessText: "x", Deadline: "2025-12-31", Goal: 26})
	require.NoError(t, s.DB().Exec("UPDATE tasks SET task_type = '' WHERE id = ?", task.ID).Error)

	require.NoError(t, Migrations[3].Up(s.DB()))

	got, err := s.Tasks.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskTypeConfirm, got.TaskType)
}

func TestTaskRepositoryUpdateDefinitionClearsStartValue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	start := 85.0
	task := seedTask(t, s, model.Task{
		ID: 2, TechnicalName: "weight", TileText: "Weight", Deadline: "2025-12-31",
		Goal: 80, TaskType: model.TaskTypeNumberDiff, StartValue: &start,
	})

	task.TaskType = model.TaskTypeConfirm
	task.StartValue = nil
	task.SuccessText = "done"
	require.NoError(t, s.Tasks.UpdateDefinition(ctx, task))

	got, err := s.Tasks.FindByTechnicalName(ctx, "weight")
	require.NoError(t, err)
	assert.Equal(t, model.TaskTypeConfirm, got.TaskType)
	assert.Nil(t, got.StartValue)
	assert.Equal(t, "done", got.SuccessText)

	_, err = s.Tasks.FindByID(ctx, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTaskRepositoryListOrdersByID(t *testing.T) {
	s := newTestStore(t)

	seedTask(t, s, model.Task{ID: 3, TechnicalName: "c", TileText: "C", SuccessText: "x", Deadline: "2025-12-31", Goal: 1})
	seedTask(t, s, model.Task{ID: 1, TechnicalName: "a", TileText: "A", SuccessText: "x", Deadline: "2025-12-31", Goal: 1})

	tasks, err := s.Tasks.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, uint(1), tasks[0].ID)
	assert.Equal(t, uint(3), tasks[1].ID)
}

func TestCheckinUpsertKeepsYes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := seedTask(t, s, model.Task{ID: 1, TechnicalName: "swim", TileText: "Swim?", SuccessText: "x", Deadline: "2025-12-31", Goal: 26})
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	applied, err := s.Checkins.UpsertUnlessYes(ctx, &model.Checkin{TaskID: task.ID, Day: "2025-06-15", Answer: model.AnswerNo, CreatedAt: now})
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = s.Checkins.UpsertUnlessYes(ctx, &model.Checkin{TaskID: task.ID, Day: "2025-06-15", Answer: model.AnswerYes, CreatedAt: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = s.Checkins.UpsertUnlessYes(ctx, &model.Checkin{TaskID: task.ID, Day: "2025-06-15", Answer: model.AnswerNo, CreatedAt: now.Add(2 * time.Hour)})
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := s.Checkins.FindForDay(ctx, task.ID, "2025-06-15")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.AnswerYes, got.Answer)

	var count int64
	require.NoError(t, s.DB().Model(&model.Checkin{}).Where("task_id = ?", task.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	missing, err := s.Checkins.FindForDay(ctx, task.ID, "2025-06-16")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCheckinUniqueConstraint(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := seedTask(t, s, model.Task{ID: 1, TechnicalName: "swim", TileText: "Swim?", SuccessText: "x", Deadline: "2025-12-31", Goal: 26})
	now := time.Now()

	require.NoError(t, s.DB().Create(&model.Checkin{TaskID: task.ID, Day: "2025-06-15", Answer: model.AnswerNo, CreatedAt: now}).Error)
	err := s.DB().WithContext(ctx).Create(&model.Checkin{TaskID: task.ID, Day: "2025-06-15", Answer: model.AnswerYes, CreatedAt: now}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestCheckinListSince(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	task := seedTask(t, s, model.Task{ID: 1, TechnicalName: "swim", TileText: "Swim?", SuccessText: "x", Deadline: "2025-12-31", Goal: 26})
	now := time.Now()

	for _, day := range []string{"2024-12-20", "2025-01-10", "2025-06-15"} {
		_, err := s.Checkins.UpsertUnlessYes(ctx, &model.Checkin{TaskID: task.ID, Day: day, Answer: model.AnswerYes, CreatedAt: now})
		require.NoError(t, err)
	}

	got, err := s.Checkins.ListSince(ctx, task.ID, "2025-01-01")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-01-10", got[0].Day)
	assert.Equal(t, "2025-06-15", got[1].Day)
}

func TestNumberEntryUpsertAndLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	start := 85.0
	task := seedTask(t, s, model.Task{
		ID: 2, TechnicalName: "weight", TileText: "Weight", Deadline: "2025-12-31",
		Goal: 80, TaskType: model.TaskTypeNumberDiff, StartValue: &start,
	})
	now := time.Now()

	latest, err := s.NumberEntries.Latest(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, s.NumberEntries.Upsert(ctx, &model.NumberEntry{TaskID: task.ID, Day: "2025-06-14", Value: 84, CreatedAt: now}))
	require.NoError(t, s.NumberEntries.Upsert(ctx, &model.NumberEntry{TaskID: task.ID, Day: "2025-06-15", Value: 83, CreatedAt: now}))
	require.NoError(t, s.NumberEntries.Upsert(ctx, &model.NumberEntry{TaskID: task.ID, Day: "2025-06-15", Value: 82.5, CreatedAt: now}))

	latest, err = s.NumberEntries.Latest(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2025-06-15", latest.Day)
	assert.Equal(t, 82.5, latest.Value)

	all, err := s.NumberEntries.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2025-06-15", all[0].Day)
}

func TestStoreTransactionRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Transaction(ctx, func(tx *Store) error {
		if err := tx.Tasks.Create(ctx, &model.Task{ID: 7, TechnicalName: "tmp", TileText: "T", SuccessText: "x", Deadline: "2025-12-31", Goal: 1}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	_, err = s.Tasks.FindByID(ctx, 7)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSubscriberUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Subscribers.UpsertFromTelegram(ctx, 100, 100, "Ada", "", "ada")
	require.NoError(t, err)
	second, err := s.Subscribers.UpsertFromTelegram(ctx, 100, 200, "Ada", "L", "ada")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	subs, err := s.Subscribers.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, int64(200), subs[0].ChatID)
	assert.Equal(t, "L", subs[0].LastName)
}

func TestWithBusyTimeout(t *testing.T) {
	assert.Equal(t, "app.db?_busy_timeout=5000", withBusyTimeout("app.db"))
	assert.Equal(t, "file:app.db?cache=shared&_busy_timeout=5000", withBusyTimeout("file:app.db?cache=shared"))
	assert.Equal(t, "app.db?_busy_timeout=10", withBusyTimeout("app.db?_busy_timeout=10"))
}
