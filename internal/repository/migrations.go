package repository

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"goal-tracker/internal/logger"
	"goal-tracker/internal/model"
)

// SchemaMigration records one applied migration step.
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"not null;unique"`
	AppliedAt time.Time `gorm:"not null"`
}

func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

// Migration is a single versioned schema step. Up must be safe to run against a
// database that already has the change.
type Migration struct {
	Version int
	Name    string
	Up      func(tx *gorm.DB) error
}

// Migrations lists every schema step in application order.
var Migrations = []Migration{
	{Version: 1, Name: "create_tasks", Up: func(tx *gorm.DB) error {
		return tx.AutoMigrate(&model.Task{})
	}},
	{Version: 2, Name: "create_checkins", Up: func(tx *gorm.DB) error {
		return tx.AutoMigrate(&model.Checkin{})
	}},
	{Version: 3, Name: "create_number_entries", Up: func(tx *gorm.DB) error {
		return tx.AutoMigrate(&model.NumberEntry{})
	}},
	{Version: 4, Name: "backfill_task_type", Up: func(tx *gorm.DB) error {
		return tx.Model(&model.Task{}).
			Where("task_type IS NULL OR task_type = ''").
			Update("task_type", model.TaskTypeConfirm).Error
	}},
	{Version: 5, Name: "create_subscribers", Up: func(tx *gorm.DB) error {
		return tx.AutoMigrate(&model.Subscriber{})
	}},
}

// Migrate applies all pending migrations in one transaction.
func Migrate(db *gorm.DB, log *logger.Logger) error {
	return migrate(db, log, Migrations)
}

func migrate(db *gorm.DB, log *logger.Logger, steps []Migration) error {
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, step := range steps {
			var record SchemaMigration
			err := tx.Where("version = ?", step.Version).First(&record).Error
			switch {
			case err == nil:
				continue
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return fmt.Errorf("check migration %d: %w", step.Version, err)
			}

			if err := step.Up(tx); err != nil {
				log.Error("migration failed",
					zap.Int("version", step.Version),
					zap.String("name", step.Name),
					zap.Error(err),
				)
				return fmt.Errorf("migration %d %s: %w", step.Version, step.Name, err)
			}

			record = SchemaMigration{Version: step.Version, Name: step.Name, AppliedAt: time.Now().UTC()}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("record migration %d: %w", step.Version, err)
			}
			log.Info("applied migration",
				zap.Int("version", step.Version),
				zap.String("name", step.Name),
			)
		}
		return nil
	})
}

// MigrationHistory returns applied migrations ordered by version.
func MigrationHistory(db *gorm.DB) ([]SchemaMigration, error) {
	var records []SchemaMigration
	if err := db.Order("version ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
