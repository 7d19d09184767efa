package model

import "time"

// TaskType selects how a task is tracked and how its progress is computed.
type TaskType string

const (
	TaskTypeConfirm    TaskType = "confirm"
	TaskTypeNumberDiff TaskType = "number_diff"
)

// Task is a goal definition loaded from the catalog file.
type Task struct {
	ID            uint     `gorm:"primaryKey"`
	TechnicalName string   `gorm:"uniqueIndex;not null"`
	TileText      string   `gorm:"not null"`
	SuccessText   string   `gorm:"not null;default:''"`
	Deadline      string   `gorm:"size:10;not null"` // YYYY-MM-DD
	Goal          float64  `gorm:"not null"`
	TaskType      TaskType `gorm:"size:32;not null;default:confirm"`
	StartValue    *float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (t Task) IsConfirm() bool    { return t.TaskType == TaskTypeConfirm }
func (t Task) IsNumberDiff() bool { return t.TaskType == TaskTypeNumberDiff }
