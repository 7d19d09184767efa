package model

import "time"

const (
	AnswerYes = "yes"
	AnswerNo  = "no"
)

// Checkin is the daily answer for a confirm task. One row per task and day.
type Checkin struct {
	ID        uint      `gorm:"primaryKey"`
	TaskID    uint      `gorm:"not null;uniqueIndex:uq_checkin_task_day,priority:1"`
	Day       string    `gorm:"size:10;not null;uniqueIndex:uq_checkin_task_day,priority:2"`
	Answer    string    `gorm:"size:3;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// NumberEntry is the daily measurement for a number_diff task. One row per task and day.
type NumberEntry struct {
	ID        uint      `gorm:"primaryKey"`
	TaskID    uint      `gorm:"not null;uniqueIndex:uq_number_entry_task_day,priority:1"`
	Day       string    `gorm:"size:10;not null;uniqueIndex:uq_number_entry_task_day,priority:2"`
	Value     float64   `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
