package model

import "time"

// Subscriber is a Telegram user that receives the daily report.
type Subscriber struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	ChatID     int64
	FirstName  string
	LastName   string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
