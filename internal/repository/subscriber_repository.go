package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"goal-tracker/internal/model"
)

// SubscriberRepository keeps the Telegram users that receive daily reports.
type SubscriberRepository struct {
	db *gorm.DB
}

func NewSubscriberRepository(db *gorm.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// UpsertFromTelegram finds or creates a subscriber by TelegramID and refreshes profile info.
func (r *SubscriberRepository) UpsertFromTelegram(ctx context.Context, telegramID, chatID int64, firstName, lastName, username string) (*model.Subscriber, error) {
	var sub model.Subscriber
	db := r.db.WithContext(ctx)
	err := db.Where("telegram_id = ?", telegramID).First(&sub).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"chat_id":    chatID,
			"first_name": firstName,
			"last_name":  lastName,
			"username":   username,
		}
		if err := db.Model(&sub).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update subscriber: %w", err)
		}
		return &sub, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = model.Subscriber{
			TelegramID: telegramID,
			ChatID:     chatID,
			FirstName:  firstName,
			LastName:   lastName,
			Username:   username,
		}
		if err := db.Create(&sub).Error; err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}
		return &sub, nil
	default:
		return nil, fmt.Errorf("find subscriber: %w", err)
	}
}

func (r *SubscriberRepository) ListAll(ctx context.Context) ([]model.Subscriber, error) {
	var subs []model.Subscriber
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
