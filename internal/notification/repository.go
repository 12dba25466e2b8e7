package notification

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Repository persists queued notifications.
type Repository interface {
	Create(ctx context.Context, notification *Notification) error
	// Drain returns the session's notifications oldest first and deletes them.
	Drain(ctx context.Context, sessionID string) ([]Notification, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// GORMRepository implements the Repository interface using GORM.
type GORMRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM notification repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &GORMRepository{db: db}
}

// Create inserts a new notification into the database.
func (r *GORMRepository) Create(ctx context.Context, notification *Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *GORMRepository) Drain(ctx context.Context, sessionID string) ([]Notification, error) {
	var notifications []Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).
			Order("created_at ASC").
			Find(&notifications).Error; err != nil {
			return err
		}
		if len(notifications) == 0 {
			return nil
		}
		ids := make([]interface{}, len(notifications))
		for i, n := range notifications {
			ids[i] = n.ID
		}
		return tx.Where("id IN ?", ids).Delete(&Notification{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("draining notifications for session %s failed: %w", sessionID, err)
	}
	return notifications, nil
}

func (r *GORMRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete notifications older than %s: %w", cutoff.Format(time.RFC3339), result.Error)
	}
	return result.RowsAffected, nil
}
