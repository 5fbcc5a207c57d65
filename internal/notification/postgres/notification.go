package postgres

import (
	"context"

	"github.com/frahmantamala/expense-reporting/internal/core/database"
	notificationDatamodel "github.com/frahmantamala/expense-reporting/internal/core/datamodel/notification"
	"github.com/frahmantamala/expense-reporting/internal/notification"
	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notificationDatamodel.Notification) error {
	return database.GetDB(ctx, r.db).Create(n).Error
}

func (r *NotificationRepository) List(ctx context.Context, filter notification.ListFilter) ([]*notificationDatamodel.Notification, error) {
	query := database.GetDB(ctx, r.db).Where("user_id = ?", filter.UserID)
	if filter.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var notifications []*notificationDatamodel.Notification
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Offset(filter.Offset).
		Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := database.GetDB(ctx, r.db).
		Model(&notificationDatamodel.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead reports false when the notification does not exist or belongs to someone else.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64) (bool, error) {
	db := database.GetDB(ctx, r.db)
	var count int64
	if err := db.Model(&notificationDatamodel.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}

	err := db.Model(&notificationDatamodel.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true).Error
	return err == nil, err
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	result := database.GetDB(ctx, r.db).
		Model(&notificationDatamodel.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (r *NotificationRepository) Delete(ctx context.Context, id, userID int64) (bool, error) {
	result := database.GetDB(ctx, r.db).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&notificationDatamodel.Notification{})
	return result.RowsAffected > 0, result.Error
}
