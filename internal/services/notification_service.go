// internal/services/notification_service.go
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/curated-market/internal/apperrors"
	"github.com/javajoker/curated-market/internal/models"
	"github.com/javajoker/curated-market/internal/utils"
)

type NotificationService struct {
	db *gorm.DB
}

type NotificationRequest struct {
	UserID       uuid.UUID `validate:"required"`
	Type         string    `validate:"required,max=50"`
	Title        string    `validate:"required,max=255"`
	Message      string    `validate:"required"`
	ResourceType string
	ResourceID   *uuid.UUID
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) Notify(ctx context.Context, req NotificationRequest) (*models.Notification, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	notification := &models.Notification{
		UserID:              req.UserID,
		Type:                req.Type,
		Title:               req.Title,
		Message:             req.Message,
		Status:              models.NotificationStatusUnread,
		RelatedResourceType: req.ResourceType,
		RelatedResourceID:   req.ResourceID,
	}
	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, apperrors.TransactionFailure(err)
	}
	return notification, nil
}

// notifyQuietly is used after a workflow has committed; a failed notification
// never undoes the workflow.
func (s *NotificationService) notifyQuietly(ctx context.Context, req NotificationRequest) {
	if s == nil {
		return
	}
	if _, err := s.Notify(ctx, req); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": req.UserID,
			"type":    req.Type,
		}).Warn("Failed to create notification")
	}
}

func (s *NotificationService) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, params utils.PaginationParams) ([]models.Notification, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("status = ?", models.NotificationStatusUnread)
	}

	var notifications []models.Notification
	total, err := paginate(query, params, []string{"created_at"}, &notifications)
	if err != nil {
		return nil, 0, apperrors.TransactionFailure(err)
	}
	return notifications, total, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND status = ?", userID, models.NotificationStatusUnread).
		Count(&count).Error; err != nil {
		return 0, apperrors.TransactionFailure(err)
	}
	return count, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*models.Notification, error) {
	db := s.db.WithContext(ctx)

	var notification models.Notification
	if err := db.Where("id = ? AND user_id = ?", notificationID, userID).First(&notification).Error; err != nil {
		return nil, notFoundOr(err, "notification")
	}
	if notification.Status == models.NotificationStatusRead {
		return &notification, nil
	}

	now := time.Now()
	if err := db.Model(&notification).Updates(map[string]interface{}{
		"status":  models.NotificationStatusRead,
		"read_at": now,
	}).Error; err != nil {
		return nil, apperrors.TransactionFailure(err)
	}
	notification.Status = models.NotificationStatusRead
	notification.ReadAt = &now
	return &notification, nil
}
