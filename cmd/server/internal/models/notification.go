package models

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/Alex1-1-1/world-fastest-punch/internal/types"
)

type Notification struct {
	Title   string
	Message string
	Type    types.NotificationType `gorm:"type:text"`
	IsRead  bool
	Model
	UserID uuid.UUID
}

func (Notification) TableName() string {
	return "notification"
}

func (n Notification) GetID() uuid.UUID {
	return n.ID
}

// ListNotifications returns a user's notifications newest first.
func ListNotifications(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]Notification, error) {
	ctx, span := tracer.Start(ctx, "ListNotifications")
	defer span.End()

	span.SetAttributes(attribute.String("userID", userID.String()))

	var notifications []Notification
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list notifications")
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed notifications")
	return notifications, nil
}

// MarkNotificationRead flips one of the user's notifications to read.
// Returns [gorm.ErrRecordNotFound] when the notification does not exist or
// belongs to someone else.
func MarkNotificationRead(
	ctx context.Context,
	db *gorm.DB,
	id uuid.UUID,
	userID uuid.UUID,
) error {
	ctx, span := tracer.Start(ctx, "MarkNotificationRead")
	defer span.End()

	span.SetAttributes(
		attribute.String("id", id.String()),
		attribute.String("userID", userID.String()),
	)

	result := db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, "failed to mark notification read")
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		span.AddEvent("notification not found for user")
		return gorm.ErrRecordNotFound
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "marked notification read")
	return nil
}
