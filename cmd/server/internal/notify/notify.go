// Package notify appends user-facing notifications. Dispatch is best effort
// with a short bounded retry: a verdict must not fail because the inbox write
// hiccuped, so callers log the returned error and move on.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/models"
	"github.com/Alex1-1-1/world-fastest-punch/internal/types"
)

var tracer = otel.Tracer(
	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/notify",
)

type Notifier interface {
	Append(
		ctx context.Context,
		userID uuid.UUID,
		kind types.NotificationType,
		title, message string,
	) error
}

// Ensure DBNotifier implements Notifier interface.
var _ Notifier = (*DBNotifier)(nil)

// DBNotifier stores notifications as rows the list endpoint reads back.
type DBNotifier struct {
	db      *gorm.DB
	backoff func() retry.Backoff
}

func NewDBNotifier(db *gorm.DB) *DBNotifier {
	return &DBNotifier{
		db: db,
		backoff: func() retry.Backoff {
			b := retry.NewExponential(time.Millisecond * 100)
			b = retry.WithMaxRetries(3, b)
			return b
		},
	}
}

func NewDBNotifierBackoff(db *gorm.DB, backoff func() retry.Backoff) *DBNotifier {
	return &DBNotifier{
		db:      db,
		backoff: backoff,
	}
}

func (n *DBNotifier) Append(
	ctx context.Context,
	userID uuid.UUID,
	kind types.NotificationType,
	title, message string,
) error {
	ctx, span := tracer.Start(ctx, "DBNotifier.Append")
	defer span.End()

	span.SetAttributes(
		attribute.String("userID", userID.String()),
		attribute.String("type", string(kind)),
	)

	err := retry.Do(ctx, n.backoff(), func(ctx context.Context) error {
		//nolint:govet // shadow: intentionally shadow ctx and span to avoid using the incorrect one.
		ctx, span := tracer.Start(ctx, "DBNotifier.Append.Retry")
		defer span.End()

		notification := models.Notification{
			UserID:  userID,
			Type:    kind,
			Title:   title,
			Message: message,
		}

		if err := n.db.WithContext(ctx).Create(&notification).Error; err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to insert notification")
			return retry.RetryableError(err)
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "inserted notification")
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to append notification")
		return fmt.Errorf("failed to append notification: %w", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "appended notification")
	return nil
}
