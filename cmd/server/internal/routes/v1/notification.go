package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	srverr "github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/error"
	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/models"
	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/response"
	"github.com/Alex1-1-1/world-fastest-punch/internal/types"
)

func (h *Handler) ListNotifications(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListNotifications")
	defer span.End()

	identity, ok := c.Get("identity").(types.Identity)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("identity: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	span.SetAttributes(attribute.String("identity.id", identity.ID.String()))

	notifications, err := models.ListNotifications(ctx, h.DB, identity.ID)
	if err != nil {
		span.SetStatus(codes.Error, "failed to list notifications")
		span.RecordError(err)
		return response.InternalServerError
	}

	views := make([]types.NotificationView, 0, len(notifications))
	for _, notification := range notifications {
		views = append(views, types.NotificationView{
			ID:        notification.ID.String(),
			Type:      notification.Type,
			Title:     notification.Title,
			Message:   notification.Message,
			Read:      notification.IsRead,
			CreatedAt: notification.CreatedAt,
		})
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed notifications")
	return c.JSON(http.StatusOK, views)
}

// MarkNotificationRead flips the read flag, the only mutation notifications
// permit. Scoped to the caller so one user cannot touch another's inbox.
func (h *Handler) MarkNotificationRead(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "MarkNotificationRead")
	defer span.End()

	identity, ok := c.Get("identity").(types.Identity)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("identity: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	rawID := c.Param("notification_id")

	span.SetAttributes(
		attribute.String("identity.id", identity.ID.String()),
		attribute.String("id.raw", rawID),
	)

	id, err := uuid.Parse(rawID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse rawID into a UUID")
		return response.NotFoundError
	}

	err = models.MarkNotificationRead(ctx, h.DB, id, identity.ID)
	if err != nil {
		span.SetStatus(codes.Error, "failed to mark notification read")
		span.RecordError(err)

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFoundError
		}

		return response.InternalServerError
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "marked notification read")
	return c.NoContent(http.StatusNoContent)
}
