package v1

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	srverr "github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/error"
	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/response"
	"github.com/Alex1-1-1/world-fastest-punch/internal/types"
)

func (h *Handler) Ping(c echo.Context) error {
	_, span := tracer.Start(c.Request().Context(), "Ping")
	defer span.End()

	identity, ok := c.Get("identity").(types.Identity)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("identity: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	span.SetAttributes(
		attribute.String("identity.username", identity.Username),
		attribute.Bool("identity.guest", identity.Guest),
	)

	span.AddEvent("received ping")

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return c.JSON(http.StatusOK, types.PingResponse{Status: "ready"})
}
