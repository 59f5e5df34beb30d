package middleware

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/models"
	"github.com/Alex1-1-1/world-fastest-punch/internal/types"
)

// ResolveIdentity maps the authenticated account at `userKey` into the
// caller identity at `identityKey`. Requests that skipped authentication get
// the guest identity, never an implicit account.
func ResolveIdentity(userKey, identityKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			_, span := tracer.Start(c.Request().Context(), "ResolveIdentity", trace.WithAttributes(
				attribute.String("userKey", userKey),
				attribute.String("identityKey", identityKey),
			))
			defer span.End()

			identity := types.GuestIdentity()
			if user, ok := c.Get(userKey).(*models.User); ok {
				identity = types.Identity{
					ID:          user.ID,
					Username:    user.Username,
					DisplayName: user.DisplayName,
					Role:        user.Role,
				}
			}

			c.Set(identityKey, identity)

			span.AddEvent("resolved identity", trace.WithAttributes(
				attribute.String("username", identity.Username),
				attribute.Bool("guest", identity.Guest),
			))

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "resolved identity")
			return next(c)
		}
	}
}
