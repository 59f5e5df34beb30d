package middleware

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/response"
	"github.com/Alex1-1-1/world-fastest-punch/internal/types"
)

// RequireAuthenticated rejects guests with a 401.
func RequireAuthenticated(identityKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			_, span := tracer.Start(c.Request().Context(), "RequireAuthenticated", trace.WithAttributes(
				attribute.String("identityKey", identityKey),
			))
			defer span.End()

			identity, ok := c.Get(identityKey).(types.Identity)
			if !ok || identity.Guest {
				span.RecordError(nil)
				span.SetStatus(codes.Ok, "guest denied")
				return response.UnauthorizedError
			}

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "authenticated")
			return next(c)
		}
	}
}

// RequireJudge rejects guests with a 401 and plain users with a 403. Judging
// is open to the judge and admin roles only.
func RequireJudge(identityKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			_, span := tracer.Start(c.Request().Context(), "RequireJudge", trace.WithAttributes(
				attribute.String("identityKey", identityKey),
			))
			defer span.End()

			identity, ok := c.Get(identityKey).(types.Identity)
			if !ok || identity.Guest {
				span.RecordError(nil)
				span.SetStatus(codes.Ok, "guest denied")
				return response.UnauthorizedError
			}

			if !identity.Role.CanJudge() {
				span.AddEvent("denied", trace.WithAttributes(
					attribute.String("role", string(identity.Role)),
				))
				span.RecordError(nil)
				span.SetStatus(codes.Ok, "role denied")
				return response.ForbiddenError
			}

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "authorized")
			return next(c)
		}
	}
}
