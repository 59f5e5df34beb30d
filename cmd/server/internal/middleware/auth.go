package middleware

import (
	"context"
	"errors"
	"os"
	"reflect"

	"github.com/alexedwards/argon2id"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/models"
	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/response"
	"github.com/Alex1-1-1/world-fastest-punch/internal/logger"
)

// Used when doing a fake compare in the error case of BasicAuthValidator
var defaultHashForError string

const name string = "github.com/Alex1-1-1/world-fastest-punch/server/middleware"

var tracer = otel.Tracer(name)

type Handler struct {
	DB *gorm.DB
}

// Generate a hash
func init() {
	var err error

	defaultHashForError, err = argon2id.CreateHash(
		"bnZSraUCS+nZh3MI8F3iiXbKFBcAyJhvAB6u/GBJzhC00ZPAQlyYVpQ+aryw7QvE2ZI=",
		argon2id.DefaultParams,
	)
	if err != nil {
		logger.Logger.Error("error creating default hash", "error", err)
		os.Exit(1)
	}
}

// Does a fake hash and compare for a hard coded password. Used when BasicAuthValidator hits an error or a nonexistent user.
func fakePasswordHash(ctx context.Context) {
	_, span := tracer.Start(ctx, "fakePasswordHash")
	defer span.End()

	_, err := argon2id.ComparePasswordAndHash("i am a very real password", defaultHashForError)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to compare fake password with default hash for error")
		return
	}

	span.AddEvent("compared fake password and default hash for error")
}

// Validates a basic auth against the database
func (h *Handler) BasicAuthValidator(username, token string, c echo.Context) (bool, error) {
	ctx, span := tracer.Start(c.Request().Context(), "BasicAuthValidator")
	defer span.End()

	db := h.DB.WithContext(ctx)

	span.SetAttributes(
		attribute.String("username", username),
	)

	span.AddEvent("getting user by username")
	var user models.User
	err := db.Where("username = ?", username).First(&user).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "db error when searching for username")

		fakePasswordHash(ctx)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// ok because Ok > Error
			span.SetStatus(codes.Ok, "user not found")
			return false, nil
		}

		return false, response.InternalServerError
	}

	span.SetAttributes(
		attribute.String("user.id", user.ID.String()),
		attribute.String("user.role", string(user.Role)),
		attribute.Bool("active.valid", user.Active.Valid),
		attribute.Bool("active.value", user.Active.V),
	)

	span.AddEvent("checking hash")
	comparison, oldParams, err := argon2id.CheckHash(token, user.Token)
	// All expensive ops have been performed that may result in a forbidden
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check token")
		return false, response.InternalServerError
	}

	if !user.Active.Valid || !user.Active.V {
		span.AddEvent("account is not active")
		return false, nil
	}

	if !reflect.DeepEqual(oldParams, argon2id.DefaultParams) {
		span.AddEvent("updating account with the new params")
		newHash, err := argon2id.CreateHash(token, argon2id.DefaultParams)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to create new hash for token")
			return false, response.InternalServerError
		}

		user.Token = newHash

		span.AddEvent("saving new hash to the database")
		err = db.Save(&user).Error
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to save new hash to the database")
			return false, response.InternalServerError
		}
	}

	if comparison {
		span.AddEvent("successful login attempt")
		c.Set("user", &user)
	} else {
		span.AddEvent("failed login attempt")
	}

	return comparison, nil
}
