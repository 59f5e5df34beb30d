package models

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Alex1-1-1/world-fastest-punch/internal/config"
	"github.com/Alex1-1-1/world-fastest-punch/internal/types"
)

type User struct {
	Username    string `gorm:"uniqueIndex"`
	DisplayName string
	Email       string
	Token       string // argon2id hash
	Role        types.Role `gorm:"type:text"`
	Model
	Active datatypes.Null[bool]
}

func (User) TableName() string {
	return "users"
}

func (u User) GetID() uuid.UUID {
	return u.ID
}

// Name preferred for display, falling back to the login name.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}

	return u.Username
}

// Config is the authoritative account list
//
// 1. Upsert configured users keyed by username
// 2. Disable accounts not currently contained in the config
func LoadUsersFromConfig(ctx context.Context, db *gorm.DB, users []config.SeedUser) error {
	ctx, span := tracer.Start(ctx, "LoadUsersFromConfig")
	defer span.End()

	db = db.WithContext(ctx)

	usersToUpsert := make([]*User, len(users))
	usernamesInConfig := make([]string, len(users))
	for i, seed := range users {
		hash, err := argon2id.CreateHash(seed.Token, argon2id.DefaultParams)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "error creating hash for user token")
			span.SetAttributes(attribute.String("failedUser", seed.Username))
			return err
		}

		newModel := User{
			Username:    seed.Username,
			DisplayName: seed.DisplayName,
			Email:       seed.Email,
			Token:       hash,
			Role:        types.Role(seed.Role),
			Active:      NewNull(seed.Active),
		}

		usersToUpsert[i] = &newModel
		usernamesInConfig[i] = newModel.Username
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		//nolint:govet // shadow: intentionally shadow ctx and span to avoid using the incorrect one.
		ctx, span := tracer.Start(ctx, "LoadUsersFromConfig/Transaction")
		defer span.End()

		tx = tx.WithContext(ctx)

		if len(usersToUpsert) != 0 {
			span.AddEvent("upserting configured users")
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "username"}},
				UpdateAll: true,
			}).Create(usersToUpsert)
			if result.Error != nil {
				span.RecordError(result.Error)
				span.SetStatus(codes.Error, "failed to upsert configured users")
				return fmt.Errorf("failed to upsert configured users: %w", result.Error)
			}
			if result.RowsAffected != int64(len(users)) {
				span.AddEvent("updated rows did not equal configured user count")
				span.SetAttributes(
					attribute.Int64("rowsAffected", result.RowsAffected),
					attribute.Int64("users", int64(len(users))),
				)
			}
		} else {
			span.AddEvent("no configured users to upsert")
		}

		span.AddEvent("setting all accounts not in config inactive")

		result := tx.Model(&User{}).
			Where("username NOT IN ?", usernamesInConfig).
			Updates(&User{Active: NewNullFromData(false)})
		if result.Error != nil {
			span.RecordError(result.Error)
			span.SetStatus(codes.Error, "failed to set all accounts not in config inactive")
			return fmt.Errorf(
				"failed to set all accounts not in config inactive: %w",
				result.Error,
			)
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "updated users")
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update users")
		return fmt.Errorf("failed to update users: %w", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "updated users")
	return nil
}
