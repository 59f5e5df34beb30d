package models

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Submission struct {
	ImageRef       string // path within the media store
	Description    string
	IsJudged       bool
	IsRejected     bool // legacy column, rejected rows are deleted instead
	Model
	UserID         uuid.UUID
	ThumbnailRef   datatypes.Null[string]
	WatermarkedRef datatypes.Null[string]
	ArchiveKey     datatypes.Null[string] // content hash in the object archive
}

func (Submission) TableName() string {
	return "submission"
}

func (s Submission) GetID() uuid.UUID {
	return s.ID
}

// ListSubmissions returns newest first, optionally filtered by judged state.
func ListSubmissions(ctx context.Context, db *gorm.DB, judged *bool) ([]Submission, error) {
	ctx, span := tracer.Start(ctx, "ListSubmissions")
	defer span.End()

	db = db.WithContext(ctx)

	query := db.Order("created_at DESC")
	if judged != nil {
		span.SetAttributes(attribute.Bool("judged", *judged))
		query = query.Where("is_judged = ?", *judged)
	}

	var submissions []Submission
	if err := query.Find(&submissions).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list submissions")
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed submissions")
	return submissions, nil
}
