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

type Ranking struct {
	Period types.RankingPeriod `gorm:"type:text"`
	Rank   int
	Model
	SubmissionID uuid.UUID
}

func (Ranking) TableName() string {
	return "ranking"
}

func (r Ranking) GetID() uuid.UUID {
	return r.ID
}

// ListRankings returns boards ordered by rank ascending, optionally filtered
// to one period.
func ListRankings(
	ctx context.Context,
	db *gorm.DB,
	period *types.RankingPeriod,
) ([]Ranking, error) {
	ctx, span := tracer.Start(ctx, "ListRankings")
	defer span.End()

	query := db.WithContext(ctx).Order("rank ASC")
	if period != nil {
		span.SetAttributes(attribute.String("period", string(*period)))
		query = query.Where("period = ?", *period)
	}

	var rankings []Ranking
	err := query.Find(&rankings).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list rankings")
		return nil, fmt.Errorf("failed to list rankings: %w", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed rankings")
	return rankings, nil
}
