package models

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Alex1-1-1/world-fastest-punch/internal/types"
)

type Judgment struct {
	Comment         string
	DetailedComment string
	RejectionReason string
	Verdict         types.Verdict `gorm:"type:text"`
	Model
	SubmissionID uuid.UUID `gorm:"uniqueIndex"`
	JudgeID      uuid.UUID
	SpeedKMH     datatypes.Null[float64]
}

func (Judgment) TableName() string {
	return "judgment"
}

func (j Judgment) GetID() uuid.UUID {
	return j.ID
}

// ApplyApproval records an approving verdict inside one transaction. The
// submission row is locked first so concurrent verdicts serialize; replaying
// an approval overwrites the previous judgment row rather than duplicating
// it. Returns [gorm.ErrRecordNotFound] when the submission is gone.
func ApplyApproval(
	ctx context.Context,
	db *gorm.DB,
	submissionID uuid.UUID,
	judgeID uuid.UUID,
	verdict *types.VerdictRequest,
) (*Judgment, error) {
	ctx, span := tracer.Start(ctx, "ApplyApproval")
	defer span.End()

	span.SetAttributes(
		attribute.String("submissionID", submissionID.String()),
		attribute.String("judgeID", judgeID.String()),
	)

	var judgment Judgment

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//nolint:govet // shadow: intentionally shadow ctx and span to avoid using the incorrect one.
		ctx, span := tracer.Start(ctx, "ApplyApproval/Transaction")
		defer span.End()

		tx = tx.WithContext(ctx)

		var submission Submission
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&submission, submissionID).Error
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to lock submission")
			return err
		}

		judgment = Judgment{
			SubmissionID:    submission.ID,
			JudgeID:         judgeID,
			Verdict:         types.VerdictApproved,
			SpeedKMH:        NewNull(verdict.SpeedKMH),
			Comment:         verdict.Comment,
			DetailedComment: verdict.DetailedComment,
		}

		span.AddEvent("upserting judgment")
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "submission_id"}},
			UpdateAll: true,
		}).Create(&judgment).Error
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to upsert judgment")
			return fmt.Errorf("failed to upsert judgment: %w", err)
		}

		span.AddEvent("marking submission judged")
		err = tx.Model(&Submission{}).
			Where("id = ?", submission.ID).
			Update("is_judged", true).Error
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to mark submission judged")
			return fmt.Errorf("failed to mark submission judged: %w", err)
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "applied approval")
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to apply approval")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "applied approval")
	return &judgment, nil
}

// ApplyRejection removes the submission and everything hanging off it in one
// transaction. The caller is responsible for deleting stored files and for
// having notified the owner beforehand. Returns the deleted row so media refs
// remain available for cleanup, or [gorm.ErrRecordNotFound] when the
// submission is already gone.
func ApplyRejection(
	ctx context.Context,
	db *gorm.DB,
	submissionID uuid.UUID,
) (*Submission, error) {
	ctx, span := tracer.Start(ctx, "ApplyRejection")
	defer span.End()

	span.SetAttributes(attribute.String("submissionID", submissionID.String()))

	var submission Submission

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//nolint:govet // shadow: intentionally shadow ctx and span to avoid using the incorrect one.
		ctx, span := tracer.Start(ctx, "ApplyRejection/Transaction")
		defer span.End()

		tx = tx.WithContext(ctx)

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&submission, submissionID).Error
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to lock submission")
			return err
		}

		span.AddEvent("deleting dependents")
		err = tx.Where("submission_id = ?", submission.ID).Delete(&Judgment{}).Error
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete judgment")
			return fmt.Errorf("failed to delete judgment: %w", err)
		}

		err = tx.Where("submission_id = ?", submission.ID).Delete(&Ranking{}).Error
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete rankings")
			return fmt.Errorf("failed to delete rankings: %w", err)
		}

		err = tx.Where("submission_id = ?", submission.ID).Delete(&Report{}).Error
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete reports")
			return fmt.Errorf("failed to delete reports: %w", err)
		}

		err = tx.Delete(&submission).Error
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete submission")
			return fmt.Errorf("failed to delete submission: %w", err)
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "applied rejection")
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to apply rejection")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "applied rejection")
	return &submission, nil
}

// JudgmentFor fetches the judgment attached to a submission, nil when none.
func JudgmentFor(ctx context.Context, db *gorm.DB, submissionID uuid.UUID) (*Judgment, error) {
	ctx, span := tracer.Start(ctx, "JudgmentFor")
	defer span.End()

	var judgments []Judgment
	err := db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Limit(1).
		Find(&judgments).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch judgment")
		return nil, fmt.Errorf("failed to fetch judgment: %w", err)
	}

	if len(judgments) == 0 {
		return nil, nil
	}

	return &judgments[0], nil
}
