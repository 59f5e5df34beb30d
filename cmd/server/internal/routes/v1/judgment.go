package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	srverr "github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/error"
	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/models"
	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/response"
	"github.com/Alex1-1-1/world-fastest-punch/internal/logger"
	"github.com/Alex1-1-1/world-fastest-punch/internal/types"
)

// SubmitVerdict applies a judge's verdict. Approval upserts the judgment and
// marks the submission judged; re-approving amends the stored judgment in
// place. Rejection notifies the owner, then erases the submission and its
// judgment, rankings, and reports in one transaction.
func (h *Handler) SubmitVerdict(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "SubmitVerdict")
	defer span.End()

	l := logger.Logger

	span.AddEvent("received verdict request")

	identity, ok := c.Get("identity").(types.Identity)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("identity: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	submission, ok := c.Get("submission").(*models.Submission)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("submission: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	span.SetAttributes(
		attribute.String("identity.username", identity.Username),
		attribute.String("submission.id", submission.ID.String()),
	)

	var rdata types.VerdictRequest

	span.AddEvent("parsing request body")
	err := c.Bind(&rdata)
	if err != nil {
		span.SetStatus(codes.Ok, "failed to parse request data")
		span.RecordError(err)
		return echo.NewHTTPError(
			http.StatusBadRequest,
			types.StringError("failed to parse request data"),
		)
	}

	span.AddEvent("validating request body")
	err = c.Validate(rdata)
	if err != nil {
		span.SetStatus(codes.Ok, "failed to validate request data")
		span.RecordError(err)
		return echo.NewHTTPError(http.StatusBadRequest, types.ValidationError(err))
	}

	span.SetAttributes(attribute.String("verdict", string(rdata.Verdict)))

	if rdata.Verdict == types.VerdictRejected {
		return h.reject(c, submission, &rdata)
	}

	span.AddEvent("applying approval")
	judgment, err := models.ApplyApproval(ctx, h.DB, submission.ID, identity.ID, &rdata)
	if err != nil {
		span.SetStatus(codes.Error, "failed to apply approval")
		span.RecordError(err)

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFoundError
		}

		return response.InternalServerError
	}

	span.AddEvent("notifying owner of approval")
	err = h.notifier.Append(
		ctx,
		submission.UserID,
		types.NotificationApproval,
		"Your punch submission was approved",
		fmt.Sprintf(
			"Your punch submission was approved! Speed: %gkm/h",
			judgment.SpeedKMH.V,
		),
	)
	if err != nil {
		// Verdicts never fail on a notification hiccup.
		l.WarnContext(ctx, "failed to notify owner of approval",
			"submission", submission.ID.String(), "error", err)
	}

	submission.IsJudged = true

	view, err := h.submissionView(ctx, submission)
	if err != nil {
		span.SetStatus(codes.Error, "failed to build view")
		span.RecordError(err)
		return response.InternalServerError
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "applied approval")
	return c.JSON(http.StatusOK, view)
}

// reject runs the erasing transition. The owner is notified first so the
// message can still reference pre-deletion state; the deletes then happen in
// one transaction.
func (h *Handler) reject(
	c echo.Context,
	submission *models.Submission,
	rdata *types.VerdictRequest,
) error {
	ctx, span := tracer.Start(c.Request().Context(), "reject")
	defer span.End()

	l := logger.Logger

	span.SetAttributes(attribute.String("submission.id", submission.ID.String()))

	span.AddEvent("notifying owner of rejection")
	err := h.notifier.Append(
		ctx,
		submission.UserID,
		types.NotificationRejection,
		"Your punch submission was rejected",
		fmt.Sprintf(
			"Your punch submission was rejected. Reason: %s",
			rdata.RejectionReason,
		),
	)
	if err != nil {
		l.WarnContext(ctx, "failed to notify owner of rejection",
			"submission", submission.ID.String(), "error", err)
	}

	span.AddEvent("applying rejection")
	_, err = models.ApplyRejection(ctx, h.DB, submission.ID)
	if err != nil {
		span.SetStatus(codes.Error, "failed to apply rejection")
		span.RecordError(err)

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFoundError
		}

		return response.InternalServerError
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "applied rejection")
	return c.JSON(http.StatusOK, types.DeletionConfirmation{
		SubmissionID: submission.ID.String(),
		Verdict:      types.VerdictRejected,
		Deleted:      true,
	})
}
