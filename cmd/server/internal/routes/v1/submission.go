package v1

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	srverr "github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/error"
	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/models"
	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/response"
	"github.com/Alex1-1-1/world-fastest-punch/internal/logger"
	"github.com/Alex1-1-1/world-fastest-punch/internal/storage"
	"github.com/Alex1-1-1/world-fastest-punch/internal/types"
	"github.com/Alex1-1-1/world-fastest-punch/internal/upload"
	"github.com/Alex1-1-1/world-fastest-punch/internal/validator"
)

func (h *Handler) CreateSubmission(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CreateSubmission")
	defer span.End()

	l := logger.Logger
	db := h.DB.WithContext(ctx)

	span.AddEvent("received submission request")

	identity, ok := c.Get("identity").(types.Identity)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("identity: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	span.SetAttributes(
		attribute.String("identity.username", identity.Username),
		attribute.String("identity.id", identity.ID.String()),
	)

	span.AddEvent("reading multipart image")
	file, err := c.FormFile("image")
	if err != nil {
		span.SetStatus(codes.Ok, "missing image file")
		span.RecordError(err)
		return echo.NewHTTPError(
			http.StatusBadRequest,
			types.FieldError("image", "an image file is required"),
		)
	}

	src, err := file.Open()
	if err != nil {
		span.SetStatus(codes.Error, "failed to open uploaded file")
		span.RecordError(err)
		return response.InternalServerError
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, validator.MaxImageBytes+1))
	if err != nil {
		span.SetStatus(codes.Error, "failed to read uploaded file")
		span.RecordError(err)
		return response.InternalServerError
	}

	span.AddEvent("validating image size")
	if !validator.ValidateImageSize(len(data)) {
		span.SetStatus(codes.Ok, "image too large or empty")
		span.RecordError(nil)
		return echo.NewHTTPError(
			http.StatusBadRequest,
			types.FieldError("image", "must be a non-empty file <= 2MiB"),
		)
	}

	span.AddEvent("validating image format")
	if !validator.ValidateImageFormat(data, file.Filename) {
		span.SetStatus(codes.Ok, "unsupported image format")
		span.RecordError(nil)
		return echo.NewHTTPError(
			http.StatusBadRequest,
			types.FieldError("image", "must be a JPEG, PNG, or TIFF image"),
		)
	}

	ref := fmt.Sprintf("submissions/%s_%s", uuid.New().String(), filepath.Base(file.Filename))
	contentType := file.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	span.AddEvent("storing original", trace.WithAttributes(
		attribute.String("ref", ref),
		attribute.Int("bytes", len(data)),
	))
	err = h.store.Put(ctx, ref, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		span.SetStatus(codes.Error, "failed to store original")
		span.RecordError(err)
		return response.InternalServerError
	}

	submission := models.Submission{
		UserID:      identity.ID,
		ImageRef:    ref,
		Description: c.FormValue("description"),
	}

	span.AddEvent("inserting into database")
	err = db.Create(&submission).Error
	if err != nil {
		span.SetStatus(codes.Error, "failed to insert")
		span.RecordError(err)
		return response.InternalServerError
	}
	span.SetAttributes(attribute.String("submission.id", submission.ID.String()))

	if h.deriver != nil {
		span.AddEvent("deriving thumbnail and watermark")
		result := h.deriver.Derive(ctx, submission.ID.String(), data)

		updates := map[string]any{}
		if result.Thumbnail.Err != nil {
			l.WarnContext(ctx, "thumbnail derivation failed",
				"submission", submission.ID.String(), "error", result.Thumbnail.Err)
		} else {
			submission.ThumbnailRef = models.NewNullFromData(result.Thumbnail.Ref)
			updates["thumbnail_ref"] = result.Thumbnail.Ref
		}
		if result.Watermark.Err != nil {
			l.WarnContext(ctx, "watermark derivation failed",
				"submission", submission.ID.String(), "error", result.Watermark.Err)
		} else {
			submission.WatermarkedRef = models.NewNullFromData(result.Watermark.Ref)
			updates["watermarked_ref"] = result.Watermark.Ref
		}

		if len(updates) > 0 {
			err = db.Model(&models.Submission{}).
				Where("id = ?", submission.ID).
				Updates(updates).Error
			if err != nil {
				span.SetStatus(codes.Error, "failed to save derivative refs")
				span.RecordError(err)
				return response.InternalServerError
			}
		}
	}

	if h.archiver != nil {
		span.AddEvent("archiving original")
		key, err := upload.Hashed(ctx, h.archiver, bytes.NewReader(data), int64(len(data)))
		if err != nil {
			// The canonical copy is already stored; losing the archive copy
			// should not fail the submission.
			l.WarnContext(ctx, "failed to archive original",
				"submission", submission.ID.String(), "error", err)
		} else {
			submission.ArchiveKey = models.NewNullFromData(key)
			err = db.Model(&models.Submission{}).
				Where("id = ?", submission.ID).
				Update("archive_key", key).Error
			if err != nil {
				span.SetStatus(codes.Error, "failed to save archive key")
				span.RecordError(err)
				return response.InternalServerError
			}
			span.SetAttributes(attribute.String("archive.key", key))
		}
	}

	view, err := h.submissionView(ctx, &submission)
	if err != nil {
		span.SetStatus(codes.Error, "failed to build view")
		span.RecordError(err)
		return response.InternalServerError
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created submission")
	return c.JSON(http.StatusCreated, view)
}

func (h *Handler) GetSubmission(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "GetSubmission")
	defer span.End()

	submission, ok := c.Get("submission").(*models.Submission)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("submission: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	span.SetAttributes(attribute.String("submission.id", submission.ID.String()))

	view, err := h.submissionView(ctx, submission)
	if err != nil {
		span.SetStatus(codes.Error, "failed to build view")
		span.RecordError(err)
		return response.InternalServerError
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "fetched submission")
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) ListSubmissions(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListSubmissions")
	defer span.End()

	var judged *bool
	if raw := c.QueryParam("judged"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			span.SetStatus(codes.Ok, "invalid judged filter")
			span.RecordError(err)
			return echo.NewHTTPError(
				http.StatusBadRequest,
				types.FieldError("judged", "must be true or false"),
			)
		}
		judged = &parsed
	}

	submissions, err := models.ListSubmissions(ctx, h.DB, judged)
	if err != nil {
		span.SetStatus(codes.Error, "failed to list submissions")
		span.RecordError(err)
		return response.InternalServerError
	}

	views, err := h.submissionViews(ctx, submissions)
	if err != nil {
		span.SetStatus(codes.Error, "failed to build views")
		span.RecordError(err)
		return response.InternalServerError
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed submissions")
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) AdminListSubmissions(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "AdminListSubmissions")
	defer span.End()

	submissions, err := models.ListSubmissions(ctx, h.DB, nil)
	if err != nil {
		span.SetStatus(codes.Error, "failed to list submissions")
		span.RecordError(err)
		return response.InternalServerError
	}

	views, err := h.submissionViews(ctx, submissions)
	if err != nil {
		span.SetStatus(codes.Error, "failed to build views")
		span.RecordError(err)
		return response.InternalServerError
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed submissions")
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) submissionViews(
	ctx context.Context,
	submissions []models.Submission,
) ([]*types.SubmissionView, error) {
	views := make([]*types.SubmissionView, 0, len(submissions))
	for i := range submissions {
		view, err := h.submissionView(ctx, &submissions[i])
		if err != nil {
			return nil, err
		}

		views = append(views, view)
	}

	return views, nil
}

// submissionView assembles the API shape of a submission: owner username,
// resolved derivative URLs with original fallback, and the judgment when one
// exists.
func (h *Handler) submissionView(
	ctx context.Context,
	submission *models.Submission,
) (*types.SubmissionView, error) {
	owner, err := models.ByID[models.User](ctx, h.DB, submission.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submission owner: %w", err)
	}

	view := types.SubmissionView{
		ID:       submission.ID.String(),
		Username: owner.Username,
		ImageURL: storage.ResolveDerivative(
			ctx, h.store, submission.ImageRef, nil, types.KindOriginal,
		),
		ThumbnailURL: storage.ResolveDerivative(
			ctx,
			h.store,
			submission.ImageRef,
			models.PtrFromNull(submission.ThumbnailRef),
			types.KindThumbnail,
		),
		WatermarkedURL: storage.ResolveDerivative(
			ctx,
			h.store,
			submission.ImageRef,
			models.PtrFromNull(submission.WatermarkedRef),
			types.KindWatermarked,
		),
		Description: submission.Description,
		Judged:      submission.IsJudged,
		CreatedAt:   submission.CreatedAt,
	}

	judgment, err := models.JudgmentFor(ctx, h.DB, submission.ID)
	if err != nil {
		return nil, err
	}

	if judgment != nil {
		judge, err := models.ByID[models.User](ctx, h.DB, judgment.JudgeID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch judge: %w", err)
		}

		view.Judgment = &types.JudgmentView{
			ID:              judgment.ID.String(),
			SubmissionID:    judgment.SubmissionID.String(),
			Verdict:         judgment.Verdict,
			SpeedKMH:        models.PtrFromNull(judgment.SpeedKMH),
			Comment:         judgment.Comment,
			DetailedComment: judgment.DetailedComment,
			RejectionReason: judgment.RejectionReason,
			JudgeName:       judge.Name(),
			CreatedAt:       judgment.CreatedAt,
		}
	}

	return &view, nil
}
