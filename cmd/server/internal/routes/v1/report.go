package v1

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	srverr "github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/error"
	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/models"
	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/response"
	"github.com/Alex1-1-1/world-fastest-punch/internal/types"
)

func (h *Handler) CreateReport(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CreateReport")
	defer span.End()

	db := h.DB.WithContext(ctx)

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
		attribute.String("identity.id", identity.ID.String()),
		attribute.String("submission.id", submission.ID.String()),
	)

	var rdata types.ReportRequest

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

	report := models.Report{
		SubmissionID: submission.ID,
		ReporterID:   identity.ID,
		Reason:       rdata.Reason,
		Detail:       rdata.Description,
	}

	span.AddEvent("inserting into database")
	err = db.Create(&report).Error
	if err != nil {
		span.SetStatus(codes.Error, "failed to insert")
		span.RecordError(err)
		return response.InternalServerError
	}

	span.SetAttributes(attribute.String("report.id", report.ID.String()))

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created report")
	return c.JSON(http.StatusCreated, types.ReportView{
		ID:           report.ID.String(),
		SubmissionID: report.SubmissionID.String(),
		Reporter:     identity.Username,
		Reason:       report.Reason,
		Description:  report.Detail,
		Resolved:     report.IsResolved,
		CreatedAt:    report.CreatedAt,
	})
}

// AdminListReports returns unresolved reports, newest first.
func (h *Handler) AdminListReports(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "AdminListReports")
	defer span.End()

	db := h.DB.WithContext(ctx)

	var reports []models.Report
	err := db.Where("is_resolved = ?", false).
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		span.SetStatus(codes.Error, "failed to list reports")
		span.RecordError(err)
		return response.InternalServerError
	}

	views := make([]types.ReportView, 0, len(reports))
	for _, report := range reports {
		reporter, err := models.ByID[models.User](ctx, h.DB, report.ReporterID)
		if err != nil {
			span.SetStatus(codes.Error, "failed to fetch reporter")
			span.RecordError(err)
			return response.InternalServerError
		}

		views = append(views, types.ReportView{
			ID:           report.ID.String(),
			SubmissionID: report.SubmissionID.String(),
			Reporter:     reporter.Username,
			Reason:       report.Reason,
			Description:  report.Detail,
			Resolved:     report.IsResolved,
			CreatedAt:    report.CreatedAt,
		})
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed reports")
	return c.JSON(http.StatusOK, views)
}
