package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/codes"

	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/models"
	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/response"
	"github.com/Alex1-1-1/world-fastest-punch/internal/types"
)

// ListRankings serves stored ranking rows with their submissions embedded.
// The rows are maintained elsewhere; this endpoint only reads them.
func (h *Handler) ListRankings(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListRankings")
	defer span.End()

	var period *types.RankingPeriod
	if raw := c.QueryParam("period"); raw != "" {
		parsed := types.RankingPeriod(raw)
		switch parsed {
		case types.RankingWeekly, types.RankingMonthly, types.RankingAllTime:
			period = &parsed
		default:
			span.SetStatus(codes.Ok, "invalid period filter")
			span.RecordError(nil)
			return echo.NewHTTPError(
				http.StatusBadRequest,
				types.FieldError("period", "must be weekly, monthly, or all_time"),
			)
		}
	}

	rankings, err := models.ListRankings(ctx, h.DB, period)
	if err != nil {
		span.SetStatus(codes.Error, "failed to list rankings")
		span.RecordError(err)
		return response.InternalServerError
	}

	views := make([]types.RankingView, 0, len(rankings))
	for _, ranking := range rankings {
		submission, err := models.ByID[models.Submission](ctx, h.DB, ranking.SubmissionID)
		if err != nil {
			span.SetStatus(codes.Error, "failed to fetch ranked submission")
			span.RecordError(err)
			return response.InternalServerError
		}

		view, err := h.submissionView(ctx, submission)
		if err != nil {
			span.SetStatus(codes.Error, "failed to build view")
			span.RecordError(err)
			return response.InternalServerError
		}

		speed := 0.0
		if view.Judgment != nil && view.Judgment.SpeedKMH != nil {
			speed = *view.Judgment.SpeedKMH
		}

		views = append(views, types.RankingView{
			ID:         ranking.ID.String(),
			Period:     ranking.Period,
			Rank:       uint(ranking.Rank),
			SpeedKMH:   speed,
			CreatedAt:  ranking.CreatedAt,
			Submission: view,
		})
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed rankings")
	return c.JSON(http.StatusOK, views)
}
