package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	srverr "github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/error"
	servermiddleware "github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/middleware"
	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/models"
	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/notify"
	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/ratelimit"
	"github.com/Alex1-1-1/world-fastest-punch/internal/config"
	"github.com/Alex1-1-1/world-fastest-punch/internal/logger"
	"github.com/Alex1-1-1/world-fastest-punch/internal/media"
	"github.com/Alex1-1-1/world-fastest-punch/internal/storage"
	"github.com/Alex1-1-1/world-fastest-punch/internal/types"
	"github.com/Alex1-1-1/world-fastest-punch/internal/upload"
)

const name = "github.com/Alex1-1-1/world-fastest-punch/server/routes/v1"

var tracer = otel.Tracer(name)

type Handler struct {
	DB    *gorm.DB
	store storage.MediaStore
	// Nil on the remote backend, which derives variants through URL
	// transformations instead of stored files.
	deriver *media.Deriver
	// If not nil originals are archived by content hash.
	archiver upload.Archiver
	notifier notify.Notifier
	config   *config.Config
}

func NewRedisLimiter(
	redisHost string,
	limiterKey string,
	perMinute int64,
	failOpen bool,
	onlyMethod *string,
) middleware.RateLimiterConfig {
	l := logger.Logger
	var store middleware.RateLimiterStore

	redisAddr := redisHost + ":6379"
	l.Debug("Setting up rate limiter with Redis", "redis", redisAddr)
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	rdConf := &ratelimit.RedisLimiterConfig{
		PerMinute:   perMinute,
		RedisClient: rdb,
		LimiterKey:  limiterKey,
		FailOpen:    failOpen,
	}
	store = ratelimit.NewRedisLimitStore(*rdConf)

	skipper := middleware.DefaultSkipper
	if onlyMethod != nil {
		skipper = func(c echo.Context) bool {
			return c.Request().Method != *onlyMethod
		}
	}

	return middleware.RateLimiterConfig{
		Skipper: skipper,
		Store:   store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			identity, ok := c.Get("identity").(types.Identity)
			if !ok {
				return "", srverr.ErrTypeAssertMismatch
			}
			if identity.Guest {
				return c.RealIP(), nil
			}
			return identity.ID.String(), nil
		},
		ErrorHandler: func(context echo.Context, _ error) error {
			return context.JSON(http.StatusForbidden, nil)
		},
		DenyHandler: func(context echo.Context, _ string, _ error) error {
			return context.JSON(http.StatusTooManyRequests, nil)
		},
	}
}

func NewHandler(
	db *gorm.DB,
	store storage.MediaStore,
	deriver *media.Deriver,
	archiver upload.Archiver,
	notifier notify.Notifier,
	cfg *config.Config,
) Handler {
	return Handler{
		DB:       db,
		store:    store,
		deriver:  deriver,
		archiver: archiver,
		notifier: notifier,
		config:   cfg,
	}
}

func (h *Handler) AddRoutes(e *echo.Echo, middlewareHandler *servermiddleware.Handler) {
	l := logger.Logger

	// Credentials are optional on reads; requests without an Authorization
	// header pass through as the guest identity.
	v1Group := e.Group(
		"/v1",
		middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
			Skipper: func(c echo.Context) bool {
				return c.Request().Header.Get(echo.HeaderAuthorization) == ""
			},
			Validator: middlewareHandler.BasicAuthValidator,
		}),
		servermiddleware.ResolveIdentity("user", "identity"),
	)

	if h.config.RateLimit != nil && h.config.RateLimit.GlobalPerMinute > 0 {
		v1Group.Use(
			middleware.RateLimiterWithConfig(
				NewRedisLimiter(
					h.config.RateLimit.RedisHost,
					"global",
					h.config.RateLimit.GlobalPerMinute,
					h.config.RateLimit.FailOpen,
					nil,
				),
			),
		)
	} else {
		l.Warn("not configured to have a global rate limit")
	}

	v1Group.GET("/ping/", h.Ping)

	submissionGroup := v1Group.Group("/submissions")

	if h.config.RateLimit != nil && h.config.RateLimit.SubmitPerMinute > 0 {
		post := http.MethodPost

		submissionGroup.Use(
			middleware.RateLimiterWithConfig(
				NewRedisLimiter(
					h.config.RateLimit.RedisHost,
					"submit",
					h.config.RateLimit.SubmitPerMinute,
					h.config.RateLimit.FailOpen,
					&post,
				),
			),
		)
	} else {
		l.Warn("not configured to have a submit rate limit")
	}

	submissionGroup.POST(
		"/",
		h.CreateSubmission,
		servermiddleware.RequireAuthenticated("identity"),
	)
	submissionGroup.GET("/", h.ListSubmissions)
	submissionGroup.GET(
		"/:submission_id/",
		h.GetSubmission,
		servermiddleware.PopulateFromIDParam[models.Submission](
			middlewareHandler,
			"submission_id",
			"submission",
		),
	)
	submissionGroup.POST(
		"/:submission_id/judgment/",
		h.SubmitVerdict,
		servermiddleware.RequireJudge("identity"),
		servermiddleware.PopulateFromIDParam[models.Submission](
			middlewareHandler,
			"submission_id",
			"submission",
		),
	)
	submissionGroup.POST(
		"/:submission_id/report/",
		h.CreateReport,
		servermiddleware.RequireAuthenticated("identity"),
		servermiddleware.PopulateFromIDParam[models.Submission](
			middlewareHandler,
			"submission_id",
			"submission",
		),
	)

	notificationGroup := v1Group.Group(
		"/notifications",
		servermiddleware.RequireAuthenticated("identity"),
	)
	notificationGroup.GET("/", h.ListNotifications)
	notificationGroup.PATCH("/:notification_id/read/", h.MarkNotificationRead)

	v1Group.GET("/rankings/", h.ListRankings)

	adminGroup := v1Group.Group("/admin", servermiddleware.RequireJudge("identity"))
	adminGroup.GET("/submissions/", h.AdminListSubmissions)
	adminGroup.GET("/reports/", h.AdminListReports)
}
