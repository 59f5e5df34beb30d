package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	sloggorm "github.com/orandin/slog-gorm"
	otellib "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormtracing "gorm.io/plugin/opentelemetry/tracing"

	servermiddleware "github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/middleware"
	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/migrations"
	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/models"
	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/notify"
	"github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/routes"
	routesv1 "github.com/Alex1-1-1/world-fastest-punch/cmd/server/internal/routes/v1"
	"github.com/Alex1-1-1/world-fastest-punch/internal/config"
	"github.com/Alex1-1-1/world-fastest-punch/internal/logger"
	"github.com/Alex1-1-1/world-fastest-punch/internal/media"
	"github.com/Alex1-1-1/world-fastest-punch/internal/otel"
	"github.com/Alex1-1-1/world-fastest-punch/internal/storage"
	"github.com/Alex1-1-1/world-fastest-punch/internal/upload"
)

const name string = "github.com/Alex1-1-1/world-fastest-punch/server"

var tracer = otellib.Tracer(name)

type server struct {
	router       *echo.Echo
	config       *config.Config
	db           *gorm.DB
	otelShutdown func(context.Context) error
}

func initServer(ctx context.Context) (*server, error) {
	server := new(server)

	cfg, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize server config: %w", err)
	}
	server.config = cfg

	shutdownOTel, err := otel.SetupOTelSDK(ctx, cfg.Logging.UseOTLP)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OTEL SDK: %w", err)
	}
	defer func() {
		// Something failed to initialize, make sure everything gets flushed to the server
		if server.otelShutdown == nil {
			otelShutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				time.Second*time.Duration(cfg.GracefulShutdownSecs),
			)
			defer cancel()

			if err = shutdownOTel(otelShutdownCtx); err != nil {
				logger.Logger.Error("failed to flush otel data", "error", err)
			}
		}
	}()

	ctx, span := tracer.Start(ctx, "initServer")
	defer span.End()

	logger.LogLevel.Set(slog.Level(cfg.Logging.App.Level))
	gormLogger := slog.New(logger.Handler)

	sg := sloggorm.New(
		sloggorm.WithHandler(gormLogger.Handler()),
		sloggorm.SetLogLevel(sloggorm.DefaultLogType, slog.Level(cfg.Logging.Gorm.Level)),
	)
	if cfg.Logging.Gorm.TraceQueries {
		sg = sloggorm.New(
			sloggorm.WithHandler(gormLogger.Handler()),
			sloggorm.WithTraceAll(),
			sloggorm.SetLogLevel(sloggorm.DefaultLogType, slog.Level(cfg.Logging.Gorm.Level)),
		)
	}

	span.AddEvent("initialized gorm logging")

	db, err := gorm.Open(
		postgres.Open(cfg.PostgresDSN()),
		&gorm.Config{Logger: sg, TranslateError: true},
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to initialize database")
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to acquire underlying database connection")
		return nil, fmt.Errorf("failed to acquire underlying database connection: %w", err)
	}

	// Configure db connection pool
	sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConnections)
	sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConnections)
	sqlDB.SetConnMaxLifetime(cfg.Postgres.ConnectionTTL)

	span.AddEvent("initialized database connection")

	err = db.Use(gormtracing.NewPlugin())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to add otel plugin to gorm")
		return nil, fmt.Errorf("failed to add otel plugin to gorm: %w", err)
	}

	span.AddEvent("added the otel plugin to gorm")

	err = migrations.Up(ctx, db)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to perform database migrations")
		return nil, fmt.Errorf("failed to perform database migrations: %w", err)
	}

	span.AddEvent("migrated database to latest version")

	if err = models.LoadUsersFromConfig(ctx, db, cfg.Users); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load users from config")
		return nil, fmt.Errorf("failed to load users from config: %w", err)
	}

	span.AddEvent("loaded users from config")

	var store storage.MediaStore
	var deriver *media.Deriver
	switch cfg.Media.Backend {
	case "local":
		store = storage.NewLocalStore(cfg.Media.Local.Root, cfg.Media.Local.BaseURL)
		deriver, err = media.NewDeriver(store, cfg.Media.WatermarkCaption)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to construct media deriver")
			return nil, fmt.Errorf("failed to construct media deriver: %w", err)
		}
	case "cloudinary":
		// Derivatives are URL transformations on this backend, no deriver needed.
		store = storage.NewCloudinaryStore(
			cfg.Media.Cloudinary.CloudName,
			cfg.Media.Cloudinary.APIKey,
			cfg.Media.Cloudinary.APISecret,
			cfg.Media.Cloudinary.LogoPublicID,
			storage.WithEndpoints(cfg.Media.Cloudinary.UploadURL, cfg.Media.Cloudinary.DeliveryURL),
		)
	default:
		return nil, fmt.Errorf("unknown media backend: %s", cfg.Media.Backend)
	}

	span.AddEvent("initialized media storage backend")

	var archiver upload.Archiver
	if cfg.S3Archive != nil && cfg.S3Archive.Enabled {
		minioArchiver, err := upload.NewMinioArchiver(
			cfg.S3Archive.Endpoint,
			cfg.S3Archive.AccessKeyID,
			cfg.S3Archive.SecretAccessKey,
			cfg.S3Archive.SSLEnabled,
			cfg.S3Archive.BucketName,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to construct archiver")
			return nil, err
		}
		archiver = upload.NewRetryArchiver(minioArchiver)

		span.AddEvent("initialized s3 archiver")
	}

	notifier := notify.NewDBNotifier(db)

	v1Handler := routesv1.NewHandler(db, store, deriver, archiver, notifier, cfg)
	middlewareHandler := servermiddleware.Handler{DB: db}

	e, err := routes.BuildEcho(logger.Logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "error building router")
		return nil, fmt.Errorf("error building router: %w", err)
	}

	span.AddEvent("created echo router")

	if cfg.Media.Backend == "local" {
		e.Static("/media", cfg.Media.Local.Root)
	}

	v1Handler.AddRoutes(e, &middlewareHandler)

	server.otelShutdown = shutdownOTel
	server.router = e
	server.db = db

	return server, nil
}

func (s *server) Start(_ context.Context) error {
	logger.Logger.Info("Starting services...")

	err := s.router.Start(s.config.ListenAddress)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *server) Shutdown() error {
	var errs error

	ctx, cancelTimeout := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(s.config.GracefulShutdownSecs),
	)
	defer cancelTimeout()

	if err := s.router.Shutdown(ctx); err != nil {
		errs = errors.Join(errs, err)
	}

	if s.otelShutdown != nil {
		errs = errors.Join(errs, s.otelShutdown(ctx))
	}

	return errs
}

func main() {
	ctx, cancelSignal := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)

	logger.InitSlog()

	server, err := initServer(ctx)
	if err != nil {
		logger.Logger.Error(err.Error())
		cancelSignal()
		os.Exit(1)
	}

	errch := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Got shutdown signal!")
		errch <- server.Shutdown()
		close(errch)
	}()

	if err := server.Start(ctx); err != nil {
		logger.Logger.Error(err.Error())
		cancelSignal()
		os.Exit(1)
	}

	if err := <-errch; err != nil {
		logger.Logger.Error("Error shutting down server", "error", err)
	}

	cancelSignal()
}
