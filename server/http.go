package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"audio-ingest/config"
	"audio-ingest/constant"
	ingestHandler "audio-ingest/handler"
	"audio-ingest/middleware"
	"audio-ingest/pkg/auth"
	"audio-ingest/pkg/events"
	"audio-ingest/pkg/storage"
	"audio-ingest/repository"
	"audio-ingest/service"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	repo := repository.NewRepo(cfg.DB)
	store := storage.NewMinIOStore(cfg.Storage, cfg.MinIOBucket)
	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret)
	hub := events.NewHub()

	// The change-event bus is optional wiring: without RabbitMQ the server
	// still ingests, it just serves no live updates.
	var bus events.Publisher
	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
	} else {
		bus, err = events.NewPublisher(conn, cfg.Queue)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("NewPublisher")
			bus = nil
		}

		changeConsumer := events.NewConsumer(conn, cfg.Queue, cfg.Server.Workers, ingestHandler.ChangeEventHandler)
		go func() {
			err := changeConsumer.Consume(ctx, ingestHandler.ConsumerDependencies{Hub: hub})
			if err != nil && !errors.Is(err, context.Canceled) {
				zerolog.Ctx(ctx).Error().Err(err).Msg("Change event consumer error")
			}
		}()
	}

	ingestService := service.NewIngestService(repo, store, bus, cfg.Limits)
	recordingService := service.NewRecordingService(repo, store, bus, cfg.Limits)

	reconciler := service.NewReconciler(repo, store, cfg.Reconcile)
	go reconciler.Run(ctx)

	h := ingestHandler.NewHandler(ingestService, recordingService, hub, cfg.Limits.MaxUploadBytes)

	r := gin.Default()
	r.Use(middleware.Logger(ctx))
	addHealth(r)
	addRoutes(r, h, jwtService)

	handler := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := handler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	if err := handler.Shutdown(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func addRoutes(r *gin.Engine, h *ingestHandler.Handler, jwtService *auth.JWTService) {
	authed := r.Group("/", middleware.Principal(jwtService))

	authed.POST("/import", h.Import)
	authed.POST("/recorded", h.UploadRecorded)

	authed.GET("/recordings", h.List)
	authed.GET("/recordings/events", h.Events)
	authed.DELETE("/recordings/:id", h.Delete)
	authed.POST("/recordings/:id/retry", h.Retry)
	authed.GET("/recordings/:id/play", h.Play)
	authed.GET("/recordings/:id/download", h.Download)
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
