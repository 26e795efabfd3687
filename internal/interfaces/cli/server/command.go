// Package server implements the HTTP API server command.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/annix-labs/fieldflow/internal/application/platform/usecases"
	"github.com/annix-labs/fieldflow/internal/infrastructure/auth"
	"github.com/annix-labs/fieldflow/internal/infrastructure/config"
	"github.com/annix-labs/fieldflow/internal/infrastructure/crypto"
	"github.com/annix-labs/fieldflow/internal/infrastructure/database"
	"github.com/annix-labs/fieldflow/internal/infrastructure/persistence/migrations"
	"github.com/annix-labs/fieldflow/internal/infrastructure/providers"
	"github.com/annix-labs/fieldflow/internal/infrastructure/repository"
	"github.com/annix-labs/fieldflow/internal/infrastructure/scheduler"
	"github.com/annix-labs/fieldflow/internal/infrastructure/storage"
	"github.com/annix-labs/fieldflow/internal/interfaces/http/handlers"
	"github.com/annix-labs/fieldflow/internal/interfaces/http/middleware"
	"github.com/annix-labs/fieldflow/internal/interfaces/http/routes"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

// NewCommand creates the server command
func NewCommand() *cobra.Command {
	var (
		env         string
		autoMigrate bool
	)

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the API server",
		Long:  "Start the FieldFlow HTTP API server with webhook ingestion and, optionally, the in-process sync scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(env, autoMigrate)
		},
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", true, "Run schema migrations on startup")

	return cmd
}

func runServer(env string, autoMigrate bool) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting fieldflow server", "environment", env)

	gin.SetMode(mapEnvToGinMode(cfg.Server.Mode))
	gin.DefaultWriter = io.Discard

	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer database.Close()
	db := database.Get()

	if autoMigrate {
		if err := migrations.MigratePlatformTables(db); err != nil {
			log.Fatalw("platform migrations failed", "error", err)
		}
		if err := migrations.MigrateMeetingTables(db); err != nil {
			log.Fatalw("meeting migrations failed", "error", err)
		}
		log.Infow("schema migrations applied")
	}

	// Infrastructure
	zoomSigner := crypto.NewZoomWebhookSigner(cfg.Platforms.ZoomWebhookSecret)
	cipher, err := crypto.NewTokenCipher(cfg.Platforms.TokenEncryptionKey, log)
	if err != nil {
		log.Fatalw("failed to initialize token cipher", "error", err)
	}

	registry := providers.NewRegistry(
		providers.NewZoomProvider(&cfg.Platforms.Zoom, zoomSigner, log),
		providers.NewTeamsProvider(&cfg.Platforms.Teams, log),
		providers.NewGoogleMeetProvider(&cfg.Platforms.Google, log),
	)

	store, err := storage.NewS3Store(context.Background(), &cfg.Storage)
	if err != nil {
		log.Fatalw("failed to initialize recording storage", "error", err)
	}

	jwtService := auth.NewJWTService(
		cfg.Auth.JWT.Secret,
		cfg.Auth.JWT.AccessExpMinutes,
		cfg.Auth.JWT.RefreshExpDays,
	)

	// Repositories
	connRepo := repository.NewPlatformConnectionRepository(db)
	recordRepo := repository.NewMeetingRecordRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	recordingRepo := repository.NewMeetingRecordingRepository(db)

	// Use cases
	tokens := usecases.NewTokenService(connRepo, registry, cipher, log)
	getOAuthURL := usecases.NewGetOAuthURLUseCase(registry, log)
	connect := usecases.NewConnectPlatformUseCase(connRepo, registry, cipher, cfg.Platforms.WebhookBaseURL, log)
	listConns := usecases.NewListConnectionsUseCase(connRepo, log)
	getConn := usecases.NewGetConnectionUseCase(connRepo, log)
	updateConn := usecases.NewUpdateConnectionUseCase(connRepo, log)
	disconnect := usecases.NewDisconnectPlatformUseCase(connRepo, registry, tokens, log)
	sync := usecases.NewSyncMeetingsUseCase(connRepo, recordRepo, registry, tokens, log)
	linker := usecases.NewMeetingLinker(meetingRepo, recordingRepo, log)
	pipeline := usecases.NewProcessRecordingsUseCase(connRepo, recordRepo, registry, tokens, store, linker, log)
	events := usecases.NewHandlePlatformEventUseCase(connRepo, recordRepo, sync, pipeline, log)
	listRecords := usecases.NewListRecordsUseCase(connRepo, recordRepo, log)
	getRecord := usecases.NewGetRecordUseCase(connRepo, recordRepo, log)

	// HTTP layer
	platformHandler := handlers.NewPlatformHandler(
		getOAuthURL, connect, listConns, getConn, updateConn,
		disconnect, sync, listRecords, getRecord, log,
	)
	webhookHandler := handlers.NewWebhookHandler(registry, events, zoomSigner, log)
	authMiddleware := middleware.NewAuthMiddleware(jwtService, log)

	router := routes.SetupRouter(routes.RouterConfig{
		Mode:            cfg.Server.Mode,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		PlatformHandler: platformHandler,
		WebhookHandler:  webhookHandler,
		AuthMiddleware:  authMiddleware,
		Logger:          log,
	})

	// Optional in-process scheduler. Multi-instance deployments run the
	// dedicated worker binary instead and disable this.
	var sched *scheduler.SchedulerManager
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.NewSchedulerManager(log)
		if err != nil {
			log.Fatalw("failed to create scheduler", "error", err)
		}
		if err := sched.RegisterSyncJobs(sync); err != nil {
			log.Fatalw("failed to register sync jobs", "error", err)
		}
		if err := sched.RegisterRecordingJobs(pipeline); err != nil {
			log.Fatalw("failed to register recording jobs", "error", err)
		}
		if err := sched.RegisterTokenJobs(tokens); err != nil {
			log.Fatalw("failed to register token jobs", "error", err)
		}
		sched.Start()
	}

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server listening", "address", srv.Addr, "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Infow("shutting down server", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(); err != nil {
			log.Errorw("scheduler shutdown failed", "error", err)
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("forced shutdown", "error", err)
		return err
	}

	log.Infow("server stopped")
	return nil
}

func mapEnvToGinMode(mode string) string {
	switch mode {
	case "production", "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
