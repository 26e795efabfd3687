package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/annix-labs/fieldflow/internal/application/platform/usecases"
	"github.com/annix-labs/fieldflow/internal/infrastructure/config"
	"github.com/annix-labs/fieldflow/internal/infrastructure/crypto"
	"github.com/annix-labs/fieldflow/internal/infrastructure/database"
	"github.com/annix-labs/fieldflow/internal/infrastructure/providers"
	"github.com/annix-labs/fieldflow/internal/infrastructure/repository"
	"github.com/annix-labs/fieldflow/internal/infrastructure/scheduler"
	"github.com/annix-labs/fieldflow/internal/infrastructure/storage"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

func main() {
	// Parse environment from command line or env variable
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting platform sync worker", "environment", env)

	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer database.Close()
	db := database.Get()

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

	connRepo := repository.NewPlatformConnectionRepository(db)
	recordRepo := repository.NewMeetingRecordRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	recordingRepo := repository.NewMeetingRecordingRepository(db)

	tokens := usecases.NewTokenService(connRepo, registry, cipher, log)
	sync := usecases.NewSyncMeetingsUseCase(connRepo, recordRepo, registry, tokens, log)
	linker := usecases.NewMeetingLinker(meetingRepo, recordingRepo, log)
	pipeline := usecases.NewProcessRecordingsUseCase(connRepo, recordRepo, registry, tokens, store, linker, log)

	sched, err := scheduler.NewSchedulerManager(log)
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
	log.Infow("platform sync worker started", "jobs", len(sched.Jobs()))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Infow("received signal, shutting down", "signal", sig)

	if err := sched.Stop(); err != nil {
		log.Errorw("scheduler shutdown failed", "error", err)
	}
	log.Infow("platform sync worker stopped")
}
