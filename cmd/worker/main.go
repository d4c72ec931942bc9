package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/nathanfredericks/instagrader/internal/config"
	"github.com/nathanfredericks/instagrader/internal/database"
	"github.com/nathanfredericks/instagrader/internal/models"
	"github.com/nathanfredericks/instagrader/internal/queue"
	"github.com/nathanfredericks/instagrader/internal/repository"
	"github.com/nathanfredericks/instagrader/internal/service"
	"github.com/nathanfredericks/instagrader/internal/storage"
	"github.com/nathanfredericks/instagrader/pkg/extract"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "worker").Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Rubric{}, &models.Assignment{}, &models.Essay{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, "instagrader-worker")
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	defer natsConn.Drain()

	blobStorage, err := storage.NewMinioStorage(storage.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create object storage client: %v", err)
	}

	essayRepo := repository.NewEssayRepository(db)
	converter := extract.New(logger)
	grader := service.NewNoopGrader(logger)
	extractionService := service.NewExtractionService(essayRepo, blobStorage, converter, grader, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := queue.NewConsumer(natsConn, queue.ExtractSubject, queue.ExtractQueueGroup, extractionService, logger)
	if err := consumer.Start(ctx); err != nil {
		log.Fatalf("failed to start batch consumer: %v", err)
	}

	logger.Info().Msg("extraction worker started")
	<-ctx.Done()
	logger.Info().Msg("extraction worker stopped")
}
