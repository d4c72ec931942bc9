package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/nathanfredericks/instagrader/internal/config"
	"github.com/nathanfredericks/instagrader/internal/database"
	"github.com/nathanfredericks/instagrader/internal/handler"
	"github.com/nathanfredericks/instagrader/internal/middleware"
	"github.com/nathanfredericks/instagrader/internal/models"
	"github.com/nathanfredericks/instagrader/internal/queue"
	"github.com/nathanfredericks/instagrader/internal/repository"
	"github.com/nathanfredericks/instagrader/internal/router"
	"github.com/nathanfredericks/instagrader/internal/service"
	"github.com/nathanfredericks/instagrader/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Rubric{}, &models.Assignment{}, &models.Essay{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, "instagrader-api")
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

	validate := validator.New(validator.WithRequiredStructEnabled())

	essayRepo := repository.NewEssayRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	rubricRepo := repository.NewRubricRepository(db)

	publisher := queue.NewPublisher(natsConn, queue.ExtractSubject, logger)

	uploadService := service.NewUploadService(essayRepo, assignmentRepo, blobStorage, publisher, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, essayRepo, rubricRepo, blobStorage, redisClient, cfg.ProgressCacheTTL, logger)
	essayService := service.NewEssayService(essayRepo, blobStorage, publisher, logger)

	assignmentHandler := handler.NewAssignmentHandler(assignmentService, uploadService, validate, logger)
	essayHandler := handler.NewEssayHandler(essayService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler: assignmentHandler,
		EssayHandler:      essayHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
