package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sfoufcat/coachhub/internal/config"
	"github.com/sfoufcat/coachhub/internal/database"
	"github.com/sfoufcat/coachhub/internal/repository"
	"github.com/sfoufcat/coachhub/internal/routes"
	"github.com/sfoufcat/coachhub/internal/services"
	"github.com/sfoufcat/coachhub/internal/worker"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}
	if err := database.ConnectDB(cfg.DBUrl); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB()

	// 3. Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(cors.New())
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	// Routes
	if err := routes.RegisterRoutes(app, cfg, database.DB, logger); err != nil {
		log.Fatalf("Failed to register routes: %v", err)
	}

	// 4. Start outbox worker
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	outboxWorker := worker.NewOutboxWorker(
		repository.NewOutboxRepository(database.DB),
		repository.NewContentRepository(database.DB),
		repository.NewEnrollmentRepository(database.DB),
		services.NewHTTPTaskSyncService(cfg.TaskSyncURL, cfg.TaskSyncAPIKey),
		logger,
	)
	go outboxWorker.Run(workerCtx)

	// 5. Start Server
	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func newLogger(appEnv string) (*zap.Logger, error) {
	if appEnv == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
