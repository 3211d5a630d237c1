// main.go
package main

import (
	"log"

	"bar-booking/cmd"
	"bar-booking/internal/data/repository"
	"bar-booking/internal/usecase"
	"bar-booking/internal/wire"
	"bar-booking/internal/worker"
	"bar-booking/pkg/database"
	"bar-booking/pkg/messaging"
	"bar-booking/pkg/redisdb"
	"bar-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Connect to redis for the token cache
	redisClient, err := redisdb.InitRedis(config.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Kafka producer for lifecycle events
	producer, err := messaging.NewProducer(config.Kafka, logger)
	if err != nil {
		logger.Fatal("Failed to create kafka producer", zap.Error(err))
	}
	defer producer.Close()

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Wire all dependencies
	tokenCache := usecase.NewRedisTokenCache(redisClient, config.Booking.TokenCacheExpiry)
	app := wire.Wiring(repos, tokenCache, config, logger)

	// Background workers
	sweeper := worker.NewNoShowSweeper(app.Service.Booking, config.Sweep, logger)
	sweeper.Start()
	defer sweeper.Stop()

	outboxWorker := worker.NewOutboxWorker(repos.Outbox, producer, config.Outbox, logger)
	outboxWorker.Start()
	defer outboxWorker.Stop()

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	cmd.APIServer(app.Router, config.App.Port)
}
