package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"tale-server/internal/ai"
	"tale-server/internal/config"
	"tale-server/internal/imagegen"
	"tale-server/internal/logger"
	"tale-server/internal/repository"
	"tale-server/internal/service"
	"tale-server/internal/worker"
)

const (
	maxReconnectAttempts = 5
	reconnectDelay       = 5 * time.Second
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()
	zap.ReplaceGlobals(appLogger)
	appLogger.Info("Starting image worker...", zap.String("env", cfg.AppEnv))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgPool, err := setupPostgres(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgPool.Close()
	appLogger.Info("Connected to PostgreSQL")

	// Воркеру нужен весь сервисный стек: генерация пишет артефакты и
	// обновляет историю теми же инвариантами, что и синхронный путь.
	storyRepo := repository.NewPgStoryRepository(pgPool, appLogger)
	recordRepo := repository.NewPgRefinementRecordRepository(pgPool, appLogger)
	artifactRepo := repository.NewPgImageArtifactRepository(pgPool, appLogger)

	transformer, err := ai.New(ai.Config{
		APIKey:      cfg.AIAPIKey,
		BaseURL:     cfg.AIBaseURL,
		Model:       cfg.AIModel,
		Timeout:     cfg.AITimeout,
		MaxAttempts: cfg.AIMaxAttempts,
		RetryDelay:  cfg.AIRetryDelay,
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize AI client", zap.Error(err))
	}

	imageClient, err := imagegen.New(imagegen.Config{
		BaseURL:     cfg.ImageAPIBaseURL,
		Timeout:     cfg.ImageAPITimeout,
		Ratio:       cfg.ImageRatio,
		StyleSuffix: cfg.ImageStyleSuffix,
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize image client", zap.Error(err))
	}

	storyService := service.NewStoryService(
		storyRepo, recordRepo, artifactRepo,
		repository.NewTxManager(pgPool, appLogger),
		transformer, imageClient,
		service.NewDelayPacer(cfg.ImagePacingDelay),
		appLogger,
	)
	messageHandler := worker.NewHandler(appLogger, storyService)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runConsumerLoop(ctx, cfg, appLogger, messageHandler)
	}()

	appLogger.Info("Image worker started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down image worker...")

	cancel()
	wg.Wait()
	appLogger.Info("Image worker shut down gracefully")
}

// runConsumerLoop держит соединение с RabbitMQ и перезапускает consumer
// после разрыва, пока контекст не отменен.
func runConsumerLoop(ctx context.Context, cfg *config.Config, logger *zap.Logger, handler *worker.Handler) {
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := connectRabbitMQ(ctx, cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
			return
		}

		if err := worker.Consume(ctx, logger, conn, cfg.ImageTaskQueue, cfg.ImageTaskPrefetch, handler); err != nil {
			logger.Error("Consumer stopped with error", zap.Error(err))
		}
		conn.Close()

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
			logger.Info("Restarting consumer...")
		}
	}
}

func setupPostgres(cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer connectCancel()
	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create postgres connection pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping postgres database: %w", err)
	}
	logger.Info("PostgreSQL pool ready", zap.String("db", cfg.MaskedDSN()))
	return pool, nil
}

func connectRabbitMQ(ctx context.Context, url string, logger *zap.Logger) (*amqp091.Connection, error) {
	var conn *amqp091.Connection
	var err error
	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		conn, err = amqp091.Dial(url)
		if err == nil {
			logger.Info("RabbitMQ connected successfully", zap.Int("attempt", attempt))
			return conn, nil
		}
		logger.Error("Failed to connect to RabbitMQ", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-time.After(reconnectDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxReconnectAttempts, err)
}
