package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuongbtq/ats-ingest/internal/api/handler"
	"github.com/cuongbtq/ats-ingest/internal/api/router"
	"github.com/cuongbtq/ats-ingest/internal/api/storage"
	"github.com/cuongbtq/ats-ingest/internal/config"
	"github.com/cuongbtq/ats-ingest/internal/embedding"
	"github.com/cuongbtq/ats-ingest/internal/ingest"
	"github.com/cuongbtq/ats-ingest/internal/notify"
	"github.com/cuongbtq/ats-ingest/shared/logger"
	"github.com/cuongbtq/ats-ingest/shared/postgresql"
	"github.com/cuongbtq/ats-ingest/shared/rabbitmq"
	"github.com/cuongbtq/ats-ingest/shared/redis"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := initLogger(&cfg.Logging, cfg.App.Name)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("embedding_mode", cfg.Embedding.Mode),
	)

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	dbClient, err := initPostgreSQL(startCtx, &cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()
	appLogger.Info("Database connection established", dbClient.Stats()...)

	healthChecks := map[string]handler.HealthChecker{"postgres": dbClient}

	// company lookups are cached only when redis is configured
	var companyCache storage.Cache
	if cfg.Redis.URL != "" {
		redisClient, err := initRedis(startCtx, &cfg.Redis, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer redisClient.Close()
		companyCache = redisClient
		healthChecks["redis"] = redisClient
	}

	var refresher ingest.EmbeddingRefresher
	switch cfg.Embedding.Mode {
	case config.EmbeddingModeQueue:
		rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		defer rabbitClient.Close()
		refresher = embedding.NewPublisher(rabbitClient, appLogger.Logger)
		healthChecks["rabbitmq"] = rabbitClient
	case config.EmbeddingModeDirect:
		refresher = newEmbeddingClient(&cfg.Embedding, appLogger.Logger)
	default:
		appLogger.Warn("Embedding refresh disabled")
	}

	var notifier ingest.Notifier
	if cfg.Notifier.Enabled {
		notifier = notify.NewHTTPNotifier(notify.HTTPConfig{
			Endpoint: cfg.Notifier.Endpoint,
			Timeout:  cfg.Notifier.Timeout,
		}, appLogger.Logger)
	} else {
		notifier = notify.NewLogNotifier(appLogger.Logger)
	}

	jobStore := storage.NewStorage(dbClient.GetDB(), appLogger.Logger)
	companies := storage.NewCompanyDirectory(dbClient.GetDB(), companyCache, cfg.Redis.CompanyTTL, appLogger.Logger)
	effects := ingest.NewOrchestrator(refresher, notifier, cfg.Embedding.RefreshTimeout, appLogger.Logger)
	pipeline := ingest.NewPipeline(jobStore, companies, effects, appLogger.Logger)

	r := initRouter(cfg, &handler.Dependencies{
		Logger:       appLogger.Logger,
		Pipeline:     pipeline,
		Aggregator:   ingest.NewAggregator(pipeline, cfg.Ingest.MaxBatchSize, appLogger.Logger),
		Jobs:         jobStore,
		HealthChecks: healthChecks,
		MaxBodyBytes: cfg.Ingest.MaxBodyBytes,
		ServiceName:  cfg.App.Name,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	appLogger.Info("API service is running",
		slog.String("address", addr),
		slog.Int("max_batch_size", cfg.Ingest.MaxBatchSize),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Shutting down server...", slog.String("signal", sig.String()))
	case err := <-serverErr:
		appLogger.Error("Server failed", slog.Any("error", err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", slog.Any("error", err))
		return err
	}

	// let detached embedding refreshes reach the broker before connections close
	if err := effects.Wait(ctx); err != nil {
		appLogger.Warn("Pending embedding refreshes abandoned", slog.Any("error", err))
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig, service string) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
		Service:      service,
	})
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	return postgresql.NewClient(ctx, &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnectTimeout:  cfg.ConnectTimeout,
	}, logger)
}

// initRedis connects the company cache
func initRedis(ctx context.Context, cfg *config.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	return redis.NewClient(ctx, &redis.Config{
		URL:          cfg.URL,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, logger)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	return rabbitmq.NewClient(&rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		DeadLetterExchange: cfg.Queue.DeadLetterExchange,
		DeadLetterQueue:    cfg.Queue.DeadLetterQueue,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}, logger)
}

// newEmbeddingClient builds the matching service client for direct mode
func newEmbeddingClient(cfg *config.EmbeddingConfig, logger *slog.Logger) *embedding.Client {
	return embedding.NewClient(embedding.ClientConfig{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		Burst:     cfg.Burst,
	}, logger)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(cfg *config.Config, deps *handler.Dependencies) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	return router.SetupRouter(deps)
}
