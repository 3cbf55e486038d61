package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"catalog_syncer/internal/checkpoint"
	"catalog_syncer/internal/config"
	"catalog_syncer/internal/publisher"
	"catalog_syncer/internal/scheduler"
	"catalog_syncer/internal/server"
	"catalog_syncer/internal/service"
	"catalog_syncer/internal/source/rawg"
	"catalog_syncer/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	maxPages := flag.Int("max-pages", -1, "page-count cap for a run (0 = unlimited, -1 = use config)")
	pageSize := flag.Int("page-size", 0, "results per page (0 = use config)")
	clearCheckpoint := flag.Bool("clear-checkpoint", false, "wipe persisted visited pages before the first run")
	once := flag.Bool("once", false, "run a single sync and exit instead of scheduling")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	// Flags override the config for operator-triggered runs
	if *maxPages >= 0 {
		cfg.Sync.MaxPages = *maxPages
	}
	if *pageSize > 0 {
		cfg.API.PageSize = *pageSize
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize RabbitMQ publisher
	rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbitMQ.Close()

	// Initialize stores
	gameStore := postgres.NewGameStore(db)
	txManager := postgres.NewTransactionManager(db)

	checkpointStore, err := newCheckpointStore(cfg.Checkpoint, db)
	if err != nil {
		logger.Error("failed to initialize checkpoint store", "error", err)
		os.Exit(1)
	}

	// Initialize RAWG source
	rawgSource := rawg.New(rawg.Config{
		BaseURL:        cfg.API.BaseURL,
		Key:            cfg.API.Key,
		Timeout:        cfg.API.Timeout,
		MaxAttempts:    cfg.API.Retry.MaxAttempts,
		InitialBackoff: cfg.API.Retry.InitialBackoff,
		MaxBackoff:     cfg.API.Retry.MaxBackoff,
	}, logger)

	batcher := service.NewBatcher(gameStore, txManager, logger)

	syncService := service.NewSyncService(
		rawgSource,
		batcher,
		checkpointStore,
		rabbitMQ,
		logger,
		cfg.Sync,
		cfg.API.PageSize,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if *clearCheckpoint {
		if err := syncService.ClearCheckpoint(ctx); err != nil {
			logger.Error("failed to clear checkpoint", "error", err)
			os.Exit(1)
		}
		logger.Info("checkpoint cleared")
	}

	obs := server.New(cfg.Metrics.Addr, logger)
	go func() {
		if err := obs.Start(); err != nil {
			logger.Error("observability server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	sched := scheduler.NewScheduler(syncService, cfg.Sync.Interval, cfg.Sync.Interval, logger)

	logger.Info("starting catalog syncer",
		"source", rawgSource.Name(),
		"interval", cfg.Sync.Interval,
		"max_pages", cfg.Sync.MaxPages,
		"page_size", cfg.API.PageSize,
		"once", *once,
	)

	if *once {
		if err := sched.RunOnce(ctx); err != nil && err != context.Canceled {
			logger.Error("sync error", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func newCheckpointStore(cfg config.CheckpointConfig, db *sqlx.DB) (service.CheckpointStore, error) {
	switch cfg.Backend {
	case "postgres":
		return postgres.NewCheckpointStore(db), nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		return checkpoint.NewRedisStore(client, cfg.Redis.Key), nil
	default:
		return checkpoint.NewFileStore(cfg.Path), nil
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
