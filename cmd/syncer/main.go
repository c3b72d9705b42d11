package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"omnivore_sync/internal/config"
	"omnivore_sync/internal/notestore/joplin"
	"omnivore_sync/internal/publisher"
	"omnivore_sync/internal/scheduler"
	"omnivore_sync/internal/service"
	"omnivore_sync/internal/source/omnivore"
	"omnivore_sync/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

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

	// the publisher is optional: without a broker URL note events are dropped
	var pub service.Publisher
	if cfg.RabbitMQ.URL != "" {
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
		pub = rabbitMQ
	}

	stateStore := postgres.NewStateStore(db)
	txManager := postgres.NewTransactionManager(db)

	source := omnivore.New(omnivore.Config{
		BaseURL:        cfg.Source.BaseURL,
		APIToken:       cfg.Source.APIToken,
		PageSize:       cfg.Source.PageSize,
		Timeout:        cfg.Source.Timeout,
		MaxAttempts:    cfg.Source.Retry.MaxAttempts,
		InitialBackoff: cfg.Source.Retry.InitialBackoff,
		MaxBackoff:     cfg.Source.Retry.MaxBackoff,
	}, logger)

	noteStore := joplin.NewClient(joplin.Config{
		BaseURL:  cfg.NoteStore.BaseURL,
		APIToken: cfg.NoteStore.APIToken,
		PageSize: cfg.NoteStore.PageSize,
		Timeout:  cfg.NoteStore.Timeout,
	}, logger)

	syncService, err := service.NewSyncService(
		source,
		noteStore,
		stateStore,
		txManager,
		pub,
		logger,
		cfg.Sync,
	)
	if err != nil {
		logger.Error("failed to create sync service", "error", err)
		os.Exit(1)
	}

	sched := scheduler.NewScheduler(syncService, cfg.Sync.Interval, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting omnivore syncer",
		"source", source.Name(),
		"interval", cfg.Sync.Interval,
		"scope", cfg.Sync.Scope,
		"group_by", cfg.Sync.GroupBy,
	)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
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
