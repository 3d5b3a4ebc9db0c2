package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"eventia/backend/internal/config"
	"eventia/backend/internal/events"
	"eventia/backend/internal/logging"
	"eventia/backend/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.Logging, "worker")
	if err != nil {
		log.Fatalf("log error: %v", err)
	}
	defer func() {
		_ = cleanup()
	}()
	slog.SetDefault(logger)

	if cfg.StoreDriver != config.StoreDriverPostgres {
		logger.Error("worker requires STORE_DRIVER=postgres")
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("RABBITMQ_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("store error", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	publisher := events.NewAMQPPublisher(cfg.AMQPURL, logger)
	defer publisher.Close()

	relay := events.NewRelay(store, publisher, logger, cfg.Worker.BatchSize, cfg.Worker.PollInterval)
	logger.Info("worker_started", "batch_size", cfg.Worker.BatchSize, "poll_interval", cfg.Worker.PollInterval.String())
	if err := relay.Run(ctx); err != nil {
		logger.Error("relay_stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown", "service", "worker")
}
