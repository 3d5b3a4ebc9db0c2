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
	"eventia/backend/internal/models"
	"eventia/backend/internal/repository"
	"eventia/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.Logging, "dispatch")
	if err != nil {
		log.Fatalf("log error: %v", err)
	}
	defer func() {
		_ = cleanup()
	}()
	slog.SetDefault(logger)

	if cfg.StoreDriver != config.StoreDriverPostgres {
		logger.Error("dispatch consumer requires STORE_DRIVER=postgres")
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

	svc := service.New(store, service.Dependencies{Logger: logger, TicketSecret: cfg.TicketSecret})

	consumer := events.NewConsumer(cfg.AMQPURL, logger)
	consumer.Handle(models.EventKindBookingConfirmed, events.DispatchReadyHandler(svc.Delivery))

	logger.Info("dispatch_started", "queue", models.EventKindBookingConfirmed)
	if err := consumer.Run(ctx); err != nil {
		logger.Error("consumer_stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown", "service", "dispatch")
}
