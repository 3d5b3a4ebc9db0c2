package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventia/backend/internal/cache"
	"eventia/backend/internal/config"
	"eventia/backend/internal/events"
	"eventia/backend/internal/http/handlers"
	"eventia/backend/internal/http/middleware"
	"eventia/backend/internal/integrations"
	"eventia/backend/internal/logging"
	"eventia/backend/internal/repository"
	"eventia/backend/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.Logging, "api")
	if err != nil {
		log.Fatalf("log error: %v", err)
	}
	defer func() {
		_ = cleanup()
	}()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("store error", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	deps := service.Dependencies{Logger: logger, TicketSecret: cfg.TicketSecret}
	var idempotency cache.Client
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("redis error", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		idempotency = redisClient
		deps.Cache = cache.NewUpiSettingsCache(redisClient, cfg.Limits.UpiSettingsCacheTTL)
	} else {
		logger.Warn("redis_disabled", "effect", "no settings cache and no idempotent replay")
	}

	if cfg.S3.Bucket != "" {
		s3Client, err := integrations.NewS3(ctx, cfg.S3)
		if err != nil {
			logger.Error("s3 error", "error", err)
			os.Exit(1)
		}
		deps.Proofs = s3Client
	}

	svc := service.New(store, deps)

	// The memory store is process-local, so its outbox is relayed from here.
	if cfg.StoreDriver == config.StoreDriverMemory && cfg.AMQPURL != "" {
		publisher := events.NewAMQPPublisher(cfg.AMQPURL, logger)
		defer publisher.Close()
		relay := events.NewRelay(store, publisher, logger, cfg.Worker.BatchSize, cfg.Worker.PollInterval)
		go func() {
			if err := relay.Run(ctx); err != nil {
				logger.Error("relay_stopped", "error", err)
			}
		}()
	}

	h := handlers.New(svc, cfg, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(10 * time.Second))
	r.Use(middleware.Metrics)
	r.Use(corsMiddleware)
	h.Routes(r, idempotency)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown", "service", "api")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type,Idempotency-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
