package repository

import (
	"context"
	"fmt"
	"log/slog"

	"eventia/backend/internal/config"
	"eventia/backend/internal/db"
)

// Open returns the store selected by STORE_DRIVER and its close func.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("store_in_memory", "reason", "STORE_DRIVER=memory, data is lost on restart")
		return NewMemoryStore(), func() {}, nil
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: cfg.DBMaxConns})
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.AutoMigrate {
		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("schema_ready")
	}
	return New(pool), pool.Close, nil
}
