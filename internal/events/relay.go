package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventia/backend/internal/repository"
)

const (
	defaultBatchSize    = 100
	defaultPollInterval = 5 * time.Second
)

// Relay publishes unpublished outbox rows and marks them as sent.
type Relay struct {
	store     repository.Store
	publisher Publisher
	logger    *slog.Logger
	batchSize int
	interval  time.Duration
	now       func() time.Time
}

func NewRelay(store repository.Store, publisher Publisher, logger *slog.Logger, batchSize int, interval time.Duration) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Relay{
		store:     store,
		publisher: publisher,
		logger:    logger,
		batchSize: batchSize,
		interval:  interval,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce relays one batch and returns how many events were published.
// Rows published before a broker failure stay marked; the rest are retried
// on the next pass, so consumers must tolerate duplicates.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	published := 0
	var publishErr error
	err := r.store.WithTx(ctx, func(tx repository.Store) error {
		batch, err := tx.ListUnpublishedEvents(ctx, r.batchSize)
		if err != nil {
			return fmt.Errorf("list outbox: %w", err)
		}
		for _, event := range batch {
			if err := r.publisher.Publish(ctx, event); err != nil {
				publishErr = fmt.Errorf("event %s: %w", event.ID, err)
				return nil
			}
			if err := tx.MarkEventPublished(ctx, event.ID, r.now()); err != nil {
				return fmt.Errorf("mark event %s published: %w", event.ID, err)
			}
			published++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, publishErr
}

// Run polls the outbox until ctx is cancelled. A full batch is followed
// immediately by another pass.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info("outbox_relay_started", "batch_size", r.batchSize, "interval", r.interval.String())
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox_relay_stopped")
			return nil
		case <-timer.C:
		}

		count, err := r.RunOnce(ctx)
		if count > 0 {
			r.logger.Info("outbox_events_published", "count", count)
		}
		next := r.interval
		switch {
		case err != nil:
			r.logger.Error("outbox_relay_error", "error", err)
		case count == r.batchSize:
			next = 0
		}
		timer.Reset(next)
	}
}
