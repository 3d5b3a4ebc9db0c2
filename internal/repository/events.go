package repository

import (
	"context"
	"database/sql"
	"time"

	"eventia/backend/internal/models"
)

func (r *Repository) InsertBookingEvent(ctx context.Context, event models.BookingEvent) error {
	_, err := r.q.Exec(ctx, `
INSERT INTO booking_events (id, booking_id, kind, payload, created_at)
VALUES ($1::uuid, $2::uuid, $3, $4, $5);`,
		event.ID,
		event.BookingID,
		event.Kind,
		[]byte(event.Payload),
		event.CreatedAt,
	)
	return err
}

func (r *Repository) ListUnpublishedEvents(ctx context.Context, limit int) ([]models.BookingEvent, error) {
	rows, err := r.q.Query(ctx, `
SELECT id, booking_id, kind, payload, created_at, published_at
FROM booking_events
WHERE published_at IS NULL
ORDER BY created_at ASC, id ASC
LIMIT $1
FOR UPDATE SKIP LOCKED;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.BookingEvent, 0)
	for rows.Next() {
		var event models.BookingEvent
		var payload []byte
		var publishedAt sql.NullTime
		if err := rows.Scan(&event.ID, &event.BookingID, &event.Kind, &payload, &event.CreatedAt, &publishedAt); err != nil {
			return nil, err
		}
		event.Payload = payload
		event.PublishedAt = nullTimeToPtr(publishedAt)
		out = append(out, event)
	}
	return out, rows.Err()
}

func (r *Repository) MarkEventPublished(ctx context.Context, id string, at time.Time) error {
	cmd, err := r.q.Exec(ctx, `
UPDATE booking_events
SET published_at = $2
WHERE id = $1::uuid AND published_at IS NULL;`, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
