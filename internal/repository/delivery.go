package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventia/backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const deliveryColumns = `booking_id, name, phone, address, city, pincode, dispatch_ready, tracking_number, dispatched_by, dispatched_at, created_at, updated_at`

// UpsertDelivery stores the address of a booking; rows already dispatched are frozen.
func (r *Repository) UpsertDelivery(ctx context.Context, d models.DeliveryDetails) (models.DeliveryDetails, error) {
	row := r.q.QueryRow(ctx, `
INSERT INTO delivery_details (booking_id, name, phone, address, city, pincode, dispatch_ready, created_at, updated_at)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $8)
ON CONFLICT (booking_id)
DO UPDATE SET
	name = EXCLUDED.name,
	phone = EXCLUDED.phone,
	address = EXCLUDED.address,
	city = EXCLUDED.city,
	pincode = EXCLUDED.pincode,
	dispatch_ready = delivery_details.dispatch_ready OR EXCLUDED.dispatch_ready,
	updated_at = now()
WHERE delivery_details.dispatched_at IS NULL
RETURNING `+deliveryColumns+`;`,
		d.BookingID,
		d.Name,
		d.Phone,
		d.Address,
		d.City,
		d.Pincode,
		d.DispatchReady,
		d.CreatedAt,
	)
	out, err := scanDelivery(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return out, ErrStateNotAllowed
	}
	return out, err
}

func (r *Repository) GetDelivery(ctx context.Context, bookingID string) (models.DeliveryDetails, error) {
	row := r.q.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM delivery_details WHERE booking_id = $1::uuid`, bookingID)
	out, err := scanDelivery(row)
	return out, notFound(err)
}

func (r *Repository) MarkDispatchReady(ctx context.Context, bookingID string) (models.DeliveryDetails, error) {
	row := r.q.QueryRow(ctx, `
UPDATE delivery_details
SET dispatch_ready = true,
	updated_at = now()
WHERE booking_id = $1::uuid
RETURNING `+deliveryColumns+`;`, bookingID)
	out, err := scanDelivery(row)
	return out, notFound(err)
}

func (r *Repository) MarkDispatched(ctx context.Context, bookingID, trackingNumber, actorID string, at time.Time) (models.DeliveryDetails, error) {
	row := r.q.QueryRow(ctx, `
UPDATE delivery_details
SET tracking_number = $2,
	dispatched_by = $3,
	dispatched_at = $4,
	dispatch_ready = true,
	updated_at = now()
WHERE booking_id = $1::uuid AND dispatched_at IS NULL
RETURNING `+deliveryColumns+`;`, bookingID, trackingNumber, actorID, at)
	out, err := scanDelivery(row)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return out, notFound(err)
	}
	if _, getErr := r.GetDelivery(ctx, bookingID); getErr != nil {
		return out, getErr
	}
	return out, ErrStateNotAllowed
}

func scanDelivery(row pgx.Row) (models.DeliveryDetails, error) {
	var out models.DeliveryDetails
	var tracking sql.NullString
	var dispatchedBy sql.NullString
	var dispatchedAt sql.NullTime
	if err := row.Scan(
		&out.BookingID,
		&out.Name,
		&out.Phone,
		&out.Address,
		&out.City,
		&out.Pincode,
		&out.DispatchReady,
		&tracking,
		&dispatchedBy,
		&dispatchedAt,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return out, err
	}
	out.TrackingNumber = nullStringToPtr(tracking)
	out.DispatchedBy = nullStringToPtr(dispatchedBy)
	out.DispatchedAt = nullTimeToPtr(dispatchedAt)
	return out, nil
}
