package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"eventia/backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const bookingColumns = `id, event_id, user_id, seats, total_amount, discount_applied, final_amount, discount_id, status, created_at, updated_at`

const paymentColumns = `id, booking_id, amount, utr_number, status, verified_by, refunded_by, payment_date, proof_key, created_at, updated_at`

func (r *Repository) InsertBooking(ctx context.Context, booking models.Booking) (models.Booking, error) {
	seats, err := json.Marshal(booking.Seats)
	if err != nil {
		return models.Booking{}, fmt.Errorf("encode seats: %w", err)
	}
	row := r.q.QueryRow(ctx, `
INSERT INTO bookings (id, event_id, user_id, seats, total_amount, discount_applied, final_amount, discount_id, status, created_at, updated_at)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8::uuid, $9, $10, $10)
RETURNING `+bookingColumns+`;`,
		booking.ID,
		booking.EventID,
		stringPtrOrNil(booking.UserID),
		seats,
		booking.TotalAmount,
		booking.DiscountApplied,
		booking.FinalAmount,
		stringPtrOrNil(booking.DiscountID),
		booking.Status,
		booking.CreatedAt,
	)
	out, err := scanBooking(row)
	if isUniqueViolation(err) {
		return out, ErrDuplicate
	}
	return out, err
}

func (r *Repository) GetBooking(ctx context.Context, id string) (models.Booking, error) {
	row := r.q.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1::uuid`, id)
	out, err := scanBooking(row)
	return out, notFound(err)
}

func (r *Repository) ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	rows, err := r.q.Query(ctx, `
SELECT `+bookingColumns+`
FROM bookings
WHERE user_id = $1
ORDER BY created_at DESC, id DESC;`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, booking)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateBookingStatus(ctx context.Context, id, from, to string) (models.Booking, error) {
	row := r.q.QueryRow(ctx, `
UPDATE bookings
SET status = $3,
	updated_at = now()
WHERE id = $1::uuid AND status = $2
RETURNING `+bookingColumns+`;`, id, from, to)
	out, err := scanBooking(row)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return out, notFound(err)
	}
	if _, getErr := r.GetBooking(ctx, id); getErr != nil {
		return out, getErr
	}
	return out, ErrStateNotAllowed
}

func (r *Repository) InsertPayment(ctx context.Context, payment models.Payment) (models.Payment, error) {
	row := r.q.QueryRow(ctx, `
INSERT INTO payments (id, booking_id, amount, utr_number, status, created_at, updated_at)
VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $6)
RETURNING `+paymentColumns+`;`,
		payment.ID,
		payment.BookingID,
		payment.Amount,
		stringPtrOrNil(payment.UTRNumber),
		payment.Status,
		payment.CreatedAt,
	)
	out, err := scanPayment(row)
	if isUniqueViolation(err) {
		return out, ErrDuplicate
	}
	return out, err
}

func (r *Repository) GetPayment(ctx context.Context, id string) (models.Payment, error) {
	row := r.q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1::uuid`, id)
	out, err := scanPayment(row)
	return out, notFound(err)
}

func (r *Repository) LockPayment(ctx context.Context, id string) (models.Payment, error) {
	row := r.q.QueryRow(ctx, `
SELECT `+paymentColumns+`
FROM payments
WHERE id = $1::uuid
FOR UPDATE;`, id)
	out, err := scanPayment(row)
	return out, notFound(err)
}

func (r *Repository) GetPaymentByBooking(ctx context.Context, bookingID string) (models.Payment, error) {
	row := r.q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1::uuid`, bookingID)
	out, err := scanPayment(row)
	return out, notFound(err)
}

func (r *Repository) UpdatePaymentUTR(ctx context.Context, id, utr string) (models.Payment, error) {
	row := r.q.QueryRow(ctx, `
UPDATE payments
SET utr_number = $2,
	updated_at = now()
WHERE id = $1::uuid AND status = $3
RETURNING `+paymentColumns+`;`, id, utr, models.PaymentStatusPending)
	out, err := scanPayment(row)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return out, notFound(err)
	}
	if _, getErr := r.GetPayment(ctx, id); getErr != nil {
		return out, getErr
	}
	return out, ErrStateNotAllowed
}

func (r *Repository) TransitionPayment(ctx context.Context, transition models.PaymentTransition) (models.Payment, error) {
	row := r.q.QueryRow(ctx, `
UPDATE payments
SET status = $3,
	verified_by = CASE WHEN $3 = 'refunded' THEN verified_by ELSE COALESCE($4, verified_by) END,
	refunded_by = CASE WHEN $3 = 'refunded' THEN COALESCE($4, refunded_by) ELSE refunded_by END,
	payment_date = COALESCE($5, payment_date),
	updated_at = now()
WHERE id = $1::uuid AND status = $2
RETURNING `+paymentColumns+`;`,
		transition.PaymentID,
		transition.From,
		transition.To,
		nullString(transition.ActorID),
		timePtrOrNil(transition.PaymentDate),
	)
	out, err := scanPayment(row)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return out, notFound(err)
	}
	if _, getErr := r.GetPayment(ctx, transition.PaymentID); getErr != nil {
		return out, getErr
	}
	return out, ErrStateNotAllowed
}

func (r *Repository) SetPaymentProof(ctx context.Context, id, key string) (models.Payment, error) {
	row := r.q.QueryRow(ctx, `
UPDATE payments
SET proof_key = $2,
	updated_at = now()
WHERE id = $1::uuid AND status = $3
RETURNING `+paymentColumns+`;`, id, key, models.PaymentStatusPending)
	out, err := scanPayment(row)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return out, notFound(err)
	}
	if _, getErr := r.GetPayment(ctx, id); getErr != nil {
		return out, getErr
	}
	return out, ErrStateNotAllowed
}

func (r *Repository) ListPayments(ctx context.Context, status string, limit, offset int) ([]models.Payment, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, `
SELECT count(*)
FROM payments
WHERE ($1 = '' OR status = $1);`, status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.q.Query(ctx, `
SELECT `+paymentColumns+`
FROM payments
WHERE ($1 = '' OR status = $1)
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]models.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, payment)
	}
	return items, total, rows.Err()
}

func (r *Repository) ListPaymentStatsRows(ctx context.Context) ([]models.PaymentStatsRow, error) {
	rows, err := r.q.Query(ctx, `
SELECT p.id::text, b.event_id, p.status, p.amount
FROM payments p
JOIN bookings b ON b.id = p.booking_id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.PaymentStatsRow, 0)
	for rows.Next() {
		var row models.PaymentStatsRow
		if err := rows.Scan(&row.PaymentID, &row.EventID, &row.Status, &row.Amount); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (models.Booking, error) {
	var out models.Booking
	var userID sql.NullString
	var discountID sql.NullString
	var seats []byte
	if err := row.Scan(
		&out.ID,
		&out.EventID,
		&userID,
		&seats,
		&out.TotalAmount,
		&out.DiscountApplied,
		&out.FinalAmount,
		&discountID,
		&out.Status,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return out, err
	}
	out.UserID = nullStringToPtr(userID)
	out.DiscountID = nullStringToPtr(discountID)
	if err := json.Unmarshal(seats, &out.Seats); err != nil {
		return out, fmt.Errorf("decode seats: %w", err)
	}
	return out, nil
}

func scanPayment(row pgx.Row) (models.Payment, error) {
	var out models.Payment
	var utr sql.NullString
	var verifiedBy sql.NullString
	var refundedBy sql.NullString
	var paymentDate sql.NullTime
	var proofKey sql.NullString
	if err := row.Scan(
		&out.ID,
		&out.BookingID,
		&out.Amount,
		&utr,
		&out.Status,
		&verifiedBy,
		&refundedBy,
		&paymentDate,
		&proofKey,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return out, err
	}
	out.UTRNumber = nullStringToPtr(utr)
	out.VerifiedBy = nullStringToPtr(verifiedBy)
	out.RefundedBy = nullStringToPtr(refundedBy)
	out.PaymentDate = nullTimeToPtr(paymentDate)
	out.ProofKey = nullStringToPtr(proofKey)
	return out, nil
}
