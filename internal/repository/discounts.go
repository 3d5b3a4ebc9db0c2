package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventia/backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const discountColumns = `id, code, amount, description, max_uses, uses_count, expiry_date, is_active, auto_apply, event_id, priority, created_at, updated_at`

// InsertDiscount creates a discount; a repeated code returns ErrDuplicate.
func (r *Repository) InsertDiscount(ctx context.Context, d models.Discount) (models.Discount, error) {
	row := r.q.QueryRow(ctx, `
INSERT INTO discounts (id, code, amount, description, max_uses, uses_count, expiry_date, is_active, auto_apply, event_id, priority, created_at, updated_at)
VALUES ($1::uuid, $2, $3, $4, $5, 0, $6, $7, $8, $9, $10, $11, $11)
RETURNING `+discountColumns+`;`,
		d.ID,
		d.Code,
		d.Amount,
		nullString(d.Description),
		d.MaxUses,
		timePtrOrNil(d.ExpiryDate),
		d.IsActive,
		d.AutoApply,
		stringPtrOrNil(d.EventID),
		d.Priority,
		d.CreatedAt,
	)
	out, err := scanDiscount(row)
	if isUniqueViolation(err) {
		return out, ErrDuplicate
	}
	return out, err
}

func (r *Repository) GetDiscount(ctx context.Context, id string) (models.Discount, error) {
	row := r.q.QueryRow(ctx, `SELECT `+discountColumns+` FROM discounts WHERE id = $1::uuid`, id)
	out, err := scanDiscount(row)
	return out, notFound(err)
}

// GetDiscountByCode looks up an active discount by its upper-cased code.
func (r *Repository) GetDiscountByCode(ctx context.Context, code string) (models.Discount, error) {
	row := r.q.QueryRow(ctx, `SELECT `+discountColumns+` FROM discounts WHERE code = $1 AND is_active`, code)
	out, err := scanDiscount(row)
	return out, notFound(err)
}

func (r *Repository) ListDiscounts(ctx context.Context, activeOnly bool) ([]models.Discount, error) {
	return r.queryDiscounts(ctx, `
SELECT `+discountColumns+`
FROM discounts
WHERE (NOT $1 OR is_active)
ORDER BY created_at DESC, id DESC;`, activeOnly)
}

func (r *Repository) ListAutoApplyDiscounts(ctx context.Context, eventID string) ([]models.Discount, error) {
	return r.queryDiscounts(ctx, `
SELECT `+discountColumns+`
FROM discounts
WHERE is_active AND auto_apply AND event_id = $1
ORDER BY priority DESC, created_at ASC;`, eventID)
}

func (r *Repository) SaveDiscount(ctx context.Context, d models.Discount) (models.Discount, error) {
	row := r.q.QueryRow(ctx, `
UPDATE discounts
SET amount = $2,
	description = $3,
	max_uses = $4,
	expiry_date = $5,
	is_active = $6,
	auto_apply = $7,
	event_id = $8,
	priority = $9,
	updated_at = now()
WHERE id = $1::uuid
RETURNING `+discountColumns+`;`,
		d.ID,
		d.Amount,
		nullString(d.Description),
		d.MaxUses,
		timePtrOrNil(d.ExpiryDate),
		d.IsActive,
		d.AutoApply,
		stringPtrOrNil(d.EventID),
		d.Priority,
	)
	out, err := scanDiscount(row)
	return out, notFound(err)
}

// IncrementDiscountUses guards the increment with the activity, expiry and limit checks
// so concurrent callers can never push uses_count past max_uses.
func (r *Repository) IncrementDiscountUses(ctx context.Context, id string, now time.Time) (models.Discount, error) {
	row := r.q.QueryRow(ctx, `
UPDATE discounts
SET uses_count = uses_count + 1,
	updated_at = now()
WHERE id = $1::uuid
	AND is_active
	AND uses_count < max_uses
	AND (expiry_date IS NULL OR expiry_date >= $2)
RETURNING `+discountColumns+`;`, id, now)
	out, err := scanDiscount(row)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return out, notFound(err)
	}
	current, getErr := r.GetDiscount(ctx, id)
	if getErr != nil {
		return out, getErr
	}
	return current, incrementFailure(current, now)
}

func (r *Repository) queryDiscounts(ctx context.Context, query string, args ...any) ([]models.Discount, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Discount, 0)
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// incrementFailure explains why a guarded increment matched no row.
func incrementFailure(d models.Discount, now time.Time) error {
	switch {
	case !d.IsActive:
		return ErrNotFound
	case d.ExpiryDate != nil && d.ExpiryDate.Before(now):
		return ErrDiscountExpired
	default:
		return ErrDiscountExhausted
	}
}

func scanDiscount(row pgx.Row) (models.Discount, error) {
	var out models.Discount
	var description sql.NullString
	var expiry sql.NullTime
	var eventID sql.NullString
	if err := row.Scan(
		&out.ID,
		&out.Code,
		&out.Amount,
		&description,
		&out.MaxUses,
		&out.UsesCount,
		&expiry,
		&out.IsActive,
		&out.AutoApply,
		&eventID,
		&out.Priority,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return out, err
	}
	out.Description = description.String
	out.ExpiryDate = nullTimeToPtr(expiry)
	out.EventID = nullStringToPtr(eventID)
	return out, nil
}
