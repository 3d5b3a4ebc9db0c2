package repository

import (
	"context"
	"database/sql"

	"eventia/backend/internal/models"

	"github.com/jackc/pgx/v5"
)

const upiSettingsColumns = `id, upi_vpa, payee_name, discount_amount, is_active, created_at, updated_at`

// InsertUpiSettings inserts a settings row. The partial unique index on is_active
// turns a concurrent second activation into ErrDuplicate.
func (r *Repository) InsertUpiSettings(ctx context.Context, s models.UpiSettings) (models.UpiSettings, error) {
	row := r.q.QueryRow(ctx, `
INSERT INTO upi_settings (id, upi_vpa, payee_name, discount_amount, is_active, created_at, updated_at)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $6)
RETURNING `+upiSettingsColumns+`;`,
		s.ID,
		s.UpiVPA,
		nullString(s.PayeeName),
		s.DiscountAmount,
		s.IsActive,
		s.CreatedAt,
	)
	out, err := scanUpiSettings(row)
	if isUniqueViolation(err) {
		return out, ErrDuplicate
	}
	return out, err
}

func (r *Repository) GetUpiSettings(ctx context.Context, id string) (models.UpiSettings, error) {
	row := r.q.QueryRow(ctx, `SELECT `+upiSettingsColumns+` FROM upi_settings WHERE id = $1::uuid`, id)
	out, err := scanUpiSettings(row)
	return out, notFound(err)
}

func (r *Repository) SaveUpiSettings(ctx context.Context, s models.UpiSettings) (models.UpiSettings, error) {
	row := r.q.QueryRow(ctx, `
UPDATE upi_settings
SET upi_vpa = $2,
	payee_name = $3,
	discount_amount = $4,
	is_active = $5,
	updated_at = now()
WHERE id = $1::uuid
RETURNING `+upiSettingsColumns+`;`,
		s.ID,
		s.UpiVPA,
		nullString(s.PayeeName),
		s.DiscountAmount,
		s.IsActive,
	)
	out, err := scanUpiSettings(row)
	if isUniqueViolation(err) {
		return out, ErrDuplicate
	}
	return out, notFound(err)
}

func (r *Repository) DeactivateOtherUpiSettings(ctx context.Context, keepID string) error {
	_, err := r.q.Exec(ctx, `
UPDATE upi_settings
SET is_active = false,
	updated_at = now()
WHERE is_active AND id::text <> $1;`, keepID)
	return err
}

func (r *Repository) ListActiveUpiSettings(ctx context.Context) ([]models.UpiSettings, error) {
	rows, err := r.q.Query(ctx, `
SELECT `+upiSettingsColumns+`
FROM upi_settings
WHERE is_active
ORDER BY updated_at DESC, id DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.UpiSettings, 0, 1)
	for rows.Next() {
		s, err := scanUpiSettings(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanUpiSettings(row pgx.Row) (models.UpiSettings, error) {
	var out models.UpiSettings
	var payee sql.NullString
	if err := row.Scan(
		&out.ID,
		&out.UpiVPA,
		&payee,
		&out.DiscountAmount,
		&out.IsActive,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return out, err
	}
	out.PayeeName = payee.String
	return out, nil
}
