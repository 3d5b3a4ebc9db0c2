package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eventia/backend/internal/models"
	"eventia/backend/internal/repository"
	"eventia/backend/internal/ticketing"
)

// DiscountResolver validates and consumes discount codes.
type DiscountResolver struct {
	baseDeps
	store repository.Store
}

// ValidateCode is advisory: it reports usability without consuming a use.
func (r *DiscountResolver) ValidateCode(ctx context.Context, code string) (models.DiscountValidation, error) {
	normalized := ticketing.NormalizeCode(code)
	if normalized == "" {
		return ticketing.ValidateDiscount(nil, r.now()), nil
	}
	d, err := r.store.GetDiscountByCode(ctx, normalized)
	if errors.Is(err, repository.ErrNotFound) {
		return ticketing.ValidateDiscount(nil, r.now()), nil
	}
	if err != nil {
		return models.DiscountValidation{}, fmt.Errorf("lookup discount %s: %w", normalized, err)
	}
	return ticketing.ValidateDiscount(&d, r.now()), nil
}

// ResolveAutoApply returns the best usable auto-apply discount for an event, or nil.
func (r *DiscountResolver) ResolveAutoApply(ctx context.Context, eventID string) (*models.Discount, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, nil
	}
	candidates, err := r.store.ListAutoApplyDiscounts(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list auto-apply discounts: %w", err)
	}
	return ticketing.SelectAutoApply(candidates, eventID, r.now()), nil
}

// Apply consumes exactly one use of a discount.
func (r *DiscountResolver) Apply(ctx context.Context, id string) (models.Discount, error) {
	id, err := requireID(id, "discountId")
	if err != nil {
		return models.Discount{}, err
	}
	return r.apply(ctx, r.store, id)
}

func (r *DiscountResolver) apply(ctx context.Context, st repository.DiscountStore, id string) (models.Discount, error) {
	d, err := st.IncrementDiscountUses(ctx, id, r.now())
	switch {
	case err == nil:
		r.logger.Info("discount_applied", "discount_id", d.ID, "code", d.Code, "uses", d.UsesCount, "max_uses", d.MaxUses)
		return d, nil
	case errors.Is(err, repository.ErrNotFound):
		return models.Discount{}, ticketing.WrapError(ticketing.KindNotFound, ticketing.CodeDiscountNotFound, err, "discount %s not found", id)
	case errors.Is(err, repository.ErrDiscountExhausted):
		return models.Discount{}, ticketing.WrapError(ticketing.KindExhaustedUses, ticketing.CodeDiscountExhausted, err,
			"discount %s reached its limit of %d uses", d.Code, d.MaxUses)
	case errors.Is(err, repository.ErrDiscountExpired):
		return models.Discount{}, ticketing.WrapError(ticketing.KindExpired, ticketing.CodeDiscountExpired, err, "discount %s has expired", d.Code)
	default:
		return models.Discount{}, fmt.Errorf("apply discount %s: %w", id, err)
	}
}

// Create registers a new discount code.
func (r *DiscountResolver) Create(ctx context.Context, in models.DiscountInput) (models.Discount, error) {
	if err := ticketing.ValidateDiscountInput(in); err != nil {
		return models.Discount{}, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	now := r.now()
	d := models.Discount{
		ID:          r.newID(),
		Code:        ticketing.NormalizeCode(in.Code),
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		MaxUses:     in.MaxUses,
		ExpiryDate:  in.ExpiryDate,
		IsActive:    active,
		AutoApply:   in.AutoApply,
		EventID:     trimmedPtr(in.EventID),
		Priority:    in.Priority,
		CreatedAt:   now,
	}
	created, err := r.store.InsertDiscount(ctx, d)
	if errors.Is(err, repository.ErrDuplicate) {
		return models.Discount{}, ticketing.WrapError(ticketing.KindConflict, ticketing.CodeDiscountExists, err, "discount code %s already exists", d.Code)
	}
	if err != nil {
		return models.Discount{}, fmt.Errorf("insert discount: %w", err)
	}
	r.logger.Info("discount_created", "discount_id", created.ID, "code", created.Code, "auto_apply", created.AutoApply)
	return created, nil
}

// Update patches the admin-editable fields of a discount. The code and use count never change here.
func (r *DiscountResolver) Update(ctx context.Context, id string, patch models.DiscountPatch) (models.Discount, error) {
	id, err := requireID(id, "discountId")
	if err != nil {
		return models.Discount{}, err
	}
	var saved models.Discount
	err = r.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.GetDiscount(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ticketing.WrapError(ticketing.KindNotFound, ticketing.CodeDiscountNotFound, err, "discount %s not found", id)
		}
		if err != nil {
			return fmt.Errorf("load discount %s: %w", id, err)
		}
		patch.EventID = trimmedPtr(patch.EventID)
		next, err := ticketing.ApplyDiscountPatch(current, patch)
		if err != nil {
			return err
		}
		saved, err = tx.SaveDiscount(ctx, next)
		if err != nil {
			return fmt.Errorf("save discount %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return models.Discount{}, err
	}
	r.logger.Info("discount_updated", "discount_id", saved.ID, "active", saved.IsActive)
	return saved, nil
}

// Deactivate retires a discount without deleting its history.
func (r *DiscountResolver) Deactivate(ctx context.Context, id string) (models.Discount, error) {
	inactive := false
	return r.Update(ctx, id, models.DiscountPatch{IsActive: &inactive})
}

// List returns discounts newest first.
func (r *DiscountResolver) List(ctx context.Context, activeOnly bool) ([]models.Discount, error) {
	items, err := r.store.ListDiscounts(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list discounts: %w", err)
	}
	return items, nil
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
