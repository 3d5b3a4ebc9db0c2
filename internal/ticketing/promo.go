package ticketing

import (
	"sort"
	"strings"
	"time"

	"eventia/backend/internal/models"
)

const (
	DiscountReasonOK        = ""
	DiscountReasonNotFound  = "not_found"
	DiscountReasonExpired   = "expired"
	DiscountReasonExhausted = "exhausted_uses"
)

// NormalizeCode upper-cases and trims a discount code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// DiscountReason reports why a discount cannot be applied at now, or "" when it can.
func DiscountReason(d models.Discount, now time.Time) string {
	if !d.IsActive {
		return DiscountReasonNotFound
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	if d.ExpiryDate != nil && d.ExpiryDate.Before(now) {
		return DiscountReasonExpired
	}
	if d.UsesCount >= d.MaxUses {
		return DiscountReasonExhausted
	}
	return DiscountReasonOK
}

// ValidateDiscount builds the advisory validation result for a looked-up discount.
func ValidateDiscount(d *models.Discount, now time.Time) models.DiscountValidation {
	if d == nil {
		return models.DiscountValidation{Valid: false, Reason: DiscountReasonNotFound}
	}
	if reason := DiscountReason(*d, now); reason != DiscountReasonOK {
		return models.DiscountValidation{Valid: false, Reason: reason}
	}
	return models.DiscountValidation{Valid: true, Discount: d}
}

// ReasonError converts a validation reason into a classified error.
func ReasonError(code, reason string) error {
	switch reason {
	case DiscountReasonOK:
		return nil
	case DiscountReasonExpired:
		return NewError(KindExpired, CodeDiscountExpired, "discount %s has expired", code)
	case DiscountReasonExhausted:
		return NewError(KindExhaustedUses, CodeDiscountExhausted, "discount %s has no uses left", code)
	default:
		return NewError(KindNotFound, CodeDiscountNotFound, "discount %s not found", code)
	}
}

// SelectAutoApply picks the usable auto-apply discount with the highest priority.
// Ties go to the earliest created discount.
func SelectAutoApply(candidates []models.Discount, eventID string, now time.Time) *models.Discount {
	eligible := make([]models.Discount, 0, len(candidates))
	for _, d := range candidates {
		if !d.AutoApply || d.EventID == nil || *d.EventID != eventID {
			continue
		}
		if DiscountReason(d, now) != DiscountReasonOK {
			continue
		}
		eligible = append(eligible, d)
	}
	if len(eligible) == 0 {
		return nil
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Priority != eligible[j].Priority {
			return eligible[i].Priority > eligible[j].Priority
		}
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})
	selected := eligible[0]
	return &selected
}

// ValidateDiscountInput checks admin-supplied discount fields.
func ValidateDiscountInput(in models.DiscountInput) error {
	if NormalizeCode(in.Code) == "" {
		return InvalidInput("code is required")
	}
	if err := CheckMoney("amount", in.Amount); err != nil {
		return err
	}
	if in.MaxUses < 1 {
		return InvalidInput("maxUses must be at least 1")
	}
	if in.AutoApply && (in.EventID == nil || strings.TrimSpace(*in.EventID) == "") {
		return InvalidInput("eventId is required for auto-apply discounts")
	}
	return nil
}

// ApplyDiscountPatch merges a patch into d and re-checks the field rules.
func ApplyDiscountPatch(d models.Discount, patch models.DiscountPatch) (models.Discount, error) {
	if patch.Amount != nil {
		d.Amount = *patch.Amount
	}
	if patch.Description != nil {
		d.Description = *patch.Description
	}
	if patch.MaxUses != nil {
		d.MaxUses = *patch.MaxUses
	}
	if patch.ClearExpiry {
		d.ExpiryDate = nil
	} else if patch.ExpiryDate != nil {
		d.ExpiryDate = patch.ExpiryDate
	}
	if patch.IsActive != nil {
		d.IsActive = *patch.IsActive
	}
	if patch.AutoApply != nil {
		d.AutoApply = *patch.AutoApply
	}
	if patch.EventID != nil {
		d.EventID = patch.EventID
	}
	if patch.Priority != nil {
		d.Priority = *patch.Priority
	}
	if err := CheckMoney("amount", d.Amount); err != nil {
		return d, err
	}
	if d.MaxUses < 1 || d.MaxUses < d.UsesCount {
		return d, InvalidInput("maxUses must be at least 1 and not below usesCount %d", d.UsesCount)
	}
	if d.AutoApply && (d.EventID == nil || strings.TrimSpace(*d.EventID) == "") {
		return d, InvalidInput("eventId is required for auto-apply discounts")
	}
	return d, nil
}
