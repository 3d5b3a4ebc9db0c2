package ticketing

import (
	"testing"
	"time"

	"eventia/backend/internal/models"

	"github.com/shopspring/decimal"
)

func strPtr(v string) *string { return &v }

// TestValidateDiscountValid verifies validate discount valid behavior.
func TestValidateDiscountValid(t *testing.T) {
	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(24 * time.Hour)
	d := &models.Discount{
		Code:       "SAVE200",
		Amount:     decimal.NewFromInt(200),
		MaxUses:    5,
		ExpiryDate: &expiry,
		IsActive:   true,
	}
	result := ValidateDiscount(d, now)
	if !result.Valid {
		t.Fatalf("expected discount to be valid, got reason=%s", result.Reason)
	}
	if result.Discount == nil || result.Discount.Code != "SAVE200" {
		t.Fatalf("expected discount in result, got %#v", result.Discount)
	}
}

// TestValidateDiscountReasons verifies each rejection reason.
func TestValidateDiscountReasons(t *testing.T) {
	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	cases := []struct {
		name     string
		discount *models.Discount
		reason   string
	}{
		{name: "missing", discount: nil, reason: DiscountReasonNotFound},
		{name: "inactive", discount: &models.Discount{MaxUses: 1}, reason: DiscountReasonNotFound},
		{name: "expired", discount: &models.Discount{MaxUses: 1, ExpiryDate: &past, IsActive: true}, reason: DiscountReasonExpired},
		{name: "exhausted", discount: &models.Discount{MaxUses: 2, UsesCount: 2, IsActive: true}, reason: DiscountReasonExhausted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := ValidateDiscount(tc.discount, now)
			if result.Valid {
				t.Fatalf("expected discount to be invalid")
			}
			if result.Reason != tc.reason {
				t.Fatalf("expected reason=%s, got %s", tc.reason, result.Reason)
			}
		})
	}
}

func TestReasonErrorKinds(t *testing.T) {
	if err := ReasonError("X", DiscountReasonOK); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !IsKind(ReasonError("X", DiscountReasonExpired), KindExpired) {
		t.Fatalf("expected expired kind")
	}
	if !IsKind(ReasonError("X", DiscountReasonExhausted), KindExhaustedUses) {
		t.Fatalf("expected exhausted kind")
	}
	if !IsKind(ReasonError("X", DiscountReasonNotFound), KindNotFound) {
		t.Fatalf("expected not found kind")
	}
}

// TestSelectAutoApplyPriority verifies the highest priority wins.
func TestSelectAutoApplyPriority(t *testing.T) {
	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	candidates := []models.Discount{
		{ID: "low", AutoApply: true, EventID: strPtr("ev"), Priority: 10, MaxUses: 5, IsActive: true, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "high", AutoApply: true, EventID: strPtr("ev"), Priority: 20, MaxUses: 5, IsActive: true, CreatedAt: now.Add(-time.Hour)},
		{ID: "other-event", AutoApply: true, EventID: strPtr("other"), Priority: 99, MaxUses: 5, IsActive: true},
	}
	selected := SelectAutoApply(candidates, "ev", now)
	if selected == nil || selected.ID != "high" {
		t.Fatalf("expected high priority discount, got %#v", selected)
	}
}

// TestSelectAutoApplyTieAndSkip verifies ties go to the earliest and unusable candidates are skipped.
func TestSelectAutoApplyTieAndSkip(t *testing.T) {
	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	candidates := []models.Discount{
		{ID: "exhausted", AutoApply: true, EventID: strPtr("ev"), Priority: 50, MaxUses: 1, UsesCount: 1, IsActive: true},
		{ID: "newer", AutoApply: true, EventID: strPtr("ev"), Priority: 10, MaxUses: 5, IsActive: true, CreatedAt: now.Add(-time.Minute)},
		{ID: "older", AutoApply: true, EventID: strPtr("ev"), Priority: 10, MaxUses: 5, IsActive: true, CreatedAt: now.Add(-time.Hour)},
	}
	selected := SelectAutoApply(candidates, "ev", now)
	if selected == nil || selected.ID != "older" {
		t.Fatalf("expected older discount, got %#v", selected)
	}
	if SelectAutoApply(candidates[:1], "ev", now) != nil {
		t.Fatalf("expected no discount when only exhausted candidates exist")
	}
}

func TestValidateDiscountInput(t *testing.T) {
	valid := models.DiscountInput{Code: "save", Amount: decimal.NewFromInt(10), MaxUses: 1}
	if err := ValidateDiscountInput(valid); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
	auto := valid
	auto.AutoApply = true
	if !IsKind(ValidateDiscountInput(auto), KindInvalidInput) {
		t.Fatalf("expected auto-apply without event to fail")
	}
	zeroUses := valid
	zeroUses.MaxUses = 0
	if !IsKind(ValidateDiscountInput(zeroUses), KindInvalidInput) {
		t.Fatalf("expected maxUses=0 to fail")
	}
}

func TestApplyDiscountPatchRejectsMaxUsesBelowCount(t *testing.T) {
	d := models.Discount{MaxUses: 5, UsesCount: 3, IsActive: true}
	maxUses := 2
	if _, err := ApplyDiscountPatch(d, models.DiscountPatch{MaxUses: &maxUses}); !IsKind(err, KindInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
