package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Discount represents a fixed-amount discount code.
type Discount struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	MaxUses     int             `json:"maxUses"`
	UsesCount   int             `json:"usesCount"`
	ExpiryDate  *time.Time      `json:"expiryDate,omitempty"`
	IsActive    bool            `json:"isActive"`
	AutoApply   bool            `json:"autoApply"`
	EventID     *string         `json:"eventId,omitempty"`
	Priority    int             `json:"priority"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// DiscountInput carries the admin-editable fields of a new discount.
type DiscountInput struct {
	Code        string
	Amount      decimal.Decimal
	Description string
	MaxUses     int
	ExpiryDate  *time.Time
	IsActive    *bool
	AutoApply   bool
	EventID     *string
	Priority    int
}

// DiscountPatch represents a partial discount update.
type DiscountPatch struct {
	Amount      *decimal.Decimal
	Description *string
	MaxUses     *int
	ExpiryDate  *time.Time
	ClearExpiry bool
	IsActive    *bool
	AutoApply   *bool
	EventID     *string
	Priority    *int
}

// DiscountValidation is the advisory result of a code lookup.
type DiscountValidation struct {
	Valid    bool      `json:"valid"`
	Discount *Discount `json:"discount,omitempty"`
	Reason   string    `json:"reason,omitempty"`
}
