package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UpiSettings represents the payee configuration shown at checkout.
type UpiSettings struct {
	ID             string          `json:"id"`
	UpiVPA         string          `json:"upiVpa"`
	PayeeName      string          `json:"payeeName,omitempty"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	IsActive       bool            `json:"isActive"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type UpiSettingsInput struct {
	UpiVPA         string
	PayeeName      string
	DiscountAmount decimal.Decimal
	IsActive       *bool
}

type UpiSettingsPatch struct {
	UpiVPA         *string
	PayeeName      *string
	DiscountAmount *decimal.Decimal
	IsActive       *bool
}

// PaymentInstructions holds what a client needs to render a UPI QR code.
type PaymentInstructions struct {
	BookingID string          `json:"bookingId"`
	UpiVPA    string          `json:"upiVpa"`
	PayeeName string          `json:"payeeName,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}
