package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusVerified = "verified"
	PaymentStatusRejected = "rejected"
	PaymentStatusRefunded = "refunded"
)

// Seat represents one reserved seat or ticket line.
type Seat struct {
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	SeatRef  string          `json:"seatRef,omitempty"`
}

// Booking represents booking.
type Booking struct {
	ID              string          `json:"id"`
	EventID         string          `json:"eventId"`
	UserID          *string         `json:"userId,omitempty"`
	Seats           []Seat          `json:"seats"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	DiscountApplied decimal.Decimal `json:"discountApplied"`
	FinalAmount     decimal.Decimal `json:"finalAmount"`
	DiscountID      *string         `json:"discountId,omitempty"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Payment represents payment.
type Payment struct {
	ID          string          `json:"id"`
	BookingID   string          `json:"bookingId"`
	Amount      decimal.Decimal `json:"amount"`
	UTRNumber   *string         `json:"utrNumber,omitempty"`
	Status      string          `json:"status"`
	VerifiedBy  *string         `json:"verifiedBy,omitempty"`
	RefundedBy  *string         `json:"refundedBy,omitempty"`
	PaymentDate *time.Time      `json:"paymentDate,omitempty"`
	ProofKey    *string         `json:"proofKey,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// PaymentTransition describes a guarded status change of one payment.
type PaymentTransition struct {
	PaymentID   string
	From        string
	To          string
	ActorID     string
	PaymentDate *time.Time
}

// PaymentPage represents one page of payments.
type PaymentPage struct {
	Items []Payment `json:"items"`
	Total int       `json:"total"`
	Pages int       `json:"pages"`
}

// PaymentProofUpload is returned when a transfer screenshot upload is prepared.
type PaymentProofUpload struct {
	Payment   Payment `json:"payment"`
	UploadURL string  `json:"uploadUrl"`
	FileURL   string  `json:"fileUrl"`
}

// VerificationResult represents the joint state after an admin decision.
type VerificationResult struct {
	Payment Payment `json:"payment"`
	Booking Booking `json:"booking"`
}
