package models

import "time"

// DeliveryDetails represents the shipping address of a booking's physical tickets.
type DeliveryDetails struct {
	BookingID      string     `json:"bookingId"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone"`
	Address        string     `json:"address"`
	City           string     `json:"city"`
	Pincode        string     `json:"pincode"`
	DispatchReady  bool       `json:"dispatchReady"`
	TrackingNumber *string    `json:"trackingNumber,omitempty"`
	DispatchedBy   *string    `json:"dispatchedBy,omitempty"`
	DispatchedAt   *time.Time `json:"dispatchedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// DispatchResult is returned once tickets leave for delivery.
type DispatchResult struct {
	Delivery  DeliveryDetails `json:"delivery"`
	PassToken string          `json:"passToken"`
}
