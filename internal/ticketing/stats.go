package ticketing

import (
	"eventia/backend/internal/models"

	"github.com/shopspring/decimal"
)

// PaymentStats represents payment totals for the admin dashboard.
type PaymentStats struct {
	EventID        string           `json:"eventId,omitempty"`
	StatusCounts   map[string]int64 `json:"statusCounts"`
	VerifiedAmount decimal.Decimal  `json:"verifiedAmount"`
	PendingAmount  decimal.Decimal  `json:"pendingAmount"`
	RefundedAmount decimal.Decimal  `json:"refundedAmount"`
}

// NewPaymentStats creates an empty bucket.
func NewPaymentStats(eventID string) PaymentStats {
	return PaymentStats{
		EventID: eventID,
		StatusCounts: map[string]int64{
			models.PaymentStatusPending:  0,
			models.PaymentStatusVerified: 0,
			models.PaymentStatusRejected: 0,
			models.PaymentStatusRefunded: 0,
		},
		VerifiedAmount: decimal.Zero,
		PendingAmount:  decimal.Zero,
		RefundedAmount: decimal.Zero,
	}
}

// AggregatePaymentStats folds payment rows into a global bucket and one bucket per event.
// Rows repeating a payment id are counted once.
func AggregatePaymentStats(rows []models.PaymentStatsRow) (PaymentStats, map[string]PaymentStats) {
	global := NewPaymentStats("")
	perEvent := map[string]PaymentStats{}
	seen := map[string]struct{}{}
	for _, row := range rows {
		if row.EventID == "" {
			continue
		}
		if _, dup := seen[row.PaymentID]; dup {
			continue
		}
		seen[row.PaymentID] = struct{}{}

		bucket, ok := perEvent[row.EventID]
		if !ok {
			bucket = NewPaymentStats(row.EventID)
		}
		bucket.add(row)
		global.add(row)
		perEvent[row.EventID] = bucket
	}
	return global, perEvent
}

func (s *PaymentStats) add(row models.PaymentStatsRow) {
	if _, known := s.StatusCounts[row.Status]; !known {
		return
	}
	s.StatusCounts[row.Status]++
	switch row.Status {
	case models.PaymentStatusVerified:
		s.VerifiedAmount = s.VerifiedAmount.Add(row.Amount)
	case models.PaymentStatusPending:
		s.PendingAmount = s.PendingAmount.Add(row.Amount)
	case models.PaymentStatusRefunded:
		s.RefundedAmount = s.RefundedAmount.Add(row.Amount)
	}
}
