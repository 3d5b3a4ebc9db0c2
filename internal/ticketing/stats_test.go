package ticketing

import (
	"testing"

	"eventia/backend/internal/models"

	"github.com/shopspring/decimal"
)

// TestAggregatePaymentStats verifies aggregate payment stats behavior.
func TestAggregatePaymentStats(t *testing.T) {
	rows := []models.PaymentStatsRow{
		{PaymentID: "p1", EventID: "e1", Status: models.PaymentStatusVerified, Amount: decimal.NewFromInt(800)},
		{PaymentID: "p1", EventID: "e1", Status: models.PaymentStatusVerified, Amount: decimal.NewFromInt(800)},
		{PaymentID: "p2", EventID: "e1", Status: models.PaymentStatusPending, Amount: decimal.NewFromInt(500)},
		{PaymentID: "p3", EventID: "e2", Status: models.PaymentStatusRejected, Amount: decimal.NewFromInt(300)},
		{PaymentID: "p4", EventID: "e2", Status: models.PaymentStatusRefunded, Amount: decimal.NewFromInt(200)},
		{PaymentID: "p5", EventID: "", Status: models.PaymentStatusVerified, Amount: decimal.NewFromInt(999)},
	}

	global, perEvent := AggregatePaymentStats(rows)
	if !global.VerifiedAmount.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("expected global verified=800, got %s", global.VerifiedAmount)
	}
	if !global.PendingAmount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected global pending=500, got %s", global.PendingAmount)
	}
	if global.StatusCounts[models.PaymentStatusRejected] != 1 {
		t.Fatalf("expected rejected=1, got %d", global.StatusCounts[models.PaymentStatusRejected])
	}

	eventOne, ok := perEvent["e1"]
	if !ok {
		t.Fatalf("expected event e1 bucket")
	}
	if eventOne.StatusCounts[models.PaymentStatusVerified] != 1 {
		t.Fatalf("expected e1 verified count=1, got %d", eventOne.StatusCounts[models.PaymentStatusVerified])
	}
	eventTwo := perEvent["e2"]
	if !eventTwo.RefundedAmount.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected e2 refunded=200, got %s", eventTwo.RefundedAmount)
	}
	if len(perEvent) != 2 {
		t.Fatalf("expected 2 event buckets, got %d", len(perEvent))
	}
}
