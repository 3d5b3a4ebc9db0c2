package ticketing

import (
	"testing"

	"eventia/backend/internal/models"

	"github.com/shopspring/decimal"
)

func seats(prices ...int64) []models.Seat {
	out := make([]models.Seat, 0, len(prices))
	for _, p := range prices {
		out = append(out, models.Seat{Category: "A", Price: decimal.NewFromInt(p)})
	}
	return out
}

func TestComputeAmounts(t *testing.T) {
	cases := []struct {
		name     string
		seats    []models.Seat
		discount int64
		total    int64
		applied  int64
		final    int64
	}{
		{name: "no discount", seats: seats(1000), discount: 0, total: 1000, applied: 0, final: 1000},
		{name: "code discount", seats: seats(1000), discount: 200, total: 1000, applied: 200, final: 800},
		{name: "several seats", seats: seats(500, 250, 250), discount: 100, total: 1000, applied: 100, final: 900},
		{name: "discount above total", seats: seats(300), discount: 500, total: 300, applied: 300, final: 0},
		{name: "free seats", seats: seats(0, 0), discount: 50, total: 0, applied: 0, final: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeAmounts(tc.seats, decimal.NewFromInt(tc.discount))
			if err != nil {
				t.Fatalf("ComputeAmounts(): %v", err)
			}
			if !got.Total.Equal(decimal.NewFromInt(tc.total)) {
				t.Fatalf("expected total=%d, got %s", tc.total, got.Total)
			}
			if !got.DiscountApplied.Equal(decimal.NewFromInt(tc.applied)) {
				t.Fatalf("expected applied=%d, got %s", tc.applied, got.DiscountApplied)
			}
			if !got.Final.Equal(decimal.NewFromInt(tc.final)) {
				t.Fatalf("expected final=%d, got %s", tc.final, got.Final)
			}
			if !got.Final.Equal(got.Total.Sub(got.DiscountApplied)) || got.Final.IsNegative() {
				t.Fatalf("final amount invariant broken: %#v", got)
			}
		})
	}
}

func TestComputeAmountsRejectsBadInput(t *testing.T) {
	if _, err := ComputeAmounts(nil, decimal.Zero); !IsKind(err, KindInvalidInput) {
		t.Fatalf("expected invalid input for empty seats, got %v", err)
	}
	if _, err := ComputeAmounts(seats(100, -1), decimal.Zero); !IsKind(err, KindInvalidInput) {
		t.Fatalf("expected invalid input for negative price, got %v", err)
	}
	if _, err := ComputeAmounts(seats(100), decimal.NewFromInt(-5)); !IsKind(err, KindInvalidInput) {
		t.Fatalf("expected invalid input for negative discount, got %v", err)
	}
}

func TestCheckMoney(t *testing.T) {
	cases := []struct {
		amount string
		ok     bool
	}{
		{amount: "0", ok: true},
		{amount: "0.01", ok: true},
		{amount: "1250.50", ok: true},
		{amount: "1250.500", ok: true},
		{amount: "9999999999.99", ok: true},
		{amount: "0.004", ok: false},
		{amount: "10.125", ok: false},
		{amount: "-0.01", ok: false},
		{amount: "10000000000", ok: false},
		{amount: "100000000000", ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.amount, func(t *testing.T) {
			err := CheckMoney("price", decimal.RequireFromString(tc.amount))
			if tc.ok && err != nil {
				t.Fatalf("expected %s to pass, got %v", tc.amount, err)
			}
			if !tc.ok && !IsKind(err, KindInvalidInput) {
				t.Fatalf("expected invalid input for %s, got %v", tc.amount, err)
			}
		})
	}
}

func TestComputeAmountsRejectsUnstorableAmounts(t *testing.T) {
	fraction := []models.Seat{
		{Category: "A", Price: decimal.RequireFromString("0.004")},
		{Category: "A", Price: decimal.RequireFromString("0.004")},
	}
	if _, err := ComputeAmounts(fraction, decimal.Zero); !IsKind(err, KindInvalidInput) {
		t.Fatalf("expected invalid input for sub-paisa prices, got %v", err)
	}
	if _, err := ComputeAmounts(seats(100), decimal.RequireFromString("0.004")); !IsKind(err, KindInvalidInput) {
		t.Fatalf("expected invalid input for sub-paisa discount, got %v", err)
	}
	if _, err := ComputeAmounts(seats(100000000000), decimal.Zero); !IsKind(err, KindInvalidInput) {
		t.Fatalf("expected invalid input for oversized price, got %v", err)
	}
	if _, err := ComputeAmounts(seats(6000000000, 6000000000), decimal.Zero); !IsKind(err, KindInvalidInput) {
		t.Fatalf("expected invalid input for oversized total, got %v", err)
	}
	if err := CheckPaymentAmount(models.Booking{}, decimal.RequireFromString("0.001")); !IsKind(err, KindInvalidInput) {
		t.Fatalf("expected invalid input for sub-paisa payment, got %v", err)
	}
}

func TestCheckPaymentAmount(t *testing.T) {
	booking := models.Booking{FinalAmount: decimal.NewFromInt(800)}
	if err := CheckPaymentAmount(booking, decimal.RequireFromString("800.00")); err != nil {
		t.Fatalf("expected equal amounts to pass, got %v", err)
	}
	err := CheckPaymentAmount(booking, decimal.NewFromInt(799))
	if !IsKind(err, KindAmountMismatch) {
		t.Fatalf("expected amount mismatch, got %v", err)
	}
	if CodeOf(err) != CodeAmountMismatch {
		t.Fatalf("expected code %s, got %s", CodeAmountMismatch, CodeOf(err))
	}
}

func TestCheckPaymentTransition(t *testing.T) {
	if err := CheckPaymentTransition(models.PaymentStatusPending, models.PaymentStatusVerified); err != nil {
		t.Fatalf("expected pending->verified to be allowed, got %v", err)
	}
	if err := CheckPaymentTransition(models.PaymentStatusVerified, models.PaymentStatusRefunded); err != nil {
		t.Fatalf("expected verified->refunded to be allowed, got %v", err)
	}
	err := CheckPaymentTransition(models.PaymentStatusVerified, models.PaymentStatusRejected)
	if !IsKind(err, KindInvalidStateTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if err.Error() != "Payment already verified" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if CanTransitionPayment(models.PaymentStatusRejected, models.PaymentStatusVerified) {
		t.Fatalf("expected rejected to be terminal")
	}
}
