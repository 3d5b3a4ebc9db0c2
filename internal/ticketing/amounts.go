package ticketing

import (
	"fmt"

	"eventia/backend/internal/models"

	"github.com/shopspring/decimal"
)

// MoneyScale and MaxMoney mirror the numeric(12,2) money columns.
const MoneyScale = 2

var MaxMoney = decimal.RequireFromString("9999999999.99")

// CheckMoney rejects negative amounts, sub-paisa fractions and values the
// money columns cannot hold.
func CheckMoney(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return InvalidInput("%s must not be negative", field)
	}
	if !amount.Equal(amount.Truncate(MoneyScale)) {
		return InvalidInput("%s %s has more than %d decimal places", field, amount.String(), MoneyScale)
	}
	if amount.GreaterThan(MaxMoney) {
		return InvalidInput("%s %s exceeds the maximum of %s", field, amount.String(), MaxMoney.StringFixed(MoneyScale))
	}
	return nil
}

// BookingAmounts holds the derived money fields of a booking.
type BookingAmounts struct {
	Total           decimal.Decimal
	DiscountApplied decimal.Decimal
	Final           decimal.Decimal
}

// ValidateSeats checks that a seat selection is non-empty and every price is non-negative.
func ValidateSeats(seats []models.Seat) error {
	if len(seats) == 0 {
		return InvalidInput("at least one seat is required")
	}
	for i, seat := range seats {
		if err := CheckMoney(fmt.Sprintf("seat %d price", i), seat.Price); err != nil {
			return err
		}
	}
	return nil
}

// ComputeAmounts sums seat prices and clamps the discount to the total.
func ComputeAmounts(seats []models.Seat, discount decimal.Decimal) (BookingAmounts, error) {
	if err := ValidateSeats(seats); err != nil {
		return BookingAmounts{}, err
	}
	if err := CheckMoney("discount amount", discount); err != nil {
		return BookingAmounts{}, err
	}
	total := decimal.Zero
	for _, seat := range seats {
		total = total.Add(seat.Price)
	}
	if total.GreaterThan(MaxMoney) {
		return BookingAmounts{}, InvalidInput("booking total %s exceeds the maximum of %s", total.String(), MaxMoney.StringFixed(MoneyScale))
	}
	applied := decimal.Min(discount, total)
	return BookingAmounts{
		Total:           total,
		DiscountApplied: applied,
		Final:           total.Sub(applied),
	}, nil
}

// CheckPaymentAmount rejects any amount that differs from the booking's final amount.
func CheckPaymentAmount(booking models.Booking, amount decimal.Decimal) error {
	if err := CheckMoney("amount", amount); err != nil {
		return err
	}
	if amount.Equal(booking.FinalAmount) {
		return nil
	}
	return NewError(KindAmountMismatch, CodeAmountMismatch,
		"payment amount %s does not match booking final amount %s", amount.String(), booking.FinalAmount.String())
}
