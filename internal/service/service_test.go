package service

import (
	"context"
	"testing"
	"time"

	"eventia/backend/internal/logging"
	"eventia/backend/internal/models"
	"eventia/backend/internal/repository"
	"eventia/backend/internal/ticketing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testAdmin = "admin-1"
	time24h   = 24 * time.Hour
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestServices(t *testing.T, deps Dependencies) (*Services, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.TicketSecret == "" {
		deps.TicketSecret = "test-ticket-secret"
	}
	svc := New(store, deps)
	svc.SetClock(func() time.Time { return testNow })
	return svc, store
}

func seat(category string, price int64) models.Seat {
	return models.Seat{Category: category, Price: decimal.NewFromInt(price)}
}

func money(value int64) decimal.Decimal {
	return decimal.NewFromInt(value)
}

func requireKind(t *testing.T, err error, kind ticketing.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, ticketing.KindOf(err), "unexpected error: %v", err)
}

func createDiscount(t *testing.T, svc *Services, in models.DiscountInput) models.Discount {
	t.Helper()
	d, err := svc.Discounts.Create(context.Background(), in)
	require.NoError(t, err)
	return d
}

func createBooking(t *testing.T, svc *Services, price int64) models.Booking {
	t.Helper()
	booking, err := svc.Bookings.CreateBooking(context.Background(), CreateBookingInput{
		EventID: "event-1",
		Seats:   []models.Seat{seat("A", price)},
	})
	require.NoError(t, err)
	return booking
}

func createPendingPayment(t *testing.T, svc *Services, price int64) (models.Booking, models.Payment) {
	t.Helper()
	booking := createBooking(t, svc, price)
	payment, err := svc.Payments.CreatePayment(context.Background(), CreatePaymentInput{
		BookingID: booking.ID,
		Amount:    booking.FinalAmount,
		UTRNumber: "UTR123456789",
	})
	require.NoError(t, err)
	return booking, payment
}

type mockSettingsCache struct {
	mock.Mock
}

func (m *mockSettingsCache) Get(ctx context.Context) (models.UpiSettings, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.UpiSettings), args.Bool(1), args.Error(2)
}

func (m *mockSettingsCache) Generation(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSettingsCache) Set(ctx context.Context, settings models.UpiSettings, generation int64) error {
	return m.Called(ctx, settings, generation).Error(0)
}

func (m *mockSettingsCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockProofStorage struct {
	mock.Mock
}

func (m *mockProofStorage) PresignPutObject(ctx context.Context, fileName, contentType string) (string, string, string, error) {
	args := m.Called(ctx, fileName, contentType)
	return args.String(0), args.String(1), args.String(2), args.Error(3)
}

func (m *mockProofStorage) PresignGetObject(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}
