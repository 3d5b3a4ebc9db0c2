package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"eventia/backend/internal/models"
	"eventia/backend/internal/ticketing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreatePaymentAmountMismatch(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()
	createDiscount(t, svc, models.DiscountInput{Code: "SAVE200", Amount: money(200), MaxUses: 5})
	booking, err := svc.Bookings.CreateBooking(ctx, CreateBookingInput{EventID: "event-1", Seats: []models.Seat{seat("A", 1000)}, DiscountCode: "SAVE200"})
	require.NoError(t, err)

	_, err = svc.Payments.CreatePayment(ctx, CreatePaymentInput{BookingID: booking.ID, Amount: money(799)})
	requireKind(t, err, ticketing.KindAmountMismatch)
	assert.Contains(t, err.Error(), "800")

	payment, err := svc.Payments.GetByBookingID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Nil(t, payment)
}

func TestCreatePaymentOncePerBooking(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()
	booking, payment := createPendingPayment(t, svc, 500)

	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	require.NotNil(t, payment.UTRNumber)
	assert.Equal(t, "UTR123456789", *payment.UTRNumber)

	_, err := svc.Payments.CreatePayment(ctx, CreatePaymentInput{BookingID: booking.ID, Amount: booking.FinalAmount})
	requireKind(t, err, ticketing.KindConflict)
	assert.Equal(t, ticketing.CodePaymentExists, ticketing.CodeOf(err))

	_, err = svc.Payments.CreatePayment(ctx, CreatePaymentInput{BookingID: "missing", Amount: money(1)})
	requireKind(t, err, ticketing.KindNotFound)
}

func TestCreatePaymentConcurrentCallersGetConflict(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()
	booking := createBooking(t, svc, 750)

	const callers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Payments.CreatePayment(ctx, CreatePaymentInput{BookingID: booking.ID, Amount: booking.FinalAmount})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case ticketing.IsKind(err, ticketing.KindConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, callers-1, conflicts)
}

func TestUpdateUTR(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()
	_, payment := createPendingPayment(t, svc, 500)

	_, err := svc.Payments.UpdateUTR(ctx, payment.ID, "   ")
	requireKind(t, err, ticketing.KindInvalidInput)

	updated, err := svc.Payments.UpdateUTR(ctx, payment.ID, " 4012345678 ")
	require.NoError(t, err)
	require.NotNil(t, updated.UTRNumber)
	assert.Equal(t, "4012345678", *updated.UTRNumber)

	_, err = svc.Verification.Verify(ctx, payment.ID, testAdmin)
	require.NoError(t, err)

	_, err = svc.Payments.UpdateUTR(ctx, payment.ID, "999")
	requireKind(t, err, ticketing.KindInvalidStateTransition)
	assert.Contains(t, err.Error(), models.PaymentStatusVerified)

	_, err = svc.Payments.UpdateUTR(ctx, "missing", "999")
	requireKind(t, err, ticketing.KindNotFound)
}

func TestListAllPaginates(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		createPendingPayment(t, svc, int64(100*(i+1)))
	}
	_, verified := createPendingPayment(t, svc, 900)
	_, err := svc.Verification.Verify(ctx, verified.ID, testAdmin)
	require.NoError(t, err)

	page, err := svc.Payments.ListAll(ctx, ListPaymentsInput{Page: 1, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Len(t, page.Items, 3)

	last, err := svc.Payments.ListAll(ctx, ListPaymentsInput{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, last.Items, 1)

	pending, err := svc.Payments.ListAll(ctx, ListPaymentsInput{Status: "PENDING"})
	require.NoError(t, err)
	assert.Equal(t, 3, pending.Total)
	assert.Equal(t, 1, pending.Pages)

	_, err = svc.Payments.ListAll(ctx, ListPaymentsInput{Status: "settled"})
	requireKind(t, err, ticketing.KindInvalidInput)
}

func TestListAllRejectsOversizedLimit(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()
	createPendingPayment(t, svc, 100)

	_, err := svc.Payments.ListAll(ctx, ListPaymentsInput{Limit: maxPaymentPageLimit + 1})
	requireKind(t, err, ticketing.KindInvalidInput)

	page, err := svc.Payments.ListAll(ctx, ListPaymentsInput{Limit: maxPaymentPageLimit})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestAttachProof(t *testing.T) {
	proofs := &mockProofStorage{}
	svc, _ := newTestServices(t, Dependencies{Proofs: proofs})
	ctx := context.Background()
	_, payment := createPendingPayment(t, svc, 500)

	proofs.On("PresignPutObject", mock.Anything, "receipt.png", "image/png").
		Return("https://upload.example/put", "https://cdn.example/payment-proofs/k.png", "payment-proofs/k.png", nil).Once()

	upload, err := svc.Payments.AttachProof(ctx, payment.ID, "receipt.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://upload.example/put", upload.UploadURL)
	require.NotNil(t, upload.Payment.ProofKey)
	assert.Equal(t, "payment-proofs/k.png", *upload.Payment.ProofKey)

	_, err = svc.Payments.AttachProof(ctx, payment.ID, "receipt.pdf", "application/pdf")
	requireKind(t, err, ticketing.KindInvalidInput)

	proofs.On("PresignGetObject", mock.Anything, "payment-proofs/k.png").Return("https://cdn.example/signed", nil).Once()
	link, err := svc.Payments.ProofURL(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/signed", link)

	proofs.On("PresignPutObject", mock.Anything, "again.png", "image/png").
		Return("", "", "", errors.New("s3 unavailable")).Once()
	_, err = svc.Payments.AttachProof(ctx, payment.ID, "again.png", "image/png")
	require.Error(t, err)
	assert.Equal(t, ticketing.Kind(""), ticketing.KindOf(err))

	proofs.AssertExpectations(t)
}

func TestProofURLWithoutProof(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{Proofs: &mockProofStorage{}})
	_, payment := createPendingPayment(t, svc, 500)

	_, err := svc.Payments.ProofURL(context.Background(), payment.ID)
	requireKind(t, err, ticketing.KindNotFound)
}

func TestAttachProofWithoutStorage(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	_, payment := createPendingPayment(t, svc, 500)

	_, err := svc.Payments.AttachProof(context.Background(), payment.ID, "receipt.png", "image/png")
	requireKind(t, err, ticketing.KindInvalidInput)
}

func TestPaymentStats(t *testing.T) {
	svc, _ := newTestServices(t, Dependencies{})
	ctx := context.Background()
	_, first := createPendingPayment(t, svc, 500)
	createPendingPayment(t, svc, 300)
	_, err := svc.Verification.Verify(ctx, first.ID, testAdmin)
	require.NoError(t, err)

	report, err := svc.Payments.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Global.StatusCounts[models.PaymentStatusVerified])
	assert.Equal(t, int64(1), report.Global.StatusCounts[models.PaymentStatusPending])
	assert.True(t, report.Global.VerifiedAmount.Equal(money(500)))
	assert.True(t, report.Global.PendingAmount.Equal(money(300)))
	require.Len(t, report.PerEvent, 1)
	assert.Equal(t, "event-1", report.PerEvent[0].EventID)
}
