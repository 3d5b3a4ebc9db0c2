package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"eventia/backend/internal/models"
	"eventia/backend/internal/repository"
	"eventia/backend/internal/ticketing"

	"github.com/shopspring/decimal"
)

const (
	defaultPaymentPageLimit = 10
	maxPaymentPageLimit     = 100
)

// PaymentManager records UPI payments against bookings.
type PaymentManager struct {
	baseDeps
	store  repository.Store
	proofs ProofStorage
}

type CreatePaymentInput struct {
	BookingID string
	Amount    decimal.Decimal
	UTRNumber string
}

type ListPaymentsInput struct {
	Page   int
	Limit  int
	Status string
}

// PaymentStatsReport holds the platform totals and the per-event breakdown.
type PaymentStatsReport struct {
	Global   ticketing.PaymentStats   `json:"global"`
	PerEvent []ticketing.PaymentStats `json:"perEvent"`
}

// CreatePayment opens the single pending payment of a booking.
// The amount must equal the booking's final amount.
func (m *PaymentManager) CreatePayment(ctx context.Context, in CreatePaymentInput) (models.Payment, error) {
	bookingID, err := requireID(in.BookingID, "bookingId")
	if err != nil {
		return models.Payment{}, err
	}
	if err := ticketing.CheckMoney("amount", in.Amount); err != nil {
		return models.Payment{}, err
	}

	var created models.Payment
	err = m.store.WithTx(ctx, func(tx repository.Store) error {
		booking, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return bookingNotFound(bookingID, err)
		}
		if _, err := tx.GetPaymentByBooking(ctx, bookingID); err == nil {
			return paymentExists(bookingID, nil)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("lookup payment for booking %s: %w", bookingID, err)
		}
		if booking.Status != models.BookingStatusPending {
			return ticketing.NewError(ticketing.KindInvalidStateTransition, ticketing.CodeInvalidBookingStatus,
				"booking %s is already %s", bookingID, booking.Status)
		}
		if err := ticketing.CheckPaymentAmount(booking, in.Amount); err != nil {
			return err
		}

		now := m.now()
		created, err = tx.InsertPayment(ctx, models.Payment{
			ID:        m.newID(),
			BookingID: bookingID,
			Amount:    booking.FinalAmount,
			UTRNumber: stringPtr(strings.TrimSpace(in.UTRNumber)),
			Status:    models.PaymentStatusPending,
			CreatedAt: now,
		})
		if errors.Is(err, repository.ErrDuplicate) {
			return paymentExists(bookingID, err)
		}
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Payment{}, err
	}
	m.logger.Info("payment_created", "payment_id", created.ID, "booking_id", bookingID, "amount", created.Amount.String())
	return created, nil
}

func paymentExists(bookingID string, cause error) error {
	if cause == nil {
		return ticketing.NewError(ticketing.KindConflict, ticketing.CodePaymentExists, "payment already exists for booking %s", bookingID)
	}
	return ticketing.WrapError(ticketing.KindConflict, ticketing.CodePaymentExists, cause, "payment already exists for booking %s", bookingID)
}

// UpdateUTR records the UPI transaction reference while the payment is pending.
func (m *PaymentManager) UpdateUTR(ctx context.Context, paymentID, utr string) (models.Payment, error) {
	paymentID, err := requireID(paymentID, "paymentId")
	if err != nil {
		return models.Payment{}, err
	}
	utr = strings.TrimSpace(utr)
	if utr == "" {
		return models.Payment{}, ticketing.InvalidInput("utrNumber is required")
	}
	updated, err := m.store.UpdatePaymentUTR(ctx, paymentID, utr)
	if errors.Is(err, repository.ErrStateNotAllowed) {
		return models.Payment{}, m.currentStatusError(ctx, paymentID)
	}
	if err != nil {
		return models.Payment{}, paymentNotFound(paymentID, err)
	}
	m.logger.Info("payment_utr_submitted", "payment_id", paymentID, "booking_id", updated.BookingID)
	return updated, nil
}

func (m *PaymentManager) currentStatusError(ctx context.Context, paymentID string) error {
	current, err := m.store.GetPayment(ctx, paymentID)
	if err != nil {
		return paymentNotFound(paymentID, err)
	}
	return ticketing.NewError(ticketing.KindInvalidStateTransition, ticketing.CodeInvalidPaymentStatus, "Payment already %s", current.Status)
}

func (m *PaymentManager) GetByID(ctx context.Context, id string) (models.Payment, error) {
	id, err := requireID(id, "paymentId")
	if err != nil {
		return models.Payment{}, err
	}
	payment, err := m.store.GetPayment(ctx, id)
	if err != nil {
		return models.Payment{}, paymentNotFound(id, err)
	}
	return payment, nil
}

// GetByBookingID returns nil when the booking has no payment yet.
func (m *PaymentManager) GetByBookingID(ctx context.Context, bookingID string) (*models.Payment, error) {
	bookingID, err := requireID(bookingID, "bookingId")
	if err != nil {
		return nil, err
	}
	payment, err := m.store.GetPaymentByBooking(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup payment for booking %s: %w", bookingID, err)
	}
	return &payment, nil
}

// ListAll pages through payments newest first, optionally filtered by status.
func (m *PaymentManager) ListAll(ctx context.Context, in ListPaymentsInput) (models.PaymentPage, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit < 1 {
		limit = defaultPaymentPageLimit
	}
	if limit > maxPaymentPageLimit {
		return models.PaymentPage{}, ticketing.InvalidInput("limit must be at most %d", maxPaymentPageLimit)
	}
	status := strings.ToLower(strings.TrimSpace(in.Status))
	switch status {
	case "", models.PaymentStatusPending, models.PaymentStatusVerified, models.PaymentStatusRejected, models.PaymentStatusRefunded:
	default:
		return models.PaymentPage{}, ticketing.InvalidInput("unknown payment status %q", in.Status)
	}

	items, total, err := m.store.ListPayments(ctx, status, limit, (page-1)*limit)
	if err != nil {
		return models.PaymentPage{}, fmt.Errorf("list payments: %w", err)
	}
	return models.PaymentPage{
		Items: items,
		Total: total,
		Pages: (total + limit - 1) / limit,
	}, nil
}

// AttachProof presigns an upload for a payment screenshot and stores its object key.
func (m *PaymentManager) AttachProof(ctx context.Context, paymentID, fileName, contentType string) (models.PaymentProofUpload, error) {
	if m.proofs == nil {
		return models.PaymentProofUpload{}, ticketing.InvalidInput("payment proof uploads are not configured")
	}
	paymentID, err := requireID(paymentID, "paymentId")
	if err != nil {
		return models.PaymentProofUpload{}, err
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !strings.HasPrefix(contentType, "image/") {
		return models.PaymentProofUpload{}, ticketing.InvalidInput("contentType must be an image type")
	}
	payment, err := m.store.GetPayment(ctx, paymentID)
	if err != nil {
		return models.PaymentProofUpload{}, paymentNotFound(paymentID, err)
	}
	if payment.Status != models.PaymentStatusPending {
		return models.PaymentProofUpload{}, ticketing.NewError(ticketing.KindInvalidStateTransition, ticketing.CodeInvalidPaymentStatus,
			"Payment already %s", payment.Status)
	}

	uploadURL, fileURL, key, err := m.proofs.PresignPutObject(ctx, fileName, contentType)
	if err != nil {
		return models.PaymentProofUpload{}, fmt.Errorf("presign proof upload: %w", err)
	}
	updated, err := m.store.SetPaymentProof(ctx, paymentID, key)
	if errors.Is(err, repository.ErrStateNotAllowed) {
		return models.PaymentProofUpload{}, m.currentStatusError(ctx, paymentID)
	}
	if err != nil {
		return models.PaymentProofUpload{}, paymentNotFound(paymentID, err)
	}
	m.logger.Info("payment_proof_attached", "payment_id", paymentID, "key", key)
	return models.PaymentProofUpload{Payment: updated, UploadURL: uploadURL, FileURL: fileURL}, nil
}

// ProofURL returns a short-lived link to the proof attached to a payment.
func (m *PaymentManager) ProofURL(ctx context.Context, paymentID string) (string, error) {
	if m.proofs == nil {
		return "", ticketing.InvalidInput("payment proof uploads are not configured")
	}
	payment, err := m.GetByID(ctx, paymentID)
	if err != nil {
		return "", err
	}
	if payment.ProofKey == nil {
		return "", ticketing.NewError(ticketing.KindNotFound, ticketing.CodePaymentNotFound, "payment %s has no proof attached", payment.ID)
	}
	link, err := m.proofs.PresignGetObject(ctx, *payment.ProofKey)
	if err != nil {
		return "", fmt.Errorf("presign proof download: %w", err)
	}
	return link, nil
}

// Stats aggregates payment counts and amounts by status.
func (m *PaymentManager) Stats(ctx context.Context) (PaymentStatsReport, error) {
	rows, err := m.store.ListPaymentStatsRows(ctx)
	if err != nil {
		return PaymentStatsReport{}, fmt.Errorf("load payment stats: %w", err)
	}
	global, perEvent := ticketing.AggregatePaymentStats(rows)
	report := PaymentStatsReport{Global: global, PerEvent: make([]ticketing.PaymentStats, 0, len(perEvent))}
	for _, stats := range perEvent {
		report.PerEvent = append(report.PerEvent, stats)
	}
	sort.Slice(report.PerEvent, func(i, j int) bool {
		return report.PerEvent[i].EventID < report.PerEvent[j].EventID
	})
	return report, nil
}
