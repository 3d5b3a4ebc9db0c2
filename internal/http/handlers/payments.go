package handlers

import (
	"context"
	"net/http"
	"strconv"

	"eventia/backend/internal/http/middleware"
	"eventia/backend/internal/models"
	"eventia/backend/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type createPaymentRequest struct {
	BookingID string          `json:"bookingId" validate:"required,max=64"`
	Amount    decimal.Decimal `json:"amount"`
	UTRNumber string          `json:"utrNumber" validate:"omitempty,max=64"`
}

type updateUTRRequest struct {
	UTRNumber string `json:"utrNumber" validate:"required,max=64"`
}

type attachProofRequest struct {
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=100"`
}

type bookingPaymentResponse struct {
	Payment *models.Payment `json:"payment"`
}

type proofURLResponse struct {
	URL string `json:"url"`
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var req createPaymentRequest
	if !h.decodeAndValidate(w, r, logger, "create_payment", &req) {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	payment, err := h.svc.Payments.CreatePayment(ctx, service.CreatePaymentInput{
		BookingID: req.BookingID,
		Amount:    req.Amount,
		UTRNumber: req.UTRNumber,
	})
	if err != nil {
		writeServiceError(w, logger, "create_payment", err)
		return
	}
	logger.Info("action", "action", "create_payment", "status", "ok", "payment_id", payment.ID, "booking_id", payment.BookingID)
	writeJSON(w, http.StatusCreated, payment)
}

func (h *Handler) UpdateUTR(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var req updateUTRRequest
	if !h.decodeAndValidate(w, r, logger, "update_utr", &req) {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	payment, err := h.svc.Payments.UpdateUTR(ctx, chi.URLParam(r, "id"), req.UTRNumber)
	if err != nil {
		writeServiceError(w, logger, "update_utr", err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *Handler) AttachProof(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var req attachProofRequest
	if !h.decodeAndValidate(w, r, logger, "attach_proof", &req) {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	upload, err := h.svc.Payments.AttachProof(ctx, chi.URLParam(r, "id"), req.FileName, req.ContentType)
	if err != nil {
		writeServiceError(w, logger, "attach_proof", err)
		return
	}
	writeJSON(w, http.StatusOK, upload)
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	payment, err := h.svc.Payments.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, logger, "get_payment", err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// GetBookingPayment answers 200 with a null payment when the booking has none yet.
func (h *Handler) GetBookingPayment(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	payment, err := h.svc.Payments.GetByBookingID(ctx, chi.URLParam(r, "bookingId"))
	if err != nil {
		writeServiceError(w, logger, "get_booking_payment", err)
		return
	}
	writeJSON(w, http.StatusOK, bookingPaymentResponse{Payment: payment})
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	query := r.URL.Query()
	in := service.ListPaymentsInput{Status: query.Get("status")}
	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		in.Page = page
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		in.Limit = limit
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	page, err := h.svc.Payments.ListAll(ctx, in)
	if err != nil {
		writeServiceError(w, logger, "list_payments", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) PaymentProofURL(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	link, err := h.svc.Payments.ProofURL(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, logger, "payment_proof_url", err)
		return
	}
	writeJSON(w, http.StatusOK, proofURLResponse{URL: link})
}

func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	h.decidePayment(w, r, "verify_payment", h.svc.Verification.Verify)
}

func (h *Handler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	h.decidePayment(w, r, "reject_payment", h.svc.Verification.Reject)
}

func (h *Handler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	h.decidePayment(w, r, "refund_payment", h.svc.Verification.Refund)
}

func (h *Handler) decidePayment(w http.ResponseWriter, r *http.Request, action string, decide func(context.Context, string, string) (models.VerificationResult, error)) {
	logger := h.loggerForRequest(r)
	adminID, _ := middleware.UserIDFromContext(r.Context())

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	result, err := decide(ctx, chi.URLParam(r, "id"), adminID)
	if err != nil {
		writeServiceError(w, logger, action, err)
		return
	}
	middleware.RecordPaymentDecision(result.Payment.Status)
	logger.Info("action", "action", action, "status", "ok", "payment_id", result.Payment.ID, "booking_id", result.Booking.ID, "booking_status", result.Booking.Status)
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) PaymentStats(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	report, err := h.svc.Payments.Stats(ctx)
	if err != nil {
		writeServiceError(w, logger, "payment_stats", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
