package handlers

import (
	"net/http"
	"strings"

	"eventia/backend/internal/http/middleware"
	"eventia/backend/internal/models"
	"eventia/backend/internal/service"
	"eventia/backend/internal/ticketing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type seatRequest struct {
	Category string          `json:"category" validate:"required,max=64"`
	Price    decimal.Decimal `json:"price"`
	SeatRef  string          `json:"seatRef" validate:"omitempty,max=64"`
}

type createBookingRequest struct {
	EventID      string        `json:"eventId" validate:"required,max=64"`
	Seats        []seatRequest `json:"seats" validate:"required,min=1,max=50,dive"`
	DiscountCode string        `json:"discountCode" validate:"omitempty,max=64"`
	AutoApply    bool          `json:"autoApply"`
}

type listBookingsResponse struct {
	Items []models.Booking `json:"items"`
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var req createBookingRequest
	if !h.decodeAndValidate(w, r, logger, "create_booking", &req) {
		return
	}

	seats := make([]models.Seat, 0, len(req.Seats))
	for _, seat := range req.Seats {
		seats = append(seats, models.Seat{
			Category: strings.TrimSpace(seat.Category),
			Price:    seat.Price,
			SeatRef:  strings.TrimSpace(seat.SeatRef),
		})
	}
	in := service.CreateBookingInput{
		EventID:      req.EventID,
		Seats:        seats,
		DiscountCode: req.DiscountCode,
		AutoApply:    req.AutoApply,
	}
	if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
		in.UserID = &userID
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	booking, err := h.svc.Bookings.CreateBooking(ctx, in)
	if err != nil {
		writeServiceError(w, logger, "create_booking", err)
		return
	}
	middleware.RecordBookingCreated()
	logger.Info("action", "action", "create_booking", "status", "ok", "booking_id", booking.ID, "final_amount", booking.FinalAmount.String())
	writeJSON(w, http.StatusCreated, booking)
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	booking, err := h.svc.Bookings.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, logger, "get_booking", err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *Handler) ListUserBookings(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	userID := chi.URLParam(r, "userId")
	callerID, _ := middleware.UserIDFromContext(r.Context())
	if callerID != userID && !middleware.IsAdmin(r.Context()) {
		logger.Warn("action", "action", "list_user_bookings", "status", "forbidden")
		writeCodedError(w, http.StatusForbidden, ticketing.CodeForbidden, "forbidden")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	items, err := h.svc.Bookings.ListByUser(ctx, userID)
	if err != nil {
		writeServiceError(w, logger, "list_user_bookings", err)
		return
	}
	writeJSON(w, http.StatusOK, listBookingsResponse{Items: items})
}

func (h *Handler) PaymentInstructions(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	booking, err := h.svc.Bookings.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, logger, "payment_instructions", err)
		return
	}
	if booking.Status != models.BookingStatusPending {
		writeCodedError(w, http.StatusConflict, ticketing.CodeInvalidBookingStatus, "booking is already "+booking.Status)
		return
	}
	instructions, err := h.svc.UpiSettings.PaymentInstructions(ctx, booking)
	if err != nil {
		writeServiceError(w, logger, "payment_instructions", err)
		return
	}
	writeJSON(w, http.StatusOK, instructions)
}
