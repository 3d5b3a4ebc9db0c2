package handlers

import (
	"net/http"

	"eventia/backend/internal/http/middleware"
	"eventia/backend/internal/service"

	"github.com/go-chi/chi/v5"
)

type deliveryRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"required,min=10,max=15"`
	Address string `json:"address" validate:"required,max=500"`
	City    string `json:"city" validate:"required,max=100"`
	Pincode string `json:"pincode" validate:"required,len=6,numeric"`
}

type dispatchRequest struct {
	TrackingNumber string `json:"trackingNumber" validate:"required,max=64"`
}

type verifyPassRequest struct {
	Token string `json:"token" validate:"required"`
}

func (h *Handler) SaveDelivery(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var req deliveryRequest
	if !h.decodeAndValidate(w, r, logger, "save_delivery", &req) {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	details, err := h.svc.Delivery.SaveDeliveryDetails(ctx, service.DeliveryInput{
		BookingID: chi.URLParam(r, "id"),
		Name:      req.Name,
		Phone:     req.Phone,
		Address:   req.Address,
		City:      req.City,
		Pincode:   req.Pincode,
	})
	if err != nil {
		writeServiceError(w, logger, "save_delivery", err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *Handler) GetDelivery(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	details, err := h.svc.Delivery.GetDelivery(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, logger, "get_delivery", err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *Handler) DispatchBooking(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var req dispatchRequest
	if !h.decodeAndValidate(w, r, logger, "dispatch_booking", &req) {
		return
	}
	adminID, _ := middleware.UserIDFromContext(r.Context())

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	result, err := h.svc.Delivery.Dispatch(ctx, chi.URLParam(r, "id"), req.TrackingNumber, adminID)
	if err != nil {
		writeServiceError(w, logger, "dispatch_booking", err)
		return
	}
	logger.Info("action", "action", "dispatch_booking", "status", "ok", "booking_id", result.Delivery.BookingID)
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) VerifyTicketPass(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var req verifyPassRequest
	if !h.decodeAndValidate(w, r, logger, "verify_ticket_pass", &req) {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	pass, err := h.svc.Delivery.VerifyPass(ctx, req.Token)
	if err != nil {
		writeServiceError(w, logger, "verify_ticket_pass", err)
		return
	}
	writeJSON(w, http.StatusOK, pass)
}
