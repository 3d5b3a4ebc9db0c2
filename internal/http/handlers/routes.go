package handlers

import (
	"net/http"

	"eventia/backend/internal/cache"
	"eventia/backend/internal/http/middleware"

	"github.com/go-chi/chi/v5"
)

// Routes registers the API on r. A nil idempotency client disables request
// replay.
func (h *Handler) Routes(r chi.Router, idempotency cache.Client) {
	idem := middleware.Idempotency(idempotency, h.cfg.Limits.IdempotencyTTL, h.logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", middleware.PrometheusHandler())
	r.Post("/auth/admin", h.AuthAdmin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(h.cfg.JWTSecret))
		r.With(idem).Post("/bookings", h.CreateBooking)
		r.Get("/bookings/{id}", h.GetBooking)
		r.Get("/bookings/{id}/payment-instructions", h.PaymentInstructions)
		r.Put("/bookings/{id}/delivery", h.SaveDelivery)
		r.Get("/bookings/{id}/delivery", h.GetDelivery)

		r.With(idem).Post("/payments", h.CreatePayment)
		r.With(middleware.RateLimit("utr_submit", h.utrSubmitLimiter)).Put("/payments/{id}/utr", h.UpdateUTR)
		r.Post("/payments/{id}/proof", h.AttachProof)
		r.Get("/payments/{id}", h.GetPayment)
		r.Get("/payments/booking/{bookingId}", h.GetBookingPayment)

		r.Get("/upi-settings", h.GetUpiSettings)
		r.With(middleware.RateLimit("discount_validate", h.discountLimiter)).Post("/discounts/validate", h.ValidateDiscount)
		r.Get("/discounts/auto-apply", h.AutoApplyDiscount)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(h.cfg.JWTSecret))
		r.Get("/users/{userId}/bookings", h.ListUserBookings)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(h.cfg.JWTSecret))
		r.Use(middleware.RequireAdmin)
		r.Get("/payments", h.ListPayments)
		r.Get("/payments/stats", h.PaymentStats)
		r.Get("/payments/{id}/proof", h.PaymentProofURL)
		r.Put("/payments/{id}/verify", h.VerifyPayment)
		r.Put("/payments/{id}/reject", h.RejectPayment)
		r.Put("/payments/{id}/refund", h.RefundPayment)
		r.Post("/upi-settings", h.CreateUpiSettings)
		r.Put("/upi-settings/{id}", h.UpdateUpiSettings)
		r.Get("/discounts", h.ListDiscounts)
		r.Post("/discounts", h.CreateDiscount)
		r.Patch("/discounts/{id}", h.PatchDiscount)
		r.Delete("/discounts/{id}", h.DeleteDiscount)
		r.Put("/bookings/{id}/dispatch", h.DispatchBooking)
		r.Post("/tickets/verify", h.VerifyTicketPass)
	})
}
