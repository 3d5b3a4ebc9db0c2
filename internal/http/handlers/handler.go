package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"eventia/backend/internal/config"
	authmw "eventia/backend/internal/http/middleware"
	"eventia/backend/internal/rate"
	"eventia/backend/internal/service"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	svc              *service.Services
	cfg              *config.Config
	logger           *slog.Logger
	validator        *validator.Validate
	discountLimiter  *rate.KeyedLimiter
	utrSubmitLimiter *rate.KeyedLimiter
}

func New(svc *service.Services, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:              svc,
		cfg:              cfg,
		logger:           logger,
		validator:        newValidator(),
		discountLimiter:  rate.NewPerMinute(cfg.Limits.DiscountValidatePerMinute),
		utrSubmitLimiter: rate.NewPerMinute(cfg.Limits.UTRSubmitPerMinute),
	}
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}

func (h *Handler) loggerForRequest(r *http.Request) *slog.Logger {
	logger := h.logger
	if logger == nil {
		return slog.Default()
	}
	if reqID := chimw.GetReqID(r.Context()); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if userID, ok := authmw.UserIDFromContext(r.Context()); ok {
		logger = logger.With("user_id", userID)
	}
	if authmw.IsAdmin(r.Context()) {
		logger = logger.With("admin", true)
	}
	return logger
}

// newValidator reports field names as they appear in the JSON payload.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
