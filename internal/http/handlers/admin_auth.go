package handlers

import (
	"errors"
	"net/http"
	"time"

	"eventia/backend/internal/auth"
)

const defaultAdminTokenTTL = 12 * time.Hour

// adminAuthRequest represents admin auth request.
type adminAuthRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type adminAuthResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// AuthAdmin authenticates admin.
func (h *Handler) AuthAdmin(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	var req adminAuthRequest
	if !h.decodeAndValidate(w, r, logger, "auth_admin", &req) {
		return
	}

	creds := auth.AdminCredentials{Username: h.cfg.Admin.Username, PasswordHash: h.cfg.Admin.PasswordHash}
	if err := creds.Check(req.Username, req.Password); err != nil {
		if errors.Is(err, auth.ErrAdminLoginDisabled) {
			logger.Warn("action", "action", "auth_admin", "status", "disabled")
			writeError(w, http.StatusUnauthorized, "admin login disabled")
			return
		}
		logger.Warn("action", "action", "auth_admin", "status", "invalid_credentials")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	now := time.Now().UTC()
	ttl := h.cfg.Admin.TokenTTL
	if ttl <= 0 {
		ttl = defaultAdminTokenTTL
	}
	token, err := auth.SignAccessToken(h.cfg.JWTSecret, creds.Username, auth.RoleAdmin, ttl, now)
	if err != nil {
		logger.Error("action", "action", "auth_admin", "status", "token_error", "error", err)
		writeError(w, http.StatusInternalServerError, "token error")
		return
	}
	logger.Info("action", "action", "auth_admin", "status", "ok", "username", creds.Username)
	writeJSON(w, http.StatusOK, adminAuthResponse{AccessToken: token, ExpiresAt: now.Add(ttl)})
}
