package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pi5trading/order-emulator/internal/auth"
)

// AuthHandler issues and refreshes operator JWTs for the admin API. There
// is exactly one operator identity, configured at start-up; this is an
// admin surface for an unattended process, not a multi-user system.
type AuthHandler struct {
	jwt          *auth.JWTService
	operatorUser string
	passKey      string
	logger       zerolog.Logger
}

func NewAuthHandler(jwt *auth.JWTService, operatorUser, passKey string, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{jwt: jwt, operatorUser: operatorUser, passKey: passKey, logger: logger}
}

type loginRequest struct {
	User    string `json:"user"`
	PassKey string `json:"pass_key"`
}

// Login issues a token pair for the configured operator identity.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.User != h.operatorUser || req.PassKey != h.passKey {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	pair, err := h.jwt.GenerateTokenPair(context.Background(), h.operatorUser, h.operatorUser, "", "operator")
	if err != nil {
		h.logger.Error().Err(err).Msg("auth: generate token pair")
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a valid refresh token for a new pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	pair, err := h.jwt.RefreshAccessToken(context.Background(), req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}
