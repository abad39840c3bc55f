package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/fairtrade/internal/auth"
	"github.com/erazemk/fairtrade/internal/ledger"
	"github.com/erazemk/fairtrade/internal/model"
	"github.com/erazemk/fairtrade/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	DB          *sql.DB
	Ledger      *ledger.Ledger
	JWTSecret   string
	TokenExpiry time.Duration
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token   string `json:"token"`
	Account string `json:"account"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

type meResponse struct {
	*model.Account
	Roles []model.Role `json:"roles"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[loginRequest](w, r)
	if !ok {
		return
	}

	acct, err := store.GetAccountByUsername(r.Context(), h.DB, req.Username)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	if acct == nil {
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := auth.CheckPassword(acct.PasswordHash, req.Password); err != nil {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, h.TokenExpiry, acct.ID, acct.Username, acct.Admin)
	if err != nil {
		ledgerError(w, r, err)
		return
	}

	slog.Info("account logged in", "account", acct.ID, "username", acct.Username)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, Account: acct.ID})
}

// Logout handles POST /api/auth/logout. The presented token stops working.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
		ledgerError(w, r, err)
		return
	}

	slog.Info("account logged out", "account", claims.AccountID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	req, ok := decodeRequest[changePasswordRequest](w, r)
	if !ok {
		return
	}
	if err := model.ValidatePassword(req.NewPassword); err != nil {
		jsonError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	acct, err := h.Ledger.Account(r.Context(), claims.AccountID)
	if err != nil {
		ledgerError(w, r, err)
		return
	}

	if err := auth.CheckPassword(acct.PasswordHash, req.CurrentPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			jsonError(w, http.StatusUnauthorized, "current password is incorrect")
			return
		}
		ledgerError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		ledgerError(w, r, err)
		return
	}

	if err := store.UpdateAccountPassword(r.Context(), h.DB, acct.ID, hash); err != nil {
		ledgerError(w, r, err)
		return
	}

	slog.Info("account changed password", "account", acct.ID)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	acct, err := h.Ledger.Account(r.Context(), claims.AccountID)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	roles, err := h.Ledger.RolesOf(r.Context(), acct.ID)
	if err != nil {
		ledgerError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, meResponse{Account: acct, Roles: roles})
}
