package api

import (
	"net/http"

	"github.com/erazemk/fairtrade/internal/auth"
	"github.com/erazemk/fairtrade/internal/ledger"
	"github.com/erazemk/fairtrade/internal/model"
)

// AccountsHandler handles participant accounts and balances.
type AccountsHandler struct {
	Ledger *ledger.Ledger
}

type createAccountRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}

type fundRequest struct {
	Amount int64 `json:"amount"`
}

type balanceResponse struct {
	Account string `json:"account"`
	Balance int64  `json:"balance"`
}

type rolesResponse struct {
	Account string       `json:"account"`
	Roles   []model.Role `json:"roles"`
}

// List handles GET /api/accounts.
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Ledger.Accounts(r.Context())
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, accounts)
}

// Create handles POST /api/accounts.
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	req, ok := decodeRequest[createAccountRequest](w, r)
	if !ok {
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		ledgerError(w, r, err)
		return
	}

	acct, err := h.Ledger.Register(r.Context(), claims.AccountID, req.Username, hash)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, acct)
}

// Fund handles POST /api/accounts/{id}/fund.
func (h *AccountsHandler) Fund(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	req, ok := decodeRequest[fundRequest](w, r)
	if !ok {
		return
	}

	account := r.PathValue("id")
	if err := h.Ledger.Fund(r.Context(), claims.AccountID, account, req.Amount); err != nil {
		ledgerError(w, r, err)
		return
	}
	h.writeBalance(w, r, account)
}

// Balance handles GET /api/accounts/{id}/balance.
func (h *AccountsHandler) Balance(w http.ResponseWriter, r *http.Request) {
	h.writeBalance(w, r, r.PathValue("id"))
}

func (h *AccountsHandler) writeBalance(w http.ResponseWriter, r *http.Request, account string) {
	bal, err := h.Ledger.Balance(r.Context(), account)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, balanceResponse{Account: account, Balance: bal})
}

// Roles handles GET /api/accounts/{id}/roles.
func (h *AccountsHandler) Roles(w http.ResponseWriter, r *http.Request) {
	account := r.PathValue("id")
	if _, err := h.Ledger.Account(r.Context(), account); err != nil {
		ledgerError(w, r, err)
		return
	}

	roles, err := h.Ledger.RolesOf(r.Context(), account)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, rolesResponse{Account: account, Roles: roles})
}
