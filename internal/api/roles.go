package api

import (
	"context"
	"net/http"

	"github.com/erazemk/fairtrade/internal/ledger"
	"github.com/erazemk/fairtrade/internal/model"
)

// RolesHandler handles the role registry.
type RolesHandler struct {
	Ledger *ledger.Ledger
}

type roleRequest struct {
	Role    string `json:"role" validate:"required,oneof=farmer distributor retailer consumer"`
	Account string `json:"account" validate:"required,eth_addr"`
}

type hasRoleResponse struct {
	Role    model.Role `json:"role"`
	Account string     `json:"account"`
	Has     bool       `json:"has"`
}

// Grant handles POST /api/roles.
func (h *RolesHandler) Grant(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, h.Ledger.GrantRole, true)
}

// Revoke handles DELETE /api/roles.
func (h *RolesHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	h.change(w, r, h.Ledger.RevokeRole, false)
}

type roleChangeFunc func(ctx context.Context, caller string, role model.Role, account string) error

func (h *RolesHandler) change(w http.ResponseWriter, r *http.Request, apply roleChangeFunc, has bool) {
	claims := GetClaims(r.Context())

	req, ok := decodeRequest[roleRequest](w, r)
	if !ok {
		return
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := apply(r.Context(), claims.AccountID, role, req.Account); err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, hasRoleResponse{Role: role, Account: req.Account, Has: has})
}

// Has handles GET /api/roles/{role}/{account}.
func (h *RolesHandler) Has(w http.ResponseWriter, r *http.Request) {
	role, err := model.ParseRole(r.PathValue("role"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	account := r.PathValue("account")
	has, err := h.Ledger.HasRole(r.Context(), role, account)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, hasRoleResponse{Role: role, Account: account, Has: has})
}
