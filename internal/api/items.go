package api

import (
	"context"
	"net/http"

	"github.com/erazemk/fairtrade/internal/ledger"
	"github.com/erazemk/fairtrade/internal/model"
)

// ItemsHandler handles item lifecycle endpoints.
type ItemsHandler struct {
	Ledger *ledger.Ledger
}

type harvestRequest struct {
	UPC             *int64 `json:"upc" validate:"required,gte=0"`
	FarmName        string `json:"farm_name" validate:"max=256"`
	FarmInformation string `json:"farm_information" validate:"max=1024"`
	Latitude        string `json:"latitude" validate:"omitempty,latitude"`
	Longitude       string `json:"longitude" validate:"omitempty,longitude"`
	Notes           string `json:"notes" validate:"max=1024"`
}

type priceRequest struct {
	Price int64 `json:"price"`
}

type paymentRequest struct {
	Payment int64 `json:"payment"`
}

// Harvest handles POST /api/items.
func (h *ItemsHandler) Harvest(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	req, ok := decodeRequest[harvestRequest](w, r)
	if !ok {
		return
	}

	item, err := h.Ledger.HarvestItem(r.Context(), claims.AccountID, *req.UPC, model.Provenance{
		FarmName:        req.FarmName,
		FarmInformation: req.FarmInformation,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		Notes:           req.Notes,
	})
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

type stepFunc func(ctx context.Context, caller string, upc int64) (*model.Item, error)

// step adapts a bodiless transition to a handler.
func (h *ItemsHandler) step(fn stepFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		upc, err := pathUPC(r)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		item, err := fn(r.Context(), GetClaims(r.Context()).AccountID, upc)
		if err != nil {
			ledgerError(w, r, err)
			return
		}
		jsonResponse(w, http.StatusOK, item)
	}
}

// Process handles POST /api/items/{upc}/process.
func (h *ItemsHandler) Process(w http.ResponseWriter, r *http.Request) {
	h.step(h.Ledger.ProcessItem)(w, r)
}

// Pack handles POST /api/items/{upc}/pack.
func (h *ItemsHandler) Pack(w http.ResponseWriter, r *http.Request) {
	h.step(h.Ledger.PackItem)(w, r)
}

// Ship handles POST /api/items/{upc}/ship.
func (h *ItemsHandler) Ship(w http.ResponseWriter, r *http.Request) {
	h.step(h.Ledger.ShipItem)(w, r)
}

// Receive handles POST /api/items/{upc}/receive.
func (h *ItemsHandler) Receive(w http.ResponseWriter, r *http.Request) {
	h.step(h.Ledger.ReceiveItem)(w, r)
}

// Sell handles POST /api/items/{upc}/sell.
func (h *ItemsHandler) Sell(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[priceRequest](w, r)
	if !ok {
		return
	}
	h.step(func(ctx context.Context, caller string, upc int64) (*model.Item, error) {
		return h.Ledger.SetForSaleItem(ctx, caller, upc, req.Price)
	})(w, r)
}

// Buy handles POST /api/items/{upc}/buy.
func (h *ItemsHandler) Buy(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[paymentRequest](w, r)
	if !ok {
		return
	}
	h.step(func(ctx context.Context, caller string, upc int64) (*model.Item, error) {
		return h.Ledger.BuyItem(ctx, caller, upc, req.Payment)
	})(w, r)
}

// Purchase handles POST /api/items/{upc}/purchase.
func (h *ItemsHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[paymentRequest](w, r)
	if !ok {
		return
	}
	h.step(func(ctx context.Context, caller string, upc int64) (*model.Item, error) {
		return h.Ledger.PurchaseItem(ctx, caller, upc, req.Payment)
	})(w, r)
}

// Summary handles GET /api/items/{upc}/summary.
func (h *ItemsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	upc, err := pathUPC(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	one, err := h.Ledger.FetchItemBufferOne(r.Context(), upc)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, one)
}

// Commerce handles GET /api/items/{upc}/commerce.
func (h *ItemsHandler) Commerce(w http.ResponseWriter, r *http.Request) {
	upc, err := pathUPC(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	two, err := h.Ledger.FetchItemBufferTwo(r.Context(), upc)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, two)
}

// History handles GET /api/items/{upc}/history.
func (h *ItemsHandler) History(w http.ResponseWriter, r *http.Request) {
	upc, err := pathUPC(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	events, err := h.Ledger.ItemHistory(r.Context(), upc)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, events)
}

// List handles GET /api/items, optionally filtered with ?status=.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter *model.Status
	if s := r.URL.Query().Get("status"); s != "" {
		status, err := model.ParseStatus(s)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter = &status
	}

	items, err := h.Ledger.Items(r.Context(), filter)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}
