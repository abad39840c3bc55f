package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/fairtrade/internal/ledger"
)

type errorBody struct {
	Error  string            `json:"error"`
	Kind   string            `json:"kind,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, errorBody{Error: message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

var kindStatus = map[string]int{
	"Unauthorized":        http.StatusForbidden,
	"NotFound":            http.StatusNotFound,
	"DuplicateItem":       http.StatusConflict,
	"InvalidState":        http.StatusConflict,
	"InvalidPrice":        http.StatusUnprocessableEntity,
	"InvalidAmount":       http.StatusUnprocessableEntity,
	"InsufficientPayment": http.StatusPaymentRequired,
	"InsufficientFunds":   http.StatusPaymentRequired,
	"InvalidArgument":     http.StatusBadRequest,
}

// ledgerError maps a ledger error to its HTTP status. Anything outside the
// taxonomy is logged and reported as an internal error.
func ledgerError(w http.ResponseWriter, r *http.Request, err error) {
	kind := ledger.Kind(err)
	status, ok := kindStatus[kind]
	if !ok {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonResponse(w, http.StatusInternalServerError, errorBody{Error: "internal error", Kind: kind})
		return
	}
	jsonResponse(w, status, errorBody{Error: err.Error(), Kind: kind})
}

var errBadUPC = errors.New("upc must be a non-negative integer")

// pathUPC reads the {upc} path value.
func pathUPC(r *http.Request) (int64, error) {
	upc, err := strconv.ParseInt(r.PathValue("upc"), 10, 64)
	if err != nil || upc < 0 {
		return 0, errBadUPC
	}
	return upc, nil
}
