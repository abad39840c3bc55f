package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/fairtrade/internal/ledger"
	"github.com/erazemk/fairtrade/internal/model"
)

// EventsHandler serves the event log.
type EventsHandler struct {
	Ledger *ledger.Ledger
}

// List handles GET /api/events?from=&to=. A missing from starts at the
// first event; a missing to, or to=latest, runs to the newest.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from := int64(0)
	if s := q.Get("from"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "from must be an integer")
			return
		}
		from = v
	}

	to := model.LatestIndex
	if s := q.Get("to"); s != "" && s != "latest" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "to must be an integer or \"latest\"")
			return
		}
		to = v
	}

	events, err := h.Ledger.Events(r.Context(), from, to)
	if err != nil {
		ledgerError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, events)
}
