package model

import (
	"encoding/json"
	"time"
)

// Event names for the non-lifecycle ledger operations. Lifecycle events are
// named after the status they move the item into.
const (
	EventRoleGranted = "RoleGranted"
	EventRoleRevoked = "RoleRevoked"
	EventFunded      = "Funded"
)

// LatestIndex stands in for the newest event index in range queries.
const LatestIndex int64 = -1

// Event is an immutable record of one committed ledger operation.
type Event struct {
	Index     int64           `json:"index"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UPC       *int64          `json:"upc,omitempty"`
	Emitter   string          `json:"emitter"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
