package model

import "fmt"

// Status is the lifecycle state of an item. Statuses are totally ordered and
// an item only ever moves to the status immediately after its current one.
type Status uint8

// Item statuses, in lifecycle order.
const (
	StatusHarvested Status = iota
	StatusProcessed
	StatusPacked
	StatusForSale
	StatusSold
	StatusShipped
	StatusReceived
	StatusPurchased
)

var statusNames = [...]string{
	StatusHarvested: "Harvested",
	StatusProcessed: "Processed",
	StatusPacked:    "Packed",
	StatusForSale:   "ForSale",
	StatusSold:      "Sold",
	StatusShipped:   "Shipped",
	StatusReceived:  "Received",
	StatusPurchased: "Purchased",
}

func (s Status) String() string {
	if s.Valid() {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Valid reports whether s is a declared status.
func (s Status) Valid() bool {
	return int(s) < len(statusNames)
}

// Previous returns the status that must directly precede s. The first
// status has no predecessor.
func (s Status) Previous() (Status, bool) {
	if s == StatusHarvested || !s.Valid() {
		return 0, false
	}
	return s - 1, true
}

// Final reports whether s is the last lifecycle status.
func (s Status) Final() bool {
	return s == StatusPurchased
}

// ParseStatus converts a status name into a Status.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
