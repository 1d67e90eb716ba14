package model

import (
	"fmt"
	"strings"
)

// Status is a workflow state of a shipment.
type Status string

const (
	StatusCreated     Status = "CREATED"
	StatusInTransit   Status = "IN_TRANSIT"
	StatusAtWarehouse Status = "AT_WAREHOUSE"
	StatusAtBorder    Status = "AT_BORDER"
	StatusDispatched  Status = "DISPATCHED"
	StatusDelivered   Status = "DELIVERED"
)

// Statuses lists every workflow state in workflow order. DELIVERED is
// terminal: once reached, the only accepted target is DELIVERED itself.
// The set is otherwise deliberately unordered; a shipment may move
// from AT_WAREHOUSE back to IN_TRANSIT, for example.
var Statuses = []Status{
	StatusCreated,
	StatusInTransit,
	StatusAtWarehouse,
	StatusAtBorder,
	StatusDispatched,
	StatusDelivered,
}

// Valid reports whether s is a member of the defined state set.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus normalizes caller input (case-insensitive) into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown shipment status %q", raw)
	}
	return s, nil
}
