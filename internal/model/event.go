package model

import (
	"fmt"
	"time"
)

// Event is one immutable entry in a shipment's history.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

func (e Event) String() string {
	return fmt.Sprintf("[%s] %s", e.Timestamp.Format(time.RFC3339Nano), e.Message)
}
