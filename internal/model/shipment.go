package model

import (
	"strings"
	"time"
)

// Shipment is the state-holding entity tracked through its custodians.
// It exclusively owns its Documents and History; all mutation is
// mediated by the lifecycle service, which holds the per-shipment lock
// around every check-then-append sequence.
type Shipment struct {
	ID           string     `json:"id"`
	Origin       string     `json:"origin"`
	Destination  string     `json:"destination"`
	Description  string     `json:"description"`
	Status       Status     `json:"status"`
	DispatchDate time.Time  `json:"dispatch_date"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
	Documents    []Document `json:"documents"`
	History      []Event    `json:"history"`
}

// NewShipment constructs a shipment in CREATED state and appends the
// creation event. CREATED is entered exactly once, here.
func NewShipment(id, origin, destination, description string) *Shipment {
	s := &Shipment{
		ID:           id,
		Origin:       origin,
		Destination:  destination,
		Description:  description,
		Status:       StatusCreated,
		DispatchDate: time.Now().UTC(),
	}
	s.AppendEvent("Shipment created: " + description)
	return s
}

// AppendEvent records a history entry. History timestamps must be
// strictly increasing; when the clock has not advanced past the last
// entry the new timestamp is clamped to one nanosecond after it.
func (s *Shipment) AppendEvent(message string) Event {
	ts := time.Now().UTC()
	if n := len(s.History); n > 0 {
		if last := s.History[n-1].Timestamp; !ts.After(last) {
			ts = last.Add(time.Nanosecond)
		}
	}
	e := Event{Timestamp: ts, Message: message}
	s.History = append(s.History, e)
	return e
}

// ApplyStatus moves the shipment to the given state, appends the
// transition event and stamps the delivery date when the target is
// DELIVERED. Callers must have consulted the rule engine first; this
// method performs no authorization of its own.
func (s *Shipment) ApplyStatus(next Status) {
	s.Status = next
	s.AppendEvent("Status updated to " + string(next))
	if next == StatusDelivered && s.DeliveryDate == nil {
		now := time.Now().UTC()
		s.DeliveryDate = &now
	}
}

// AttachDocument appends the document and records the attachment in
// the history.
func (s *Shipment) AttachDocument(doc Document) {
	s.Documents = append(s.Documents, doc)
	s.AppendEvent("Document added: " + doc.Name)
}

// Snapshot returns a point-in-time copy that can be read or serialized
// without holding the per-shipment lock. Documents and History are
// copied, so appends to the live shipment do not show through.
func (s *Shipment) Snapshot() Shipment {
	out := *s
	out.Documents = append([]Document(nil), s.Documents...)
	out.History = append([]Event(nil), s.History...)
	if s.DeliveryDate != nil {
		d := *s.DeliveryDate
		out.DeliveryDate = &d
	}
	return out
}

// FindDocument returns the first attached document matching name,
// case-insensitively, or nil when no document matches.
func (s *Shipment) FindDocument(name string) *Document {
	for i := range s.Documents {
		if strings.EqualFold(s.Documents[i].Name, name) {
			return &s.Documents[i]
		}
	}
	return nil
}
