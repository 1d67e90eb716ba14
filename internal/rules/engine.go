package rules

import (
	"strings"

	"shiptrack/internal/model"
)

// Package rules holds the decision functions that gate every shipment
// mutation. Every function is pure: it inspects the shipment and its
// context, mutates nothing, and treats a nil shipment or malformed
// input as an automatic deny rather than an error.

// ClearanceDecision is a customs ruling on a shipment.
type ClearanceDecision string

const (
	ClearanceApprove ClearanceDecision = "APPROVE"
	ClearanceReject  ClearanceDecision = "REJECT"
)

// ParseClearanceDecision normalizes caller input. Anything outside the
// APPROVE/REJECT enum is rejected.
func ParseClearanceDecision(raw string) (ClearanceDecision, bool) {
	d := ClearanceDecision(strings.ToUpper(strings.TrimSpace(raw)))
	if d != ClearanceApprove && d != ClearanceReject {
		return "", false
	}
	return d, true
}

// Engine evaluates authorization rules against shipment state. It
// carries no state of its own and is safe for concurrent use.
type Engine struct{}

// NewEngine returns a rule engine.
func NewEngine() *Engine {
	return &Engine{}
}

// CanUpdateStatus reports whether the shipment may move to newStatus.
// The one hard constraint on forward motion: once DELIVERED, the only
// accepted target is DELIVERED itself. Every other pair of states is
// allowed, including moves that look like going backwards.
func (e *Engine) CanUpdateStatus(s *model.Shipment, newStatus model.Status) bool {
	if s == nil || !newStatus.Valid() {
		return false
	}
	if s.Status == model.StatusDelivered && newStatus != model.StatusDelivered {
		return false
	}
	return true
}

// CanTriggerPayment allows payment only for delivered shipments.
func (e *Engine) CanTriggerPayment(s *model.Shipment) bool {
	if s == nil {
		return false
	}
	return s.Status == model.StatusDelivered
}

// CanRaiseDispute allows a dispute at any point before delivery.
func (e *Engine) CanRaiseDispute(s *model.Shipment) bool {
	if s == nil {
		return false
	}
	return s.Status != model.StatusDelivered
}

// ValidateCustomsClearance checks a customs ruling against the
// shipment state. REJECT is allowed whenever the shipment has not been
// delivered; APPROVE additionally requires a customs-relevant state.
func (e *Engine) ValidateCustomsClearance(s *model.Shipment, decision ClearanceDecision) bool {
	if s == nil {
		return false
	}
	if decision != ClearanceApprove && decision != ClearanceReject {
		return false
	}
	if s.Status == model.StatusDelivered {
		return false
	}
	if decision == ClearanceReject {
		return true
	}
	switch s.Status {
	case model.StatusCreated, model.StatusInTransit, model.StatusAtBorder, model.StatusAtWarehouse:
		return true
	}
	return false
}

// VerifyLedgerIntegrity checks the history's ordering invariant, the
// audit analogue of a hash-chain check: an empty history is intact,
// otherwise every event timestamp must be strictly greater than its
// predecessor. A reordered or duplicated-timestamp history is reported
// as compromised.
func (e *Engine) VerifyLedgerIntegrity(s *model.Shipment) bool {
	if s == nil {
		return false
	}
	for i, ev := range s.History {
		if ev.Timestamp.IsZero() {
			return false
		}
		if i > 0 && !ev.Timestamp.After(s.History[i-1].Timestamp) {
			return false
		}
	}
	return true
}
