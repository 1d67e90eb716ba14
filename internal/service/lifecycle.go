package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shiptrack/internal/ledger"
	"shiptrack/internal/model"
	"shiptrack/internal/registry"
	"shiptrack/internal/rules"
	"shiptrack/internal/storage"
)

var (
	ErrShipmentRequired = errors.New("shipment is required")
	ErrIDRequired       = errors.New("shipment id is required")
	ErrNotFound         = errors.New("shipment not found")
	ErrDuplicateID      = errors.New("shipment id already exists")
	ErrNotAuthorized    = errors.New("custodian lacks the required capability")
	ErrInvalidStatus    = errors.New("unknown shipment status")
	ErrDeliveredFinal   = errors.New("shipment is delivered; its status can no longer change")
	ErrPaymentDenied    = errors.New("payment is allowed only for delivered shipments")
	ErrClearanceDenied  = errors.New("customs clearance denied")

	// ErrLedgerNotify marks an operation whose shipment mutation was
	// applied but whose ledger notification failed. The mutation
	// stands; the shipment history is authoritative and the ledger is
	// a mirror. Callers detect the condition with errors.Is.
	ErrLedgerNotify = errors.New("ledger notification failed")
)

// Lifecycle orchestrates every shipment mutation. Each operation
// consults the rule engine before touching the shipment and reports
// the denial verbatim as an error; there is no silent partial
// mutation.
type Lifecycle interface {
	// CreateShipment constructs and registers a shipment in CREATED
	// state. The acting custodian must hold the shipper capability.
	CreateShipment(ctx context.Context, actor model.Custodian, id, origin, destination, description string) (*model.Shipment, error)

	// UpdateStatus moves the shipment to next if the rule engine
	// allows it, appending the transition event and stamping the
	// delivery date when next is DELIVERED.
	UpdateStatus(ctx context.Context, s *model.Shipment, next model.Status) error

	// UploadDocument seals the named content, stores it off-chain,
	// attaches it to the shipment and records the fingerprint on the
	// ledger. A storage failure aborts before any shipment mutation.
	UploadDocument(ctx context.Context, actor model.Custodian, s *model.Shipment, name string, content []byte) (*model.Document, error)

	// ConfirmDelivery routes through UpdateStatus(DELIVERED). The
	// acting custodian must hold the confirm-delivery capability
	// (buyer or logistics provider).
	ConfirmDelivery(ctx context.Context, actor model.Custodian, s *model.Shipment) error

	// TriggerPayment records a payment event for a delivered shipment.
	TriggerPayment(ctx context.Context, actor model.Custodian, s *model.Shipment) error

	// ApplyCustomsClearance applies a customs ruling: APPROVE moves
	// the shipment to DISPATCHED, REJECT only records the rejection.
	ApplyCustomsClearance(ctx context.Context, actor model.Custodian, s *model.Shipment, decision rules.ClearanceDecision) error

	// FindShipmentByID looks the shipment up in the registry. Absence
	// is ErrNotFound, never a sentinel shipment.
	FindShipmentByID(id string) (*model.Shipment, error)

	// SnapshotShipment returns a point-in-time copy taken under the
	// shipment's read lock, safe to serialize while other requests
	// mutate the live shipment.
	SnapshotShipment(id string) (model.Shipment, error)
}

type lifecycleService struct {
	reg      *registry.Registry
	rules    *rules.Engine
	ledger   ledger.Gateway
	offchain storage.OffChainStore
}

// NewLifecycle constructs the lifecycle service.
func NewLifecycle(reg *registry.Registry, engine *rules.Engine, gw ledger.Gateway, offchain storage.OffChainStore) Lifecycle {
	return &lifecycleService{reg: reg, rules: engine, ledger: gw, offchain: offchain}
}

func (l *lifecycleService) CreateShipment(ctx context.Context, actor model.Custodian, id, origin, destination, description string) (*model.Shipment, error) {
	if !actor.Can(model.CapCreateShipment) {
		return nil, fmt.Errorf("%w: role %s cannot create shipments", ErrNotAuthorized, actor.Role)
	}
	if id == "" {
		return nil, ErrIDRequired
	}

	s := model.NewShipment(id, origin, destination, description)
	s.AppendEvent("Shipment created by " + string(actor.Role) + " " + actor.Name)
	if err := l.reg.Put(s); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}

	if err := l.ledger.SendTransaction(ctx, s.ID, "CREATED origin="+origin+" destination="+destination); err != nil {
		return s, fmt.Errorf("%w: %v", ErrLedgerNotify, err)
	}
	return s, nil
}

func (l *lifecycleService) UpdateStatus(ctx context.Context, s *model.Shipment, next model.Status) error {
	if s == nil {
		return ErrShipmentRequired
	}
	if !next.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}

	unlock := l.reg.Guard(s.ID)
	defer unlock()

	if !l.rules.CanUpdateStatus(s, next) {
		return fmt.Errorf("%w: requested %s", ErrDeliveredFinal, next)
	}
	s.ApplyStatus(next)

	if err := l.ledger.SendTransaction(ctx, s.ID, "STATUS "+string(next)); err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerNotify, err)
	}
	return nil
}

func (l *lifecycleService) UploadDocument(ctx context.Context, actor model.Custodian, s *model.Shipment, name string, content []byte) (*model.Document, error) {
	if s == nil {
		return nil, ErrShipmentRequired
	}
	if !actor.Can(model.CapUploadDocument) {
		return nil, fmt.Errorf("%w: role %s cannot upload documents", ErrNotAuthorized, actor.Role)
	}
	if name == "" {
		return nil, errors.New("document name is required")
	}

	doc := &model.Document{
		ID:        uuid.NewString(),
		Name:      name,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	doc.Seal()

	// Off-chain storage gates the attachment: if the upload fails the
	// shipment is left untouched.
	fingerprint, err := l.offchain.UploadFile(ctx, doc)
	if err != nil {
		return nil, err
	}
	doc.StoragePath = "documents/" + fingerprint

	unlock := l.reg.Guard(s.ID)
	s.AttachDocument(*doc)
	unlock()

	if err := l.ledger.SendTransaction(ctx, s.ID, "DOCUMENT "+name+" fingerprint="+fingerprint); err != nil {
		return doc, fmt.Errorf("%w: %v", ErrLedgerNotify, err)
	}
	return doc, nil
}

func (l *lifecycleService) ConfirmDelivery(ctx context.Context, actor model.Custodian, s *model.Shipment) error {
	if s == nil {
		return ErrShipmentRequired
	}
	if !actor.Can(model.CapConfirmDelivery) {
		return fmt.Errorf("%w: role %s cannot confirm delivery", ErrNotAuthorized, actor.Role)
	}
	if err := l.UpdateStatus(ctx, s, model.StatusDelivered); err != nil {
		return err
	}

	unlock := l.reg.Guard(s.ID)
	s.AppendEvent("Delivery confirmed by " + string(actor.Role) + " " + actor.Name)
	unlock()
	return nil
}

func (l *lifecycleService) TriggerPayment(ctx context.Context, actor model.Custodian, s *model.Shipment) error {
	if s == nil {
		return ErrShipmentRequired
	}
	if !actor.Can(model.CapTriggerPayment) {
		return fmt.Errorf("%w: role %s cannot trigger payment", ErrNotAuthorized, actor.Role)
	}

	unlock := l.reg.Guard(s.ID)
	defer unlock()

	if !l.rules.CanTriggerPayment(s) {
		return fmt.Errorf("%w: current status %s", ErrPaymentDenied, s.Status)
	}
	s.AppendEvent("Payment triggered by " + string(actor.Role) + " " + actor.Name)

	if err := l.ledger.SendTransaction(ctx, s.ID, "PAYMENT triggered"); err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerNotify, err)
	}
	return nil
}

func (l *lifecycleService) ApplyCustomsClearance(ctx context.Context, actor model.Custodian, s *model.Shipment, decision rules.ClearanceDecision) error {
	if s == nil {
		return ErrShipmentRequired
	}
	if !actor.Can(model.CapCustomsClearance) {
		return fmt.Errorf("%w: role %s cannot rule on customs clearance", ErrNotAuthorized, actor.Role)
	}

	unlock := l.reg.Guard(s.ID)
	defer unlock()

	if !l.rules.ValidateCustomsClearance(s, decision) {
		return fmt.Errorf("%w: decision %s in status %s", ErrClearanceDenied, decision, s.Status)
	}

	switch decision {
	case rules.ClearanceApprove:
		s.AppendEvent("Customs clearance approved")
		s.ApplyStatus(model.StatusDispatched)
	case rules.ClearanceReject:
		s.AppendEvent("Customs clearance rejected")
	}

	if err := l.ledger.SendTransaction(ctx, s.ID, "CUSTOMS "+string(decision)); err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerNotify, err)
	}
	return nil
}

func (l *lifecycleService) FindShipmentByID(id string) (*model.Shipment, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	s, ok := l.reg.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return s, nil
}

func (l *lifecycleService) SnapshotShipment(id string) (model.Shipment, error) {
	s, err := l.FindShipmentByID(id)
	if err != nil {
		return model.Shipment{}, err
	}

	unlock := l.reg.RGuard(id)
	defer unlock()
	return s.Snapshot(), nil
}
