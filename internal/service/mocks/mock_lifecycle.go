package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"shiptrack/internal/model"
	"shiptrack/internal/rules"
)

type MockLifecycle struct {
	mock.Mock
}

func (m *MockLifecycle) CreateShipment(ctx context.Context, actor model.Custodian, id, origin, destination, description string) (*model.Shipment, error) {
	args := m.Called(ctx, actor, id, origin, destination, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Shipment), args.Error(1)
}

func (m *MockLifecycle) UpdateStatus(ctx context.Context, s *model.Shipment, next model.Status) error {
	args := m.Called(ctx, s, next)
	return args.Error(0)
}

func (m *MockLifecycle) UploadDocument(ctx context.Context, actor model.Custodian, s *model.Shipment, name string, content []byte) (*model.Document, error) {
	args := m.Called(ctx, actor, s, name, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockLifecycle) ConfirmDelivery(ctx context.Context, actor model.Custodian, s *model.Shipment) error {
	args := m.Called(ctx, actor, s)
	return args.Error(0)
}

func (m *MockLifecycle) TriggerPayment(ctx context.Context, actor model.Custodian, s *model.Shipment) error {
	args := m.Called(ctx, actor, s)
	return args.Error(0)
}

func (m *MockLifecycle) ApplyCustomsClearance(ctx context.Context, actor model.Custodian, s *model.Shipment, decision rules.ClearanceDecision) error {
	args := m.Called(ctx, actor, s, decision)
	return args.Error(0)
}

func (m *MockLifecycle) FindShipmentByID(id string) (*model.Shipment, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Shipment), args.Error(1)
}

func (m *MockLifecycle) SnapshotShipment(id string) (model.Shipment, error) {
	args := m.Called(id)
	s, _ := args.Get(0).(model.Shipment)
	return s, args.Error(1)
}
