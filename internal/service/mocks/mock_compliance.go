package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"shiptrack/internal/model"
	"shiptrack/internal/service"
)

type MockCompliance struct {
	mock.Mock
}

func (m *MockCompliance) QueryStatus(s *model.Shipment) string {
	args := m.Called(s)
	return args.String(0)
}

func (m *MockCompliance) GenerateAuditTrail(ctx context.Context, s *model.Shipment) model.Report {
	args := m.Called(ctx, s)
	return args.Get(0).(model.Report)
}

func (m *MockCompliance) EnsureLedgerIntegrity(s *model.Shipment) bool {
	args := m.Called(s)
	return args.Bool(0)
}

func (m *MockCompliance) VerifyDocument(ctx context.Context, s *model.Shipment, documentName string) service.VerificationResult {
	args := m.Called(ctx, s, documentName)
	return args.Get(0).(service.VerificationResult)
}

func (m *MockCompliance) LogDispute(ctx context.Context, s *model.Shipment, description string) (string, error) {
	args := m.Called(ctx, s, description)
	return args.String(0), args.Error(1)
}
