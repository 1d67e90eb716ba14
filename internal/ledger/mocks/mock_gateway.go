package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Connect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGateway) SendTransaction(ctx context.Context, key, payload string) error {
	args := m.Called(ctx, key, payload)
	return args.Error(0)
}

func (m *MockGateway) QueryLedger(ctx context.Context, key string) ([]string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockGateway) Disconnect() {
	m.Called()
}
