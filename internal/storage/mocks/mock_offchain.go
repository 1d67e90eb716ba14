package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"shiptrack/internal/model"
)

type MockOffChainStore struct {
	mock.Mock
}

func (m *MockOffChainStore) UploadFile(ctx context.Context, doc *model.Document) (string, error) {
	args := m.Called(ctx, doc)
	return args.String(0), args.Error(1)
}

func (m *MockOffChainStore) RetrieveFile(ctx context.Context, fingerprint string) (*model.Document, error) {
	args := m.Called(ctx, fingerprint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockOffChainStore) VerifyIntegrity(ctx context.Context, doc *model.Document) bool {
	args := m.Called(ctx, doc)
	return args.Bool(0)
}
