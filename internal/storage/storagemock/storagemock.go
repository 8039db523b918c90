// Package storagemock contains testify mocks for the storage package.
package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/slok/pkgmcp/internal/model"
)

// MockHistoryRepository is a mock implementation of storage.HistoryRepository.
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) AddOperation(ctx context.Context, record model.OperationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockHistoryRepository) ListOperations(ctx context.Context) ([]model.OperationRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]model.OperationRecord)
	return records, args.Error(1)
}
