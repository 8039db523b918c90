package storage

import (
	"context"

	"github.com/slok/pkgmcp/internal/model"
)

// HistoryRepository is the interface for the package operation audit log.
// It is append-only on the request path: operations are recorded, never read
// back to answer a request.
type HistoryRepository interface {
	AddOperation(ctx context.Context, record model.OperationRecord) error
	ListOperations(ctx context.Context) ([]model.OperationRecord, error)
}
