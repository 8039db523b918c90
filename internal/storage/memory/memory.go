package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/slok/pkgmcp/internal/log"
	"github.com/slok/pkgmcp/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.HistoryRepository.
// Records are lost when the process exits.
type Repository struct {
	operations []model.OperationRecord
	mu         sync.RWMutex
	logger     log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{logger: cfg.Logger}, nil
}

// AddOperation appends an operation record.
func (r *Repository) AddOperation(ctx context.Context, record model.OperationRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.operations = append(r.operations, record)
	r.logger.Debugf("Recorded %s operation %s", record.Operation, record.ID)

	return nil
}

// ListOperations returns all the recorded operations in insertion order.
func (r *Repository) ListOperations(ctx context.Context) ([]model.OperationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]model.OperationRecord, len(r.operations))
	copy(records, r.operations)

	return records, nil
}
