package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/pkgmcp/internal/log"
	"github.com/slok/pkgmcp/internal/model"
	"github.com/slok/pkgmcp/internal/pkgmanager"
	"github.com/slok/pkgmcp/internal/storage"
)

// ServiceConfig is the configuration for the refresh service.
type ServiceConfig struct {
	Manager pkgmanager.Manager
	History storage.HistoryRepository
	Logger  log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Manager == nil {
		return fmt.Errorf("manager is required")
	}
	if c.History == nil {
		return fmt.Errorf("history repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Refresh"})
	return nil
}

// Service refreshes the package repository indexes.
type Service struct {
	manager pkgmanager.Manager
	history storage.HistoryRepository
	logger  log.Logger
}

// NewService creates a new refresh service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		manager: cfg.Manager,
		history: cfg.History,
		logger:  cfg.Logger,
	}, nil
}

// Run refreshes the repository indexes and records the operation.
func (s *Service) Run(ctx context.Context) (*model.ExecResult, error) {
	result, err := s.manager.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not refresh repositories: %w", err)
	}

	record := model.OperationRecord{
		ID:        ulid.Make().String(),
		Operation: model.OperationRefresh,
		Backend:   s.manager.Name(),
		ExitCode:  result.ExitCode,
		Success:   result.Success(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.history.AddOperation(ctx, record); err != nil {
		s.logger.Warningf("Could not record refresh operation: %s", err)
	}

	return result, nil
}
