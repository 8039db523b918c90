package listinstalled

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

// ServiceConfig is the configuration for the list installed service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.ListInstalled"})
	return nil
}

// Service lists the installed packages.
type Service struct {
	manager pkgmanager.Manager
	history storage.HistoryRepository
	logger  log.Logger
}

// NewService creates a new list installed service.
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

// Run lists the installed packages and records the operation.
func (s *Service) Run(ctx context.Context) (*model.ExecResult, error) {
	result, err := s.manager.ListInstalled(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list installed packages: %w", err)
	}

	record := model.OperationRecord{
		ID:        ulid.Make().String(),
		Operation: model.OperationListInstalled,
		Backend:   s.manager.Name(),
		ExitCode:  result.ExitCode,
		Success:   result.Success(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.history.AddOperation(ctx, record); err != nil {
		s.logger.Warningf("Could not record list installed operation: %s", err)
	}

	return result, nil
}
