package install

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

// ServiceConfig is the configuration for the install service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Install"})
	return nil
}

// Service installs the latest version of a package.
type Service struct {
	manager pkgmanager.Manager
	history storage.HistoryRepository
	logger  log.Logger
}

// NewService creates a new install service.
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

// Request contains the parameters for installing a package.
type Request struct {
	Package    string
	Repository string
}

// Run installs a package and records the operation.
func (s *Service) Run(ctx context.Context, req Request) (*model.ExecResult, error) {
	installReq := model.InstallRequest{Package: req.Package, Repository: req.Repository}
	if err := installReq.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	result, err := s.manager.Install(ctx, installReq)
	if err != nil {
		return nil, fmt.Errorf("could not install package: %w", err)
	}

	// History is an audit trail, a failed write never fails the operation.
	record := model.OperationRecord{
		ID:        ulid.Make().String(),
		Operation: model.OperationInstall,
		Backend:   s.manager.Name(),
		Package:   req.Package,
		ExitCode:  result.ExitCode,
		Success:   result.Success(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.history.AddOperation(ctx, record); err != nil {
		s.logger.Warningf("Could not record install operation: %s", err)
	}

	s.logger.Debugf("Installed package %q (exit code %d)", req.Package, result.ExitCode)

	return result, nil
}
