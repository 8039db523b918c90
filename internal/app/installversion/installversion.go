package installversion

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

// ServiceConfig is the configuration for the versioned install service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.InstallVersion"})
	return nil
}

// Service installs an exact version of a package, resolving it across the
// known repositories first.
type Service struct {
	manager pkgmanager.Manager
	history storage.HistoryRepository
	logger  log.Logger
}

// NewService creates a new versioned install service.
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

// Request contains the parameters for installing an exact package version.
type Request struct {
	Package string
	Version string
}

// Run resolves and installs an exact package version and records the
// operation. Resolution failures (validation, package not found, version not
// found) are returned as-is so callers can render their payloads.
func (s *Service) Run(ctx context.Context, req Request) (*model.ExecResult, error) {
	installReq := model.VersionedInstallRequest{Package: req.Package, Version: req.Version}
	if err := installReq.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	result, err := s.manager.InstallVersion(ctx, installReq)
	if err != nil {
		return nil, err
	}

	record := model.OperationRecord{
		ID:        ulid.Make().String(),
		Operation: model.OperationInstallVersion,
		Backend:   s.manager.Name(),
		Package:   req.Package,
		Version:   req.Version,
		ExitCode:  result.ExitCode,
		Success:   result.Success(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.history.AddOperation(ctx, record); err != nil {
		s.logger.Warningf("Could not record versioned install operation: %s", err)
	}

	s.logger.Debugf("Installed package %s=%s (exit code %d)", req.Package, req.Version, result.ExitCode)

	return result, nil
}
