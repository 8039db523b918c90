package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/pkgmcp/internal/log"
	"github.com/slok/pkgmcp/internal/model"
	"github.com/slok/pkgmcp/internal/pkgmanager"
	"github.com/slok/pkgmcp/internal/storage"
)

// ServiceConfig is the configuration for the search service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Search"})
	return nil
}

// Service searches packages.
type Service struct {
	manager pkgmanager.Manager
	history storage.HistoryRepository
	logger  log.Logger
}

// NewService creates a new search service.
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

// Request contains the parameters for searching packages.
type Request struct {
	Query      string
	Repository string
}

// Run searches packages and records the operation. On success the returned
// Stdout contains only matching lines: repository fetch-progress noise is
// stripped, it is not a search result.
func (s *Service) Run(ctx context.Context, req Request) (*model.ExecResult, error) {
	searchReq := model.SearchRequest{Query: req.Query, Repository: req.Repository}
	if err := searchReq.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	result, err := s.manager.Search(ctx, searchReq)
	if err != nil {
		return nil, fmt.Errorf("could not search packages: %w", err)
	}

	if result.Success() {
		result.Stdout = stripFetchLines(result.Stdout)
	}

	record := model.OperationRecord{
		ID:        ulid.Make().String(),
		Operation: model.OperationSearch,
		Backend:   s.manager.Name(),
		Query:     req.Query,
		ExitCode:  result.ExitCode,
		Success:   result.Success(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.history.AddOperation(ctx, record); err != nil {
		s.logger.Warningf("Could not record search operation: %s", err)
	}

	return result, nil
}

func stripFetchLines(out string) string {
	if out == "" {
		return out
	}

	kept := []string{}
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "fetch ") {
			continue
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}
