package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/slok/pkgmcp/internal/log"
	"github.com/slok/pkgmcp/internal/pkgmanager"
)

// ServerConfig is the configuration for the MCP server.
type ServerConfig struct {
	ListenAddr string
	Version    string
	Manager    pkgmanager.Manager
	Services   Services
	Logger     log.Logger
}

func (c *ServerConfig) defaults() error {
	if c.ListenAddr == "" {
		c.ListenAddr = "0.0.0.0:8090"
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.Manager == nil {
		return fmt.Errorf("manager is required")
	}
	if err := c.Services.validate(); err != nil {
		return err
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "mcpserver.Server"})
	return nil
}

// Server serves the package manager tools over MCP streamable HTTP on the
// "/mcp" endpoint.
type Server struct {
	httpServer *server.StreamableHTTPServer
	listenAddr string
	logger     log.Logger
}

// NewServer creates a new MCP server wiring the tool definitions of the
// active backend to the tool call handler.
func NewServer(cfg ServerConfig) (*Server, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	handler, err := NewHandler(HandlerConfig{
		ManagerName: cfg.Manager.Name(),
		Services:    cfg.Services,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create handler: %w", err)
	}

	mcpServer := server.NewMCPServer("pkgmcp", cfg.Version,
		server.WithInstructions(serverInstructions(cfg.Manager)),
		server.WithToolCapabilities(false),
	)
	for _, tool := range newTools(cfg.Manager) {
		mcpServer.AddTool(tool, handler.Handle)
	}

	return &Server{
		httpServer: server.NewStreamableHTTPServer(mcpServer,
			server.WithEndpointPath("/mcp"),
		),
		listenAddr: cfg.ListenAddr,
		logger:     cfg.Logger,
	}, nil
}

// Run starts the server and blocks until ctx is cancelled. It performs a
// graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("MCP server listening on %s%s", s.listenAddr, "/mcp")
		if err := s.httpServer.Start(s.listenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("MCP server error: %w", err)
	case <-ctx.Done():
		s.logger.Infof("shutting down MCP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("MCP server shutdown error: %w", err)
		}
		return nil
	}
}
