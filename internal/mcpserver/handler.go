package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/slok/pkgmcp/internal/app/install"
	"github.com/slok/pkgmcp/internal/app/installversion"
	"github.com/slok/pkgmcp/internal/app/listinstalled"
	"github.com/slok/pkgmcp/internal/app/refresh"
	"github.com/slok/pkgmcp/internal/app/search"
	"github.com/slok/pkgmcp/internal/log"
	"github.com/slok/pkgmcp/internal/model"
)

// Services groups the application services the handler dispatches to.
type Services struct {
	Install        *install.Service
	InstallVersion *installversion.Service
	Search         *search.Service
	ListInstalled  *listinstalled.Service
	Refresh        *refresh.Service
}

func (s Services) validate() error {
	if s.Install == nil || s.InstallVersion == nil || s.Search == nil ||
		s.ListInstalled == nil || s.Refresh == nil {
		return fmt.Errorf("all application services are required")
	}
	return nil
}

// HandlerConfig is the configuration for the tool call handler.
type HandlerConfig struct {
	ManagerName string
	Services    Services
	Logger      log.Logger
}

func (c *HandlerConfig) defaults() error {
	if c.ManagerName == "" {
		return fmt.Errorf("manager name is required")
	}
	if err := c.Services.validate(); err != nil {
		return err
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "mcpserver.Handler"})
	return nil
}

// Handler maps named tool calls to application services and renders their
// results as tool call results. All failures come back as structured error
// results with a human-readable message plus a JSON diagnostic payload,
// never as a silent no-op.
type Handler struct {
	managerName string
	services    Services
	logger      log.Logger
}

// NewHandler creates a new tool call handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Handler{
		managerName: cfg.ManagerName,
		services:    cfg.Services,
		logger:      cfg.Logger,
	}, nil
}

// Handle dispatches a tool call by name. Required arguments are checked
// before anything runs, and an unknown tool name gets an explicit error
// result listing the available tools.
func (h *Handler) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.logger.Debugf("Handling tool call %q", req.Params.Name)

	switch req.Params.Name {
	case toolInstallPackage:
		return h.handleInstall(ctx, req)
	case toolInstallPackageWithVersion:
		return h.handleInstallVersion(ctx, req)
	case toolRefreshRepositories:
		return h.handleRefresh(ctx)
	case toolListInstalledPackages:
		return h.handleListInstalled(ctx)
	case toolSearchPackage:
		return h.handleSearch(ctx, req)
	}

	return mcp.NewToolResultError(fmt.Sprintf(
		"Unknown tool '%s'. Available tools: install_package, install_package_with_version, list_installed_packages, refresh_repositories, search_package",
		req.Params.Name)), nil
}

func (h *Handler) handleInstall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pkg, err := req.RequireString("package_name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: package_name"), nil
	}
	repository := req.GetString("repository", "")

	result, err := h.services.Install.Run(ctx, install.Request{Package: pkg, Repository: repository})
	if err != nil {
		if errors.Is(err, model.ErrNotValid) {
			return h.validationError(err, diagnostics{"package_name": pkg}), nil
		}
		return errorResult(
			fmt.Sprintf("System error while installing package '%s': %s. This may indicate %s is not available or there are permission issues.", pkg, err, h.managerName),
			diagnostics{
				"package_name": pkg,
				"error_type":   "system_error",
				"suggestion":   fmt.Sprintf("Ensure %s package manager is installed and you have sufficient privileges", h.managerName),
			}), nil
	}

	if result.Success() {
		return mcp.NewToolResultText(fmt.Sprintf("Package '%s' was installed successfully.", pkg)), nil
	}

	return errorResult(
		fmt.Sprintf("Failed to install package '%s' (exit code: %d)", pkg, result.ExitCode),
		h.execDiagnostics(result, diagnostics{"package_name": pkg})), nil
}

func (h *Handler) handleInstallVersion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pkg, err := req.RequireString("package_name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: package_name"), nil
	}
	version, err := req.RequireString("version")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: version"), nil
	}

	result, err := h.services.InstallVersion.Run(ctx, installversion.Request{Package: pkg, Version: version})
	if err != nil {
		return h.installVersionError(err, pkg, version), nil
	}

	if result.Success() {
		return mcp.NewToolResultText(fmt.Sprintf("Package '%s' version '%s' was installed successfully.", pkg, version)), nil
	}

	return errorResult(
		fmt.Sprintf("Failed to install package '%s' version '%s' (exit code: %d)", pkg, version, result.ExitCode),
		h.execDiagnostics(result, diagnostics{"package_name": pkg, "version": version})), nil
}

// installVersionError renders the resolver failure modes, each with its own
// diagnostic payload.
func (h *Handler) installVersionError(err error, pkg, version string) *mcp.CallToolResult {
	var pkgErr model.PackageNotFoundError
	if errors.As(err, &pkgErr) {
		return errorResult(
			fmt.Sprintf("Package '%s' not found in any searched repository", pkg),
			diagnostics{
				"package_name":          pkg,
				"requested_version":     version,
				"error_type":            "package_not_found",
				"searched_repositories": pkgErr.Repositories,
			})
	}

	var verErr model.VersionNotFoundError
	if errors.As(err, &verErr) {
		return errorResult(
			fmt.Sprintf("Version '%s' of package '%s' not found. Available versions: %s",
				version, pkg, strings.Join(verErr.Available, ", ")),
			diagnostics{
				"package_name":       pkg,
				"requested_version":  version,
				"available_versions": verErr.Available,
				"error_type":         "version_not_found",
			})
	}

	if errors.Is(err, model.ErrNotValid) {
		return h.validationError(err, diagnostics{"package_name": pkg, "version": version})
	}

	return errorResult(
		fmt.Sprintf("System error while installing package '%s' version '%s': %s. This may indicate %s is not available or there are permission issues.", pkg, version, err, h.managerName),
		diagnostics{
			"package_name": pkg,
			"version":      version,
			"error_type":   "system_error",
			"suggestion":   fmt.Sprintf("Ensure %s package manager is installed and you have sufficient privileges", h.managerName),
		})
}

func (h *Handler) handleRefresh(ctx context.Context) (*mcp.CallToolResult, error) {
	result, err := h.services.Refresh.Run(ctx)
	if err != nil {
		return errorResult(
			fmt.Sprintf("System error while refreshing repositories: %s. This may indicate %s is not available or there are permission issues.", err, h.managerName),
			diagnostics{
				"error_type": "system_error",
				"suggestion": fmt.Sprintf("Ensure %s package manager is installed and you have sufficient privileges", h.managerName),
			}), nil
	}

	if result.Success() {
		return mcp.NewToolResultText("All repositories were refreshed successfully."), nil
	}

	return errorResult(
		fmt.Sprintf("Failed to refresh repositories (exit code: %d)", result.ExitCode),
		h.execDiagnostics(result, diagnostics{})), nil
}

func (h *Handler) handleListInstalled(ctx context.Context) (*mcp.CallToolResult, error) {
	result, err := h.services.ListInstalled.Run(ctx)
	if err != nil {
		return errorResult(
			fmt.Sprintf("System error while listing packages: %s", err),
			diagnostics{
				"error_type": "system_error",
				"suggestion": fmt.Sprintf("Ensure %s package manager is available", h.managerName),
			}), nil
	}

	if result.Success() {
		return mcp.NewToolResultText(fmt.Sprintf("Installed packages:\n%s", result.Stdout)), nil
	}

	return errorResult(
		fmt.Sprintf("Failed to list installed packages (exit code: %d)", result.ExitCode),
		h.execDiagnostics(result, diagnostics{})), nil
}

func (h *Handler) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	repository := req.GetString("repository", "")

	result, err := h.services.Search.Run(ctx, search.Request{Query: query, Repository: repository})
	if err != nil {
		if errors.Is(err, model.ErrNotValid) {
			return h.validationError(err, diagnostics{"query": query}), nil
		}
		return errorResult(
			fmt.Sprintf("System error while searching for packages with query '%s': %s. This may indicate %s is not available or there are permission issues.", query, err, h.managerName),
			diagnostics{
				"query":      query,
				"error_type": "system_error",
				"suggestion": fmt.Sprintf("Ensure %s package manager is installed and you have sufficient privileges", h.managerName),
			}), nil
	}

	if result.Success() {
		if strings.TrimSpace(result.Stdout) == "" {
			return mcp.NewToolResultText(fmt.Sprintf("Search completed for query '%s' but no packages were found.", query)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Search results for query '%s':\n\n%s", query, result.Stdout)), nil
	}

	return errorResult(
		fmt.Sprintf("Failed to search for packages with query '%s' (exit code: %d)", query, result.ExitCode),
		h.execDiagnostics(result, diagnostics{"query": query})), nil
}

type diagnostics map[string]interface{}

// execDiagnostics extends a diagnostic payload with the subprocess result.
func (h *Handler) execDiagnostics(result *model.ExecResult, d diagnostics) diagnostics {
	d["exit_code"] = result.ExitCode
	d["package_manager"] = h.managerName
	if result.Stdout != "" {
		d["stdout"] = result.Stdout
	}
	if result.Stderr != "" {
		d["stderr"] = result.Stderr
	}
	return d
}

func (h *Handler) validationError(err error, d diagnostics) *mcp.CallToolResult {
	d["error_type"] = "validation_error"
	return errorResult(err.Error(), d)
}

// errorResult renders a failure as a tool error result: human-readable
// message first, machine-readable JSON payload after.
func errorResult(message string, d diagnostics) *mcp.CallToolResult {
	payload, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(message)
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s\n%s", message, payload))
}
