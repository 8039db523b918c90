package apk

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/slok/pkgmcp/internal/log"
	"github.com/slok/pkgmcp/internal/model"
	"github.com/slok/pkgmcp/internal/pkgmanager"
)

const apkBinary = "apk"

// SearchRepositories is the ordered list of Alpine repositories scanned when
// no explicit repository is given. The order is fixed: newest first, then the
// stable releases from current to oldest.
var SearchRepositories = []string{
	"https://dl-cdn.alpinelinux.org/alpine/edge/main",
	"https://dl-cdn.alpinelinux.org/alpine/edge/community",
	// Current version.
	"https://dl-cdn.alpinelinux.org/alpine/v3.22/main",
	"https://dl-cdn.alpinelinux.org/alpine/v3.22/community",
	// Older versions.
	"https://dl-cdn.alpinelinux.org/alpine/v3.21/main",
	"https://dl-cdn.alpinelinux.org/alpine/v3.21/community",
	"https://dl-cdn.alpinelinux.org/alpine/v3.20/main",
	"https://dl-cdn.alpinelinux.org/alpine/v3.20/community",
	"https://dl-cdn.alpinelinux.org/alpine/v3.19/main",
	"https://dl-cdn.alpinelinux.org/alpine/v3.19/community",
	"https://dl-cdn.alpinelinux.org/alpine/v3.18/main",
	"https://dl-cdn.alpinelinux.org/alpine/v3.18/community",
	"https://dl-cdn.alpinelinux.org/alpine/v3.17/main",
	"https://dl-cdn.alpinelinux.org/alpine/v3.17/community",
	"https://dl-cdn.alpinelinux.org/alpine/v3.16/main",
	"https://dl-cdn.alpinelinux.org/alpine/v3.16/community",
	"https://dl-cdn.alpinelinux.org/alpine/v3.15/main",
	"https://dl-cdn.alpinelinux.org/alpine/v3.15/community",
}

// ManagerConfig is the configuration for the APK manager.
type ManagerConfig struct {
	Runner pkgmanager.Runner
	// Repositories overrides the default repository list (optional).
	Repositories []string
	Logger       log.Logger
}

func (c *ManagerConfig) defaults() error {
	if c.Runner == nil {
		return fmt.Errorf("runner is required")
	}
	if len(c.Repositories) == 0 {
		c.Repositories = SearchRepositories
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "pkgmanager.APK"})
	return nil
}

// Manager is the Alpine Linux implementation of pkgmanager.Manager, backed by
// the apk binary.
type Manager struct {
	runner pkgmanager.Runner
	repos  []string
	logger log.Logger
}

// NewManager creates a new APK manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Manager{
		runner: cfg.Runner,
		repos:  cfg.Repositories,
		logger: cfg.Logger,
	}, nil
}

// Name returns the package manager name.
func (m *Manager) Name() string { return "APK" }

// OSName returns the OS family name.
func (m *Manager) OSName() string { return "Alpine Linux" }

// Install installs the latest version of a package with `apk add`.
func (m *Manager) Install(ctx context.Context, req model.InstallRequest) (*model.ExecResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	args := []string{"add"}
	if req.Repository != "" {
		args = append(args, "--repository", req.Repository)
	}
	args = append(args, req.Package)

	result, err := m.runner.Run(ctx, pkgmanager.Command{Path: apkBinary, Args: args})
	if err != nil {
		return nil, fmt.Errorf("could not install package %q: %w", req.Package, err)
	}

	return result, nil
}

// Search searches packages with an exact-match query, either in the given
// repository or across the full known repository list.
func (m *Manager) Search(ctx context.Context, req model.SearchRequest) (*model.ExecResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	args := []string{"--no-cache"}
	if req.Repository != "" {
		args = append(args, "--repository", req.Repository)
	} else {
		for _, repo := range m.repos {
			args = append(args, "--repository", repo)
		}
	}
	args = append(args, "search", "--exact", "--all", req.Query)

	result, err := m.runner.Run(ctx, pkgmanager.Command{Path: apkBinary, Args: args})
	if err != nil {
		return nil, fmt.Errorf("could not search packages with query %q: %w", req.Query, err)
	}

	return result, nil
}

// ListInstalled lists the installed packages with `apk list -I`.
func (m *Manager) ListInstalled(ctx context.Context) (*model.ExecResult, error) {
	result, err := m.runner.Run(ctx, pkgmanager.Command{Path: apkBinary, Args: []string{"list", "-I"}})
	if err != nil {
		return nil, fmt.Errorf("could not list installed packages: %w", err)
	}

	return result, nil
}

// Refresh refreshes the repository indexes with `apk update`.
func (m *Manager) Refresh(ctx context.Context) (*model.ExecResult, error) {
	result, err := m.runner.Run(ctx, pkgmanager.Command{Path: apkBinary, Args: []string{"update"}})
	if err != nil {
		return nil, fmt.Errorf("could not refresh repositories: %w", err)
	}

	return result, nil
}

// InstallVersion resolves the exact version of a package across the known
// repositories and installs it when available.
//
// apk has no single fast exact-version-across-repositories lookup, so the
// resolver searches all repositories, collects the version candidates whose
// lines start with "<package>-" (anchored on the hyphen right after the exact
// name, so "curl" never matches "curl-extra-..."), and only installs when the
// requested version is among them.
func (m *Manager) InstallVersion(ctx context.Context, req model.VersionedInstallRequest) (*model.ExecResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	// Whitelist both inputs before they reach any command line.
	if !model.ValidCommandInput(req.Package) {
		return nil, fmt.Errorf("invalid package name %q, only alphanumeric characters, dots, hyphens, underscores and plus signs are allowed: %w", req.Package, model.ErrNotValid)
	}
	if !model.ValidCommandInput(req.Version) {
		return nil, fmt.Errorf("invalid version %q, only alphanumeric characters, dots, hyphens, underscores and plus signs are allowed: %w", req.Version, model.ErrNotValid)
	}

	// Check availability with an exact search across all repositories.
	searchResult, err := m.Search(ctx, model.SearchRequest{Query: req.Package})
	if err != nil {
		return nil, err
	}

	foundVersions := []string{}
	versionFound := false
	prefix := req.Package + "-"
	for _, line := range strings.Split(searchResult.Stdout, "\n") {
		// `fetch` progress lines are noise, not search results.
		if strings.HasPrefix(line, "fetch ") || strings.TrimSpace(line) == "" {
			continue
		}

		version, ok := strings.CutPrefix(line, prefix)
		if !ok {
			continue
		}
		// Anchor the match at the hyphen right after the exact name: the
		// remainder must be a version (starts with a digit), otherwise the
		// line belongs to a longer package name like "curl-extra-...".
		if version == "" || version[0] < '0' || version[0] > '9' {
			continue
		}

		foundVersions = append(foundVersions, version)
		if version == req.Version {
			versionFound = true
		}
	}

	m.logger.Debugf("Found %d version candidates for package %q", len(foundVersions), req.Package)

	if versionFound {
		// Install pinned to the exact version, scanning all repositories so
		// apk can locate the owning one.
		args := []string{"add"}
		for _, repo := range m.repos {
			args = append(args, "--repository", repo)
		}
		args = append(args, fmt.Sprintf("%s=%s", req.Package, req.Version))

		result, err := m.runner.Run(ctx, pkgmanager.Command{Path: apkBinary, Args: args})
		if err != nil {
			return nil, fmt.Errorf("could not install package %s=%s: %w", req.Package, req.Version, err)
		}

		return result, nil
	}

	if len(foundVersions) == 0 {
		return nil, model.PackageNotFoundError{Package: req.Package, Repositories: m.repos}
	}

	slices.Sort(foundVersions)
	foundVersions = slices.Compact(foundVersions)

	return nil, model.VersionNotFoundError{
		Package:   req.Package,
		Version:   req.Version,
		Available: foundVersions,
	}
}
