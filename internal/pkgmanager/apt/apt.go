package apt

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/slok/pkgmcp/internal/log"
	"github.com/slok/pkgmcp/internal/model"
	"github.com/slok/pkgmcp/internal/pkgmanager"
)

const (
	aptGetBinary   = "apt-get"
	aptCacheBinary = "apt-cache"
	aptBinary      = "apt"
)

// noninteractiveEnv avoids debconf prompts blocking unattended installs.
var noninteractiveEnv = map[string]string{"DEBIAN_FRONTEND": "noninteractive"}

// systemSources describes where apt searches: apt has no per-request
// repository scanning, it always uses the system-configured sources.
const systemSources = "system APT sources (/etc/apt/sources.list)"

// aptExtraRunes are the extra whitelisted characters on top of the common
// set: colons appear in package names ("libc6:amd64"), tildes in versions
// ("1.0~beta1").
var aptExtraRunes = []rune{':', '~'}

// ManagerConfig is the configuration for the APT manager.
type ManagerConfig struct {
	Runner pkgmanager.Runner
	Logger log.Logger
}

func (c *ManagerConfig) defaults() error {
	if c.Runner == nil {
		return fmt.Errorf("runner is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "pkgmanager.APT"})
	return nil
}

// Manager is the Debian/Debian-derivative implementation of
// pkgmanager.Manager, backed by apt-get/apt-cache.
type Manager struct {
	runner pkgmanager.Runner
	logger log.Logger
}

// NewManager creates a new APT manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Manager{
		runner: cfg.Runner,
		logger: cfg.Logger,
	}, nil
}

// Name returns the package manager name.
func (m *Manager) Name() string { return "APT" }

// OSName returns the OS family name.
func (m *Manager) OSName() string { return "Debian/Debian-derivative" }

// Install installs the latest version of a package with `apt-get install -y`.
func (m *Manager) Install(ctx context.Context, req model.InstallRequest) (*model.ExecResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	args := []string{"install", "-y"}
	if req.Repository != "" {
		// apt takes an alternate sources.list file instead of a mirror URL.
		args = append(args, "-o", fmt.Sprintf("Dir::Etc::sourcelist=%s", req.Repository))
	}
	args = append(args, req.Package)

	result, err := m.runner.Run(ctx, pkgmanager.Command{Path: aptGetBinary, Args: args, Env: noninteractiveEnv})
	if err != nil {
		return nil, fmt.Errorf("could not install package %q: %w", req.Package, err)
	}

	return result, nil
}

// Search searches packages with `apt-cache search`. apt does not support
// scoping a search to a custom repository, the system sources are always
// used and the Repository field is ignored.
func (m *Manager) Search(ctx context.Context, req model.SearchRequest) (*model.ExecResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	result, err := m.runner.Run(ctx, pkgmanager.Command{Path: aptCacheBinary, Args: []string{"search", req.Query}})
	if err != nil {
		return nil, fmt.Errorf("could not search packages with query %q: %w", req.Query, err)
	}

	return result, nil
}

// ListInstalled lists the installed packages with `apt list --installed`.
func (m *Manager) ListInstalled(ctx context.Context) (*model.ExecResult, error) {
	result, err := m.runner.Run(ctx, pkgmanager.Command{Path: aptBinary, Args: []string{"list", "--installed"}})
	if err != nil {
		return nil, fmt.Errorf("could not list installed packages: %w", err)
	}

	return result, nil
}

// Refresh refreshes the repository indexes with `apt-get update`.
func (m *Manager) Refresh(ctx context.Context) (*model.ExecResult, error) {
	result, err := m.runner.Run(ctx, pkgmanager.Command{Path: aptGetBinary, Args: []string{"update"}, Env: noninteractiveEnv})
	if err != nil {
		return nil, fmt.Errorf("could not refresh repositories: %w", err)
	}

	return result, nil
}

// InstallVersion resolves the exact version of a package with
// `apt-cache madison` and installs it when available.
//
// The contract is strict found-or-reject, same as the APK resolver: when
// madison yields no candidates at all the package is reported as not found,
// it is never installed "anyway".
func (m *Manager) InstallVersion(ctx context.Context, req model.VersionedInstallRequest) (*model.ExecResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	if !model.ValidCommandInput(req.Package, aptExtraRunes...) {
		return nil, fmt.Errorf("invalid package name %q, only alphanumeric characters, dots, hyphens, underscores, plus signs and colons are allowed: %w", req.Package, model.ErrNotValid)
	}
	if !model.ValidCommandInput(req.Version, aptExtraRunes...) {
		return nil, fmt.Errorf("invalid version %q, only alphanumeric characters, dots, hyphens, underscores, plus signs, colons and tildes are allowed: %w", req.Version, model.ErrNotValid)
	}

	madison, err := m.runner.Run(ctx, pkgmanager.Command{Path: aptCacheBinary, Args: []string{"madison", req.Package}})
	if err != nil {
		return nil, fmt.Errorf("could not check versions for package %q: %w", req.Package, err)
	}

	foundVersions := []string{}
	versionFound := false
	if madison.Success() {
		for _, line := range strings.Split(madison.Stdout, "\n") {
			// madison output format: `package | version | source`.
			parts := strings.Split(line, "|")
			if len(parts) < 2 {
				continue
			}

			version := strings.TrimSpace(parts[1])
			foundVersions = append(foundVersions, version)
			if version == req.Version {
				versionFound = true
			}
		}
	}

	m.logger.Debugf("Found %d version candidates for package %q", len(foundVersions), req.Package)

	if versionFound {
		args := []string{"install", "-y", fmt.Sprintf("%s=%s", req.Package, req.Version)}

		result, err := m.runner.Run(ctx, pkgmanager.Command{Path: aptGetBinary, Args: args, Env: noninteractiveEnv})
		if err != nil {
			return nil, fmt.Errorf("could not install package %s=%s: %w", req.Package, req.Version, err)
		}

		return result, nil
	}

	if len(foundVersions) == 0 {
		return nil, model.PackageNotFoundError{Package: req.Package, Repositories: []string{systemSources}}
	}

	slices.Sort(foundVersions)
	foundVersions = slices.Compact(foundVersions)

	return nil, model.VersionNotFoundError{
		Package:   req.Package,
		Version:   req.Version,
		Available: foundVersions,
	}
}
