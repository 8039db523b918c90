package pkgmanager

import (
	"context"

	"github.com/slok/pkgmcp/internal/model"
)

// Command is a single package manager subprocess invocation built by a
// backend: binary path, argument vector and extra environment variables.
// Arguments are always passed as an argv, never through a shell.
type Command struct {
	Path string
	Args []string
	Env  map[string]string
}

// Runner executes package manager commands and normalizes their outcome.
type Runner interface {
	// Run executes the command and returns its captured output and exit code.
	// A returned error means the process could not be started at all
	// (binary missing, permissions...), not that it exited non-zero.
	Run(ctx context.Context, cmd Command) (*model.ExecResult, error)
}

// Manager is the package manager capability set, implemented once per OS
// family. Implementations translate logical operations into subprocess
// invocations and never classify non-zero exit codes themselves.
type Manager interface {
	// Name returns the package manager name (e.g. "APK", "APT").
	Name() string
	// OSName returns the OS family name (e.g. "Alpine Linux").
	OSName() string
	// Install installs the latest version of a package.
	Install(ctx context.Context, req model.InstallRequest) (*model.ExecResult, error)
	// InstallVersion resolves an exact package version across the known
	// repositories and installs it. It fails with model.ErrNotValid when the
	// inputs violate the whitelist-character policy, with
	// model.PackageNotFoundError when no candidate exists anywhere, and with
	// model.VersionNotFoundError when candidates exist but none matches.
	InstallVersion(ctx context.Context, req model.VersionedInstallRequest) (*model.ExecResult, error)
	// Search searches for packages matching a query.
	Search(ctx context.Context, req model.SearchRequest) (*model.ExecResult, error)
	// ListInstalled lists the installed packages.
	ListInstalled(ctx context.Context) (*model.ExecResult, error)
	// Refresh refreshes the repository indexes.
	Refresh(ctx context.Context) (*model.ExecResult, error)
}
