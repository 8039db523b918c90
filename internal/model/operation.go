package model

import (
	"fmt"
	"time"
)

// Operation identifies the kind of a package manager operation.
type Operation string

const (
	// OperationInstall is a latest-version package installation.
	OperationInstall Operation = "install"
	// OperationInstallVersion is an exact-version package installation.
	OperationInstallVersion Operation = "install-version"
	// OperationSearch is a package search.
	OperationSearch Operation = "search"
	// OperationListInstalled is a listing of the installed packages.
	OperationListInstalled Operation = "list-installed"
	// OperationRefresh is a repository index refresh.
	OperationRefresh Operation = "refresh"
)

// OperationRecord is an append-only audit entry of one executed package
// operation. Records are write-only state: nothing reads them back on the
// request path, so operation results are never served from them.
type OperationRecord struct {
	ID        string
	Operation Operation
	Backend   string
	Package   string
	Version   string
	Query     string
	ExitCode  int
	Success   bool
	CreatedAt time.Time
}

// Validate validates the operation record.
func (r OperationRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required: %w", ErrNotValid)
	}
	if r.Operation == "" {
		return fmt.Errorf("operation is required: %w", ErrNotValid)
	}
	if r.Backend == "" {
		return fmt.Errorf("backend is required: %w", ErrNotValid)
	}
	return nil
}
