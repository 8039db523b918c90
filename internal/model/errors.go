package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
)

// PackageNotFoundError is returned by the version resolver when a package has
// no candidates in any of the searched repositories. It carries the full list
// of repositories that were scanned so the caller can report them.
type PackageNotFoundError struct {
	Package      string
	Repositories []string
}

func (e PackageNotFoundError) Error() string {
	return fmt.Sprintf("package %q not found in any searched repository", e.Package)
}

func (e PackageNotFoundError) Unwrap() error { return ErrNotFound }

// VersionNotFoundError is returned by the version resolver when candidates
// exist for a package but none matches the requested version. Available holds
// the sorted, deduplicated versions that were discovered.
type VersionNotFoundError struct {
	Package   string
	Version   string
	Available []string
}

func (e VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %q of package %q not found, available versions: %s",
		e.Version, e.Package, strings.Join(e.Available, ", "))
}

func (e VersionNotFoundError) Unwrap() error { return ErrNotFound }
