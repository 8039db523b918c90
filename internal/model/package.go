package model

import (
	"fmt"
	"unicode"
)

// ExecResult is the normalized outcome of one package manager subprocess
// invocation. It is created once per invocation and consumed immediately by
// the caller to decide success or failure.
type ExecResult struct {
	// Stdout is the captured standard output (empty if the process wrote none).
	Stdout string
	// Stderr is the captured standard error (empty if the process wrote none).
	Stderr string
	// ExitCode is the process exit code. 0 means success, everything else is
	// a failure the caller classifies with Stdout/Stderr as diagnostics.
	ExitCode int
}

// Success reports whether the invocation exited with code 0.
func (r ExecResult) Success() bool { return r.ExitCode == 0 }

// InstallRequest asks for the installation of the latest version of a package.
type InstallRequest struct {
	// Package is the exact package name.
	Package string
	// Repository optionally scopes the installation to a single repository
	// (URL for apk, sources.list path for apt).
	Repository string
}

// Validate validates the install request.
func (r InstallRequest) Validate() error {
	if r.Package == "" {
		return fmt.Errorf("package name is required: %w", ErrNotValid)
	}
	return nil
}

// VersionedInstallRequest asks for the installation of an exact version of a
// package, resolved across the known repositories.
type VersionedInstallRequest struct {
	Package string
	Version string
}

// Validate validates the versioned install request.
func (r VersionedInstallRequest) Validate() error {
	if r.Package == "" {
		return fmt.Errorf("package name is required: %w", ErrNotValid)
	}
	if r.Version == "" {
		return fmt.Errorf("version is required: %w", ErrNotValid)
	}
	return nil
}

// SearchRequest asks for the packages matching a query.
type SearchRequest struct {
	Query string
	// Repository optionally narrows the search to a single repository instead
	// of the full known repository list.
	Repository string
}

// Validate validates the search request.
func (r SearchRequest) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("query is required: %w", ErrNotValid)
	}
	return nil
}

// ValidCommandInput reports whether s contains only characters that are safe
// to interpolate into a package manager invocation: alphanumerics, dots,
// hyphens, underscores, plus signs, and any extra runes given by the backend
// (e.g. apt allows ':' in package names and '~' in versions).
//
// Inputs must pass this whitelist before any subprocess is built from them.
func ValidCommandInput(s string, extra ...rune) bool {
	if s == "" {
		return false
	}

	for _, c := range s {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			continue
		}
		switch c {
		case '.', '-', '_', '+':
			continue
		}

		allowed := false
		for _, e := range extra {
			if c == e {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	return true
}
