package pkgmanager

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/slok/pkgmcp/internal/model"
)

// Family identifies a supported package manager family.
type Family string

const (
	// FamilyAPK is the Alpine Linux family (apk).
	FamilyAPK Family = "apk"
	// FamilyAPT is the Debian/Debian-derivative family (apt).
	FamilyAPT Family = "apt"
)

const (
	alpineMarkerFile = "etc/alpine-release"
	debianMarkerFile = "etc/debian_version"
)

// Detect selects the package manager family of the host by probing the
// distribution marker files under root ("/" for the real host, any directory
// in tests). Absence of every known marker is an error: the server cannot
// start without a usable backend.
func Detect(root string) (Family, error) {
	if root == "" {
		root = "/"
	}

	if fileExists(filepath.Join(root, alpineMarkerFile)) {
		return FamilyAPK, nil
	}
	if fileExists(filepath.Join(root, debianMarkerFile)) {
		return FamilyAPT, nil
	}

	return "", fmt.Errorf("no supported package manager detected (missing %s and %s): %w",
		alpineMarkerFile, debianMarkerFile, model.ErrNotFound)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
