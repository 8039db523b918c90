// Package mcpserver exposes the package manager operations as MCP tools over
// a streamable HTTP transport.
package mcpserver

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/slok/pkgmcp/internal/pkgmanager"
)

// Tool names are the wire contract, clients dispatch on them.
const (
	toolInstallPackage            = "install_package"
	toolInstallPackageWithVersion = "install_package_with_version"
	toolRefreshRepositories       = "refresh_repositories"
	toolListInstalledPackages     = "list_installed_packages"
	toolSearchPackage             = "search_package"
)

// serverInstructions describes the server to MCP clients in terms of the
// active backend.
func serverInstructions(m pkgmanager.Manager) string {
	return fmt.Sprintf(
		"This MCP server provides %[1]s package management capabilities through the %[2]s package manager. "+
			"Use this server to search for, install, update, list installed packages, and manage packages on %[1]s systems. "+
			"The server executes %[2]s commands with appropriate error handling and provides detailed feedback on operations.",
		m.OSName(), m.Name())
}

// newTools builds the five tool definitions for the given backend. The
// descriptions and argument schemas are part of the client contract, change
// them only for a good reason.
func newTools(m pkgmanager.Manager) []mcp.Tool {
	pmName := m.Name()
	osName := m.OSName()
	isAPK := strings.ToLower(pmName) == "apk"

	installCmd := "apt-get install"
	refreshCmd := "apt-get update"
	listCmd := "apt list --installed"
	searchCmd := "apt-cache search"
	installRepoDesc := "Optional: Path to a custom sources.list file to use for package installation. If not provided, the system's default configured repositories will be used."
	searchRepoDesc := "Optional: This parameter is not used for APT searches. APT searches use the system's configured repositories."
	if isAPK {
		installCmd = "apk add"
		refreshCmd = "apk update"
		listCmd = "apk list -I"
		searchCmd = "apk search"
		installRepoDesc = "Optional: Custom repository URL to use for package installation. Use this when you need to install packages from non-standard repositories or specific Alpine mirrors. Format should be a valid APK repository URL (e.g., 'https://dl-cdn.alpinelinux.org/alpine/edge/testing'). If not provided, the system's default configured repositories will be used."
		searchRepoDesc = "Optional: Specific repository URL to search in. If not provided, the search will query across multiple Alpine repositories (edge, v3.22, v3.21, v3.20, etc.) to find all available versions of matching packages."
	}

	return []mcp.Tool{
		mcp.NewTool(toolInstallPackage,
			mcp.WithDescription(fmt.Sprintf(
				"Install %[1]s packages using the %[2]s package manager. This tool executes '%[3]s' commands with proper error handling. "+
					"Use this when you need to install the latest version of software packages, libraries, or development tools on %[1]s systems. "+
					"If you need to install a specific version, use the install_package_with_version tool.",
				osName, pmName, installCmd)),
			mcp.WithString("package_name",
				mcp.Required(),
				mcp.Description(fmt.Sprintf(
					"The exact name of the %[1]s package to install (e.g., 'curl', 'python3', 'git'). "+
						"Package names are case-sensitive and should match the official package names in %[1]s repositories. "+
						"Multiple packages can be specified by calling this tool multiple times.",
					osName)),
			),
			mcp.WithString("repository",
				mcp.Description(installRepoDesc),
			),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithOpenWorldHintAnnotation(true),
		),

		mcp.NewTool(toolInstallPackageWithVersion,
			mcp.WithDescription(fmt.Sprintf(
				"Install a specific version of a %[1]s package. This tool searches %[1]s repositories to find the requested package version, "+
					"then installs it using exact version matching. Use this when you need to install a specific version of a package rather than the latest available version.",
				osName)),
			mcp.WithString("package_name",
				mcp.Required(),
				mcp.Description(fmt.Sprintf(
					"The exact name of the %[1]s package to install (e.g., 'curl', 'python3', 'git'). "+
						"Package names are case-sensitive and should match the official package names in %[1]s repositories.",
					osName)),
			),
			mcp.WithString("version",
				mcp.Required(),
				mcp.Description(
					"The specific version of the package to install. The version string must match exactly as it appears in the repository. "+
						"If no exact match is found, the tool will return a list of available versions."),
			),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithOpenWorldHintAnnotation(true),
		),

		mcp.NewTool(toolRefreshRepositories,
			mcp.WithDescription(fmt.Sprintf(
				"Refresh registered repository indexes using '%s'. This tool synchronizes the local package database with remote repositories, "+
					"ensuring you have access to the latest package information and versions. Use this before installing packages to get the most up-to-date package lists.",
				refreshCmd)),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithOpenWorldHintAnnotation(true),
		),

		mcp.NewTool(toolListInstalledPackages,
			mcp.WithDescription(fmt.Sprintf(
				"List all installed packages on %s using '%s'. This tool shows all packages currently installed on the system with their versions. "+
					"Use this to audit installed software, check package versions, or verify installations.",
				osName, listCmd)),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithOpenWorldHintAnnotation(false),
		),

		mcp.NewTool(toolSearchPackage,
			mcp.WithDescription(fmt.Sprintf(
				"Search for %s packages using the %s package manager. This tool executes '%s' commands to find packages matching your query. "+
					"Use this when you need to discover available packages, find package names, or explore what software is available.",
				osName, pmName, searchCmd)),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description(
					"Package name pattern to search for. Use exact package names (e.g., 'ruby', 'python3') or patterns to match multiple packages. "+
						"If you don't know the package name, try with specific package names first to avoid excessive output."),
			),
			mcp.WithString("repository",
				mcp.Description(searchRepoDesc),
			),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithOpenWorldHintAnnotation(true),
		),
	}
}
