package io

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/slok/pkgmcp/internal/model"
)

// ServerConfig is the validated server configuration loaded from a YAML file.
type ServerConfig struct {
	// Backend forces a package manager family ("apk" or "apt"), empty means
	// autodetect from the host marker files.
	Backend string
	// Repositories overrides the default repository list scanned by the apk
	// backend searches and the version resolver.
	Repositories []string
}

// ConfigYAMLRepository loads server configuration from YAML files.
type ConfigYAMLRepository struct {
	fs fs.FS
}

// NewConfigYAMLRepository creates a new YAML config repository.
func NewConfigYAMLRepository(filesystem fs.FS) *ConfigYAMLRepository {
	return &ConfigYAMLRepository{fs: filesystem}
}

// GetConfig loads the server configuration from a YAML file and returns it
// validated.
func (r *ConfigYAMLRepository) GetConfig(ctx context.Context, path string) (ServerConfig, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("reading config file: %w", err)
	}

	if ctx.Err() != nil {
		return ServerConfig{}, ctx.Err()
	}

	var cfg serverConfigYAML
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return ServerConfig{
		Backend:      cfg.Backend,
		Repositories: cfg.Repositories,
	}, nil
}

// serverConfigYAML represents the YAML structure of the server configuration.
type serverConfigYAML struct {
	Backend      string   `yaml:"backend"`
	Repositories []string `yaml:"repositories"`
}

func (c serverConfigYAML) validate() error {
	switch c.Backend {
	case "", "apk", "apt":
	default:
		return fmt.Errorf("unknown backend %q (must be apk or apt): %w", c.Backend, model.ErrNotValid)
	}

	for _, repo := range c.Repositories {
		u, err := url.Parse(repo)
		if err != nil || !strings.HasPrefix(u.Scheme, "http") || u.Host == "" {
			return fmt.Errorf("repository %q is not a valid http(s) URL: %w", repo, model.ErrNotValid)
		}
	}

	return nil
}
