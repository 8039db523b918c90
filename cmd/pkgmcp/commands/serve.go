package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/pkgmcp/internal/app/install"
	"github.com/slok/pkgmcp/internal/app/installversion"
	"github.com/slok/pkgmcp/internal/app/listinstalled"
	"github.com/slok/pkgmcp/internal/app/refresh"
	"github.com/slok/pkgmcp/internal/app/search"
	"github.com/slok/pkgmcp/internal/mcpserver"
	"github.com/slok/pkgmcp/internal/pkgmanager"
	"github.com/slok/pkgmcp/internal/pkgmanager/apk"
	"github.com/slok/pkgmcp/internal/pkgmanager/apt"
	"github.com/slok/pkgmcp/internal/storage"
	storageio "github.com/slok/pkgmcp/internal/storage/io"
	"github.com/slok/pkgmcp/internal/storage/memory"
	"github.com/slok/pkgmcp/internal/storage/sqlite"
)

const backendAuto = "auto"

// ServeCommand runs the MCP package manager server.
type ServeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	host       string
	port       int
	backend    string
	configPath string
	noHistory  bool
}

// NewServeCommand returns the serve command.
func NewServeCommand(rootCmd *RootCommand, app *kingpin.Application) *ServeCommand {
	c := &ServeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("serve", "Serve package manager operations over MCP.")
	c.Cmd.Flag("host", "Listen host.").Default("0.0.0.0").StringVar(&c.host)
	c.Cmd.Flag("port", "Listen port.").Default("8090").IntVar(&c.port)
	c.Cmd.Flag("backend", "Package manager backend.").Default(backendAuto).EnumVar(&c.backend, backendAuto, string(pkgmanager.FamilyAPK), string(pkgmanager.FamilyAPT))
	c.Cmd.Flag("config", "Path to an optional YAML configuration file.").StringVar(&c.configPath)
	c.Cmd.Flag("no-history", "Keep the operation history in memory instead of SQLite.").BoolVar(&c.noHistory)

	return c
}

func (c ServeCommand) Name() string { return c.Cmd.FullCommand() }

func (c ServeCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Optional file configuration.
	var fileCfg storageio.ServerConfig
	if c.configPath != "" {
		repo := storageio.NewConfigYAMLRepository(os.DirFS(filepath.Dir(c.configPath)))
		cfg, err := repo.GetConfig(ctx, filepath.Base(c.configPath))
		if err != nil {
			return fmt.Errorf("could not load configuration file: %w", err)
		}
		fileCfg = cfg
	}

	// Select the backend: explicit flag, then config file, then host probe.
	family := pkgmanager.Family(c.backend)
	if c.backend == backendAuto {
		if fileCfg.Backend != "" {
			family = pkgmanager.Family(fileCfg.Backend)
		} else {
			detected, err := pkgmanager.Detect("/")
			if err != nil {
				return fmt.Errorf("could not detect package manager: %w", err)
			}
			family = detected
		}
	}

	runner := pkgmanager.NewOSRunner(logger)
	var manager pkgmanager.Manager
	switch family {
	case pkgmanager.FamilyAPK:
		m, err := apk.NewManager(apk.ManagerConfig{
			Runner:       runner,
			Repositories: fileCfg.Repositories,
			Logger:       logger,
		})
		if err != nil {
			return fmt.Errorf("could not create apk manager: %w", err)
		}
		manager = m
	case pkgmanager.FamilyAPT:
		m, err := apt.NewManager(apt.ManagerConfig{
			Runner: runner,
			Logger: logger,
		})
		if err != nil {
			return fmt.Errorf("could not create apt manager: %w", err)
		}
		manager = m
	default:
		return fmt.Errorf("unknown backend %q", family)
	}

	logger.Infof("Using %s backend (%s)", manager.Name(), manager.OSName())

	// Operation history.
	var history storage.HistoryRepository
	if c.noHistory {
		repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: logger})
		if err != nil {
			return fmt.Errorf("could not create memory history repository: %w", err)
		}
		history = repo
	} else {
		repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
			DBPath: c.rootCmd.DBPath,
			Logger: logger,
		})
		if err != nil {
			return fmt.Errorf("could not create SQLite history repository: %w", err)
		}
		defer repo.Close()
		history = repo
	}

	// Application services.
	installSvc, err := install.NewService(install.ServiceConfig{Manager: manager, History: history, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create install service: %w", err)
	}
	installVersionSvc, err := installversion.NewService(installversion.ServiceConfig{Manager: manager, History: history, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create versioned install service: %w", err)
	}
	searchSvc, err := search.NewService(search.ServiceConfig{Manager: manager, History: history, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create search service: %w", err)
	}
	listSvc, err := listinstalled.NewService(listinstalled.ServiceConfig{Manager: manager, History: history, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create list installed service: %w", err)
	}
	refreshSvc, err := refresh.NewService(refresh.ServiceConfig{Manager: manager, History: history, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create refresh service: %w", err)
	}

	server, err := mcpserver.NewServer(mcpserver.ServerConfig{
		ListenAddr: net.JoinHostPort(c.host, strconv.Itoa(c.port)),
		Manager:    manager,
		Services: mcpserver.Services{
			Install:        installSvc,
			InstallVersion: installVersionSvc,
			Search:         searchSvc,
			ListInstalled:  listSvc,
			Refresh:        refreshSvc,
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create MCP server: %w", err)
	}

	return server.Run(ctx)
}
