package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/pkgmcp/internal/log"
	"github.com/slok/pkgmcp/internal/model"
	"github.com/slok/pkgmcp/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.HistoryRepository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository, creating the database file
// and migrating the schema when needed.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if err := migrations.Up(ctx, db, cfg.Logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// AddOperation appends an operation record.
func (r *Repository) AddOperation(ctx context.Context, record model.OperationRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	query := `
		INSERT INTO operations (id, operation, backend, package, version, query, exit_code, success, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	success := 0
	if record.Success {
		success = 1
	}

	_, err := r.db.ExecContext(
		ctx,
		query,
		record.ID,
		string(record.Operation),
		record.Backend,
		record.Package,
		record.Version,
		record.Query,
		record.ExitCode,
		success,
		record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("could not insert operation: %w", err)
	}

	return nil
}

// ListOperations returns all the recorded operations, oldest first.
func (r *Repository) ListOperations(ctx context.Context) ([]model.OperationRecord, error) {
	query := `
		SELECT id, operation, backend, package, version, query, exit_code, success, created_at
		FROM operations
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not list operations: %w", err)
	}
	defer rows.Close()

	records := []model.OperationRecord{}
	for rows.Next() {
		var rec model.OperationRecord
		var operation string
		var success int
		var createdAt int64

		err := rows.Scan(&rec.ID, &operation, &rec.Backend, &rec.Package, &rec.Version, &rec.Query, &rec.ExitCode, &success, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("could not scan operation: %w", err)
		}

		rec.Operation = model.Operation(operation)
		rec.Success = success == 1
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate operations: %w", err)
	}

	return records, nil
}
