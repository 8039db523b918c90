package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/pkgmcp/internal/model"
	"github.com/slok/pkgmcp/internal/storage/sqlite"
)

func newTestRepository(t *testing.T) *sqlite.Repository {
	repo, err := sqlite.NewRepository(context.TODO(), sqlite.RepositoryConfig{
		DBPath: filepath.Join(t.TempDir(), "pkgmcp.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return repo
}

func TestNewRepository(t *testing.T) {
	tests := map[string]struct {
		cfg    sqlite.RepositoryConfig
		expErr bool
	}{
		"A missing db path should fail": {
			cfg:    sqlite.RepositoryConfig{},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			repo, err := sqlite.NewRepository(context.TODO(), test.cfg)

			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				repo.Close()
			}
		})
	}
}

func TestRepositoryAddAndListOperations(t *testing.T) {
	repo := newTestRepository(t)

	now := time.Now().UTC().Truncate(time.Second)
	rec1 := model.OperationRecord{
		ID:        "01JEXAMPLE0000000000000001",
		Operation: model.OperationInstallVersion,
		Backend:   "APK",
		Package:   "curl",
		Version:   "7.88.1-r1",
		ExitCode:  0,
		Success:   true,
		CreatedAt: now,
	}
	rec2 := model.OperationRecord{
		ID:        "01JEXAMPLE0000000000000002",
		Operation: model.OperationRefresh,
		Backend:   "APK",
		ExitCode:  2,
		CreatedAt: now.Add(1 * time.Second),
	}

	require.NoError(t, repo.AddOperation(context.TODO(), rec1))
	require.NoError(t, repo.AddOperation(context.TODO(), rec2))

	records, err := repo.ListOperations(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, []model.OperationRecord{rec1, rec2}, records)
}

func TestRepositoryAddOperationInvalid(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.AddOperation(context.TODO(), model.OperationRecord{ID: "no-operation-kind"})

	assert.ErrorIs(t, err, model.ErrNotValid)
}

func TestRepositoryAddOperationDuplicatedID(t *testing.T) {
	repo := newTestRepository(t)

	rec := model.OperationRecord{
		ID:        "01JEXAMPLE0000000000000001",
		Operation: model.OperationInstall,
		Backend:   "APT",
		Package:   "curl",
		CreatedAt: time.Now().UTC(),
	}

	require.NoError(t, repo.AddOperation(context.TODO(), rec))
	err := repo.AddOperation(context.TODO(), rec)

	assert.Error(t, err)
}
