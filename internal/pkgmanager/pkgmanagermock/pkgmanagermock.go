// Package pkgmanagermock contains testify mocks for the pkgmanager package.
package pkgmanagermock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/slok/pkgmcp/internal/model"
	"github.com/slok/pkgmcp/internal/pkgmanager"
)

// MockManager is a mock implementation of pkgmanager.Manager.
type MockManager struct {
	mock.Mock
}

func (m *MockManager) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockManager) OSName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockManager) Install(ctx context.Context, req model.InstallRequest) (*model.ExecResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*model.ExecResult)
	return res, args.Error(1)
}

func (m *MockManager) InstallVersion(ctx context.Context, req model.VersionedInstallRequest) (*model.ExecResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*model.ExecResult)
	return res, args.Error(1)
}

func (m *MockManager) Search(ctx context.Context, req model.SearchRequest) (*model.ExecResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*model.ExecResult)
	return res, args.Error(1)
}

func (m *MockManager) ListInstalled(ctx context.Context) (*model.ExecResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*model.ExecResult)
	return res, args.Error(1)
}

func (m *MockManager) Refresh(ctx context.Context) (*model.ExecResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*model.ExecResult)
	return res, args.Error(1)
}

// MockRunner is a mock implementation of pkgmanager.Runner.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, cmd pkgmanager.Command) (*model.ExecResult, error) {
	args := m.Called(ctx, cmd)
	res, _ := args.Get(0).(*model.ExecResult)
	return res, args.Error(1)
}
