package apk_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/pkgmcp/internal/model"
	"github.com/slok/pkgmcp/internal/pkgmanager"
	"github.com/slok/pkgmcp/internal/pkgmanager/apk"
	"github.com/slok/pkgmcp/internal/pkgmanager/pkgmanagermock"
)

var testRepos = []string{
	"https://repo.test/alpine/edge/main",
	"https://repo.test/alpine/v3.22/main",
}

func newTestManager(t *testing.T) (*apk.Manager, *pkgmanagermock.MockRunner) {
	mRunner := &pkgmanagermock.MockRunner{}
	m, err := apk.NewManager(apk.ManagerConfig{
		Runner:       mRunner,
		Repositories: testRepos,
	})
	require.NoError(t, err)

	return m, mRunner
}

func TestNewManager(t *testing.T) {
	tests := map[string]struct {
		cfg    apk.ManagerConfig
		expErr bool
	}{
		"A valid configuration should create the manager": {
			cfg:    apk.ManagerConfig{Runner: &pkgmanagermock.MockRunner{}},
			expErr: false,
		},

		"A missing runner should fail": {
			cfg:    apk.ManagerConfig{},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m, err := apk.NewManager(test.cfg)

			if test.expErr {
				assert.Error(t, err)
				assert.Nil(t, m)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, m)
			}
		})
	}
}

func TestManagerInstall(t *testing.T) {
	tests := map[string]struct {
		req     model.InstallRequest
		mock    func(mRunner *pkgmanagermock.MockRunner)
		expErr  bool
		expCode int
	}{
		"Installing a package without repository should call apk add with the package only": {
			req: model.InstallRequest{Package: "curl"},
			mock: func(mRunner *pkgmanagermock.MockRunner) {
				expCmd := pkgmanager.Command{Path: "apk", Args: []string{"add", "curl"}}
				mRunner.On("Run", mock.Anything, expCmd).Once().Return(&model.ExecResult{ExitCode: 0}, nil)
			},
			expCode: 0,
		},

		"Installing a package with a repository override should scope apk add to it": {
			req: model.InstallRequest{Package: "curl", Repository: "https://repo.test/alpine/edge/testing"},
			mock: func(mRunner *pkgmanagermock.MockRunner) {
				expCmd := pkgmanager.Command{Path: "apk", Args: []string{"add", "--repository", "https://repo.test/alpine/edge/testing", "curl"}}
				mRunner.On("Run", mock.Anything, expCmd).Once().Return(&model.ExecResult{ExitCode: 0}, nil)
			},
			expCode: 0,
		},

		"A non-zero exit code should be returned as-is, not classified": {
			req: model.InstallRequest{Package: "curl"},
			mock: func(mRunner *pkgmanagermock.MockRunner) {
				expCmd := pkgmanager.Command{Path: "apk", Args: []string{"add", "curl"}}
				mRunner.On("Run", mock.Anything, expCmd).Once().Return(&model.ExecResult{ExitCode: 1, Stderr: "ERROR: unable to select packages"}, nil)
			},
			expCode: 1,
		},

		"A missing package name should fail before running anything": {
			req:    model.InstallRequest{},
			mock:   func(mRunner *pkgmanagermock.MockRunner) {},
			expErr: true,
		},

		"A spawn error should be returned as an error": {
			req: model.InstallRequest{Package: "curl"},
			mock: func(mRunner *pkgmanagermock.MockRunner) {
				mRunner.On("Run", mock.Anything, mock.Anything).Once().Return(nil, errors.New("exec: \"apk\": executable file not found in $PATH"))
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m, mRunner := newTestManager(t)
			test.mock(mRunner)

			result, err := m.Install(context.TODO(), test.req)

			if test.expErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, test.expCode, result.ExitCode)
			}
			mRunner.AssertExpectations(t)
		})
	}
}

func TestManagerSearch(t *testing.T) {
	tests := map[string]struct {
		req     model.SearchRequest
		expArgs []string
	}{
		"Searching without repository should scan the full repository list": {
			req: model.SearchRequest{Query: "curl"},
			expArgs: []string{
				"--no-cache",
				"--repository", "https://repo.test/alpine/edge/main",
				"--repository", "https://repo.test/alpine/v3.22/main",
				"search", "--exact", "--all", "curl",
			},
		},

		"Searching with a repository should narrow the scan to it": {
			req: model.SearchRequest{Query: "curl", Repository: "https://repo.test/alpine/v3.21/main"},
			expArgs: []string{
				"--no-cache",
				"--repository", "https://repo.test/alpine/v3.21/main",
				"search", "--exact", "--all", "curl",
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m, mRunner := newTestManager(t)
			expCmd := pkgmanager.Command{Path: "apk", Args: test.expArgs}
			mRunner.On("Run", mock.Anything, expCmd).Once().Return(&model.ExecResult{ExitCode: 0}, nil)

			_, err := m.Search(context.TODO(), test.req)

			require.NoError(t, err)
			mRunner.AssertExpectations(t)
		})
	}
}

func TestManagerListInstalledAndRefresh(t *testing.T) {
	m, mRunner := newTestManager(t)

	mRunner.On("Run", mock.Anything, pkgmanager.Command{Path: "apk", Args: []string{"list", "-I"}}).
		Once().Return(&model.ExecResult{ExitCode: 0, Stdout: "curl-8.0.0-r0 x86_64"}, nil)
	mRunner.On("Run", mock.Anything, pkgmanager.Command{Path: "apk", Args: []string{"update"}}).
		Once().Return(&model.ExecResult{ExitCode: 0}, nil)

	listResult, err := m.ListInstalled(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, "curl-8.0.0-r0 x86_64", listResult.Stdout)

	refreshResult, err := m.Refresh(context.TODO())
	require.NoError(t, err)
	assert.True(t, refreshResult.Success())

	mRunner.AssertExpectations(t)
}

func TestManagerInstallVersion(t *testing.T) {
	searchCmd := pkgmanager.Command{Path: "apk", Args: []string{
		"--no-cache",
		"--repository", "https://repo.test/alpine/edge/main",
		"--repository", "https://repo.test/alpine/v3.22/main",
		"search", "--exact", "--all", "curl",
	}}
	installCmd := pkgmanager.Command{Path: "apk", Args: []string{
		"add",
		"--repository", "https://repo.test/alpine/edge/main",
		"--repository", "https://repo.test/alpine/v3.22/main",
		"curl=7.88.1-r1",
	}}

	tests := map[string]struct {
		req   model.VersionedInstallRequest
		mock  func(mRunner *pkgmanagermock.MockRunner)
		check func(t *testing.T, result *model.ExecResult, err error)
	}{
		"An exact version match should install pinned across all repositories and return the exit code unmodified": {
			req: model.VersionedInstallRequest{Package: "curl", Version: "7.88.1-r1"},
			mock: func(mRunner *pkgmanagermock.MockRunner) {
				searchOut := "fetch https://repo.test/alpine/edge/main/x86_64/APKINDEX.tar.gz\n" +
					"curl-7.88.1-r1\n" +
					"curl-8.0.0-r0\n"
				mRunner.On("Run", mock.Anything, searchCmd).Once().Return(&model.ExecResult{ExitCode: 0, Stdout: searchOut}, nil)
				mRunner.On("Run", mock.Anything, installCmd).Once().Return(&model.ExecResult{ExitCode: 3, Stderr: "boom"}, nil)
			},
			check: func(t *testing.T, result *model.ExecResult, err error) {
				require.NoError(t, err)
				assert.Equal(t, 3, result.ExitCode)
				assert.Equal(t, "boom", result.Stderr)
			},
		},

		"A package that is a prefix of another package should not cross-match": {
			req: model.VersionedInstallRequest{Package: "curl", Version: "7.0"},
			mock: func(mRunner *pkgmanagermock.MockRunner) {
				searchOut := "curl-7.88.1-r1\ncurl-extra-7.0\n"
				mRunner.On("Run", mock.Anything, searchCmd).Once().Return(&model.ExecResult{ExitCode: 0, Stdout: searchOut}, nil)
			},
			check: func(t *testing.T, result *model.ExecResult, err error) {
				// "curl-extra-7.0" belongs to "curl-extra", it must not yield a
				// candidate for "curl".
				var verErr model.VersionNotFoundError
				require.ErrorAs(t, err, &verErr)
				assert.Equal(t, []string{"7.88.1-r1"}, verErr.Available)
			},
		},

		"A missing version should fail with the sorted deduplicated candidate list": {
			req: model.VersionedInstallRequest{Package: "curl", Version: "9.9.9-r9"},
			mock: func(mRunner *pkgmanagermock.MockRunner) {
				searchOut := "curl-8.0.0-r0\ncurl-7.88.1-r1\ncurl-8.0.0-r0\n"
				mRunner.On("Run", mock.Anything, searchCmd).Once().Return(&model.ExecResult{ExitCode: 0, Stdout: searchOut}, nil)
			},
			check: func(t *testing.T, result *model.ExecResult, err error) {
				var verErr model.VersionNotFoundError
				require.ErrorAs(t, err, &verErr)
				assert.Equal(t, "curl", verErr.Package)
				assert.Equal(t, "9.9.9-r9", verErr.Version)
				assert.Equal(t, []string{"7.88.1-r1", "8.0.0-r0"}, verErr.Available)
				assert.ErrorIs(t, err, model.ErrNotFound)
			},
		},

		"Zero candidates anywhere should fail with the searched repository list": {
			req: model.VersionedInstallRequest{Package: "nosuchpkg", Version: "1.0.0"},
			mock: func(mRunner *pkgmanagermock.MockRunner) {
				searchCmd := pkgmanager.Command{Path: "apk", Args: []string{
					"--no-cache",
					"--repository", "https://repo.test/alpine/edge/main",
					"--repository", "https://repo.test/alpine/v3.22/main",
					"search", "--exact", "--all", "nosuchpkg",
				}}
				mRunner.On("Run", mock.Anything, searchCmd).Once().Return(&model.ExecResult{ExitCode: 0, Stdout: ""}, nil)
			},
			check: func(t *testing.T, result *model.ExecResult, err error) {
				var pkgErr model.PackageNotFoundError
				require.ErrorAs(t, err, &pkgErr)
				assert.Equal(t, "nosuchpkg", pkgErr.Package)
				assert.Equal(t, testRepos, pkgErr.Repositories)
			},
		},

		"Fetch progress lines should be discarded before matching": {
			req: model.VersionedInstallRequest{Package: "curl", Version: "1.0"},
			mock: func(mRunner *pkgmanagermock.MockRunner) {
				searchOut := "fetch https://repo.test/alpine/edge/main/x86_64/APKINDEX.tar.gz\n\n"
				mRunner.On("Run", mock.Anything, searchCmd).Once().Return(&model.ExecResult{ExitCode: 0, Stdout: searchOut}, nil)
			},
			check: func(t *testing.T, result *model.ExecResult, err error) {
				var pkgErr model.PackageNotFoundError
				require.ErrorAs(t, err, &pkgErr)
			},
		},

		"A package name with disallowed characters should fail validation before any process is spawned": {
			req:  model.VersionedInstallRequest{Package: "curl; rm -rf /", Version: "1.0"},
			mock: func(mRunner *pkgmanagermock.MockRunner) {},
			check: func(t *testing.T, result *model.ExecResult, err error) {
				assert.ErrorIs(t, err, model.ErrNotValid)
			},
		},

		"A version with disallowed characters should fail validation before any process is spawned": {
			req:  model.VersionedInstallRequest{Package: "curl", Version: "1.0|cat"},
			mock: func(mRunner *pkgmanagermock.MockRunner) {},
			check: func(t *testing.T, result *model.ExecResult, err error) {
				assert.ErrorIs(t, err, model.ErrNotValid)
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m, mRunner := newTestManager(t)
			test.mock(mRunner)

			result, err := m.InstallVersion(context.TODO(), test.req)

			test.check(t, result, err)
			mRunner.AssertExpectations(t)
		})
	}
}
