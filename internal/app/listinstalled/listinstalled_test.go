package listinstalled_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/pkgmcp/internal/app/listinstalled"
	"github.com/slok/pkgmcp/internal/model"
	"github.com/slok/pkgmcp/internal/pkgmanager/pkgmanagermock"
	"github.com/slok/pkgmcp/internal/storage/storagemock"
)

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		cfg    listinstalled.ServiceConfig
		expErr bool
	}{
		"Valid configuration should create the service": {
			cfg: listinstalled.ServiceConfig{
				Manager: &pkgmanagermock.MockManager{},
				History: &storagemock.MockHistoryRepository{},
			},
			expErr: false,
		},

		"Missing manager should fail": {
			cfg:    listinstalled.ServiceConfig{History: &storagemock.MockHistoryRepository{}},
			expErr: true,
		},

		"Missing history repository should fail": {
			cfg:    listinstalled.ServiceConfig{Manager: &pkgmanagermock.MockManager{}},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			svc, err := listinstalled.NewService(test.cfg)

			if test.expErr {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestServiceRun(t *testing.T) {
	tests := map[string]struct {
		mock   func(mManager *pkgmanagermock.MockManager, mHistory *storagemock.MockHistoryRepository)
		expErr bool
		expRes *model.ExecResult
	}{
		"Listing should call the manager and record the operation": {
			mock: func(mManager *pkgmanagermock.MockManager, mHistory *storagemock.MockHistoryRepository) {
				mManager.On("ListInstalled", mock.Anything).Once().Return(&model.ExecResult{ExitCode: 0, Stdout: "musl-1.2.4-r2 x86_64"}, nil)
				mManager.On("Name").Return("APK")
				mHistory.On("AddOperation", mock.Anything, mock.MatchedBy(func(r model.OperationRecord) bool {
					return r.Operation == model.OperationListInstalled && r.Success
				})).Once().Return(nil)
			},
			expRes: &model.ExecResult{ExitCode: 0, Stdout: "musl-1.2.4-r2 x86_64"},
		},

		"A history write failure should not fail the operation": {
			mock: func(mManager *pkgmanagermock.MockManager, mHistory *storagemock.MockHistoryRepository) {
				mManager.On("ListInstalled", mock.Anything).Once().Return(&model.ExecResult{ExitCode: 0}, nil)
				mManager.On("Name").Return("APK")
				mHistory.On("AddOperation", mock.Anything, mock.Anything).Once().Return(errors.New("db gone"))
			},
			expRes: &model.ExecResult{ExitCode: 0},
		},

		"A manager error should fail the operation": {
			mock: func(mManager *pkgmanagermock.MockManager, mHistory *storagemock.MockHistoryRepository) {
				mManager.On("ListInstalled", mock.Anything).Once().Return(nil, errors.New("spawn failed"))
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			mManager := &pkgmanagermock.MockManager{}
			mHistory := &storagemock.MockHistoryRepository{}
			test.mock(mManager, mHistory)

			svc, err := listinstalled.NewService(listinstalled.ServiceConfig{Manager: mManager, History: mHistory})
			require.NoError(t, err)

			result, err := svc.Run(context.TODO())

			if test.expErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, test.expRes, result)
			}
			mManager.AssertExpectations(t)
			mHistory.AssertExpectations(t)
		})
	}
}
