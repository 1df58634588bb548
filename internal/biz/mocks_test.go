package biz

import (
	"context"

	"github.com/stretchr/testify/mock"

	"memberflow/internal/biz/model"
	"memberflow/internal/service"
)

// MockIdentityAPI is a mock implementation of service.IdentityAPI.
type MockIdentityAPI struct {
	mock.Mock
}

func (m *MockIdentityAPI) LookupIdentifier(ctx context.Context, identifier string) (*model.UserDetails, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserDetails), args.Error(1)
}

func (m *MockIdentityAPI) SubmitPassword(ctx context.Context, identifier, password string) (string, error) {
	args := m.Called(ctx, identifier, password)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityAPI) SetupPassword(ctx context.Context, req service.SetupPasswordRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityAPI) SecurityQuestion(ctx context.Context, userID string) (*model.RecoveryUser, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RecoveryUser), args.Error(1)
}

func (m *MockIdentityAPI) VerifyAnswer(ctx context.Context, userID, answer string) error {
	args := m.Called(ctx, userID, answer)
	return args.Error(0)
}

func (m *MockIdentityAPI) ResetPassword(ctx context.Context, userID, newPassword string) (string, error) {
	args := m.Called(ctx, userID, newPassword)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityAPI) SubmitProfile(ctx context.Context, form model.RegisterForm) (*model.CompleteUser, error) {
	args := m.Called(ctx, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CompleteUser), args.Error(1)
}

func (m *MockIdentityAPI) Me(ctx context.Context) (*model.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockIdentityAPI) Healthy(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockTokenStore is a mock implementation of data.TokenStore.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Get(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockTokenStore) Set(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenStore) Remove(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
