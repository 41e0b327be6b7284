package mocks

import (
	"context"

	"booktracker/internal/model"
	"booktracker/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func resultOrNil(args mock.Arguments) (*service.AuthResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) SignInGoogle(ctx context.Context, idToken string) (*service.AuthResult, error) {
	return resultOrNil(m.Called(ctx, idToken))
}

func (m *MockAuthService) SignInAnonymous(ctx context.Context) (*service.AuthResult, error) {
	return resultOrNil(m.Called(ctx))
}

func (m *MockAuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
