package mocks

import (
	"context"

	"booktracker/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func userOrNil(args mock.Arguments) (*model.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	return userOrNil(m.Called(ctx, user))
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return userOrNil(m.Called(ctx, id))
}

func (m *MockUserRepository) FindBySubject(ctx context.Context, provider model.Provider, subject string) (*model.User, error) {
	return userOrNil(m.Called(ctx, provider, subject))
}
