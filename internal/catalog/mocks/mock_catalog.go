package mocks

import (
	"context"

	"booktracker/internal/catalog"
	"github.com/stretchr/testify/mock"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Search(ctx context.Context, query string, limit int) ([]catalog.Volume, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Volume), args.Error(1)
}

func (m *MockCatalog) Volume(ctx context.Context, id string) (*catalog.Volume, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Volume), args.Error(1)
}
