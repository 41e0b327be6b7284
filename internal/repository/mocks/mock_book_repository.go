package mocks

import (
	"context"

	"booktracker/internal/model"
	"booktracker/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockBookRepository struct {
	mock.Mock
}

func bookOrNil(args mock.Arguments) (*model.Book, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Book), args.Error(1)
}

func (m *MockBookRepository) Create(ctx context.Context, book *model.Book) (*model.Book, error) {
	return bookOrNil(m.Called(ctx, book))
}

func (m *MockBookRepository) FindByID(ctx context.Context, userID, id string) (*model.Book, error) {
	return bookOrNil(m.Called(ctx, userID, id))
}

func (m *MockBookRepository) List(ctx context.Context, userID string, filter repository.BookFilter, pq repository.PageQuery) (*repository.PageResult[model.Book], error) {
	args := m.Called(ctx, userID, filter, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Book]), args.Error(1)
}

func (m *MockBookRepository) ListAll(ctx context.Context, userID string) ([]model.Book, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Book), args.Error(1)
}

func (m *MockBookRepository) CountByStatus(ctx context.Context, userID string) (map[model.Status]int, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.Status]int), args.Error(1)
}

func (m *MockBookRepository) UpdateProgress(ctx context.Context, userID, id string, pagesRead int, status model.Status) (*model.Book, error) {
	return bookOrNil(m.Called(ctx, userID, id, pagesRead, status))
}

func (m *MockBookRepository) UpdateRating(ctx context.Context, userID, id string, rating int, journal *string) (*model.Book, error) {
	return bookOrNil(m.Called(ctx, userID, id, rating, journal))
}

func (m *MockBookRepository) UpdateJournal(ctx context.Context, userID, id, journal string) (*model.Book, error) {
	return bookOrNil(m.Called(ctx, userID, id, journal))
}

func (m *MockBookRepository) UpdateCover(ctx context.Context, userID, id, coverKey string) (*model.Book, error) {
	return bookOrNil(m.Called(ctx, userID, id, coverKey))
}

func (m *MockBookRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}
