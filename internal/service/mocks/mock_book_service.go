package mocks

import (
	"context"
	"io"

	"booktracker/internal/model"
	"booktracker/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockBookService struct {
	mock.Mock
}

func bookOrNil(args mock.Arguments) (*model.Book, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Book), args.Error(1)
}

func (m *MockBookService) AddManual(ctx context.Context, userID string, in service.ManualInput) (*model.Book, error) {
	return bookOrNil(m.Called(ctx, userID, in))
}

func (m *MockBookService) AddFromCatalog(ctx context.Context, userID string, in service.CatalogInput) (*model.Book, error) {
	return bookOrNil(m.Called(ctx, userID, in))
}

func (m *MockBookService) List(ctx context.Context, userID string, status model.Status, limit, offset int) (*service.BookListResult, error) {
	args := m.Called(ctx, userID, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BookListResult), args.Error(1)
}

func (m *MockBookService) Summary(ctx context.Context, userID string) (*service.Summary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Summary), args.Error(1)
}

func (m *MockBookService) Get(ctx context.Context, userID, id string) (*model.Book, error) {
	return bookOrNil(m.Called(ctx, userID, id))
}

func (m *MockBookService) UpdateProgress(ctx context.Context, userID, id string, pagesRead int) (*model.Book, error) {
	return bookOrNil(m.Called(ctx, userID, id, pagesRead))
}

func (m *MockBookService) SetStatus(ctx context.Context, userID, id string, status model.Status, pagesRead *int) (*model.Book, error) {
	return bookOrNil(m.Called(ctx, userID, id, status, pagesRead))
}

func (m *MockBookService) Rate(ctx context.Context, userID, id string, rating int, journal *string) (*model.Book, error) {
	return bookOrNil(m.Called(ctx, userID, id, rating, journal))
}

func (m *MockBookService) UpdateJournal(ctx context.Context, userID, id, journal string) (*model.Book, error) {
	return bookOrNil(m.Called(ctx, userID, id, journal))
}

func (m *MockBookService) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockBookService) UploadCover(ctx context.Context, userID, id string, r io.Reader, filename, contentType string, size int64) (*model.Book, error) {
	return bookOrNil(m.Called(ctx, userID, id, r, filename, contentType, size))
}

func (m *MockBookService) CoverURL(ctx context.Context, userID, id string) (string, error) {
	args := m.Called(ctx, userID, id)
	return args.String(0), args.Error(1)
}
