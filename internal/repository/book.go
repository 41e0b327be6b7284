package repository

import (
	"context"

	"booktracker/internal/model"
)

// BookFilter narrows a user's book list.
type BookFilter struct {
	Status model.Status
}

// BookRepository defines data access for books using SQL queries only.
// Every read and write is scoped to the owning user; a book owned by someone else
// behaves exactly like a missing one (sql.ErrNoRows).
type BookRepository interface {
	// Create inserts a new book record and returns the stored row.
	Create(ctx context.Context, book *model.Book) (*model.Book, error)

	// FindByID returns a user's book by its ID.
	FindByID(ctx context.Context, userID, id string) (*model.Book, error)

	// List returns a page of a user's books, newest first, and the total for the filter.
	List(ctx context.Context, userID string, filter BookFilter, pq PageQuery) (*PageResult[model.Book], error)

	// ListAll returns every book a user owns, newest first.
	ListAll(ctx context.Context, userID string) ([]model.Book, error)

	// CountByStatus returns the number of books per status for a user.
	CountByStatus(ctx context.Context, userID string) (map[model.Status]int, error)

	// UpdateProgress sets pages_read and status together.
	UpdateProgress(ctx context.Context, userID, id string, pagesRead int, status model.Status) (*model.Book, error)

	// UpdateRating sets the rating and, when journal is non-nil, the journal.
	UpdateRating(ctx context.Context, userID, id string, rating int, journal *string) (*model.Book, error)

	// UpdateJournal replaces the journal entry.
	UpdateJournal(ctx context.Context, userID, id, journal string) (*model.Book, error)

	// UpdateCover sets the object storage key of an uploaded cover.
	UpdateCover(ctx context.Context, userID, id, coverKey string) (*model.Book, error)

	// Delete removes a book. It returns sql.ErrNoRows if the user owns no such book.
	Delete(ctx context.Context, userID, id string) error
}
