package postgres

import (
	"context"
	"database/sql"

	"booktracker/internal/model"
	"booktracker/internal/repository"
)

const bookColumns = `id, user_id, title, author, cover_url, cover_key, catalog_id,
	total_pages, pages_read, status, rating, journal, created_at, updated_at`

// BookPostgres is a PostgreSQL implementation of repository.BookRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type BookPostgres struct {
	db *sql.DB
}

// NewBookPostgres creates a new BookPostgres repository.
func NewBookPostgres(db *sql.DB) *BookPostgres {
	return &BookPostgres{db: db}
}

var _ repository.BookRepository = (*BookPostgres)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*model.Book, error) {
	var (
		b       model.Book
		status  string
		rating  sql.NullInt64
		journal sql.NullString
	)
	if err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.Title,
		&b.Author,
		&b.CoverURL,
		&b.CoverKey,
		&b.CatalogID,
		&b.TotalPages,
		&b.PagesRead,
		&status,
		&rating,
		&journal,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.Status = model.Status(status)
	if rating.Valid {
		r := int(rating.Int64)
		b.Rating = &r
	}
	if journal.Valid {
		j := journal.String
		b.Journal = &j
	}
	return &b, nil
}

func nullableInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullableString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

// Create inserts a new book row and returns the stored record.
func (r *BookPostgres) Create(ctx context.Context, b *model.Book) (*model.Book, error) {
	const q = `
		INSERT INTO books (id, user_id, title, author, cover_url, cover_key, catalog_id,
			total_pages, pages_read, status, rating, journal, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + bookColumns
	row := r.db.QueryRowContext(ctx, q,
		b.ID,
		b.UserID,
		b.Title,
		b.Author,
		b.CoverURL,
		b.CoverKey,
		b.CatalogID,
		b.TotalPages,
		b.PagesRead,
		string(b.Status),
		nullableInt(b.Rating),
		nullableString(b.Journal),
		b.CreatedAt,
		b.UpdatedAt,
	)
	return scanBook(row)
}

// FindByID fetches a single book owned by userID.
func (r *BookPostgres) FindByID(ctx context.Context, userID, id string) (*model.Book, error) {
	const q = `SELECT ` + bookColumns + ` FROM books WHERE id = $1 AND user_id = $2`
	return scanBook(r.db.QueryRowContext(ctx, q, id, userID))
}

// List returns books using LIMIT/OFFSET pagination and a total count.
// An empty status filter matches every status.
func (r *BookPostgres) List(ctx context.Context, userID string, filter repository.BookFilter, pq repository.PageQuery) (*repository.PageResult[model.Book], error) {
	const qCount = `SELECT COUNT(*) FROM books WHERE user_id = $1 AND ($2 = '' OR status = $2)`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, userID, string(filter.Status)).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `SELECT ` + bookColumns + ` FROM books
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, qList, userID, string(filter.Status), pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := collectBooks(rows)
	if err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Book]{
		Items: items,
		Total: total,
	}, nil
}

// ListAll returns every book owned by userID.
func (r *BookPostgres) ListAll(ctx context.Context, userID string) ([]model.Book, error) {
	const q = `SELECT ` + bookColumns + ` FROM books WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBooks(rows)
}

func collectBooks(rows *sql.Rows) ([]model.Book, error) {
	items := make([]model.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CountByStatus groups a user's books by status. Statuses with no books are reported as zero.
func (r *BookPostgres) CountByStatus(ctx context.Context, userID string) (map[model.Status]int, error) {
	const q = `SELECT status, COUNT(*) FROM books WHERE user_id = $1 GROUP BY status`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.Status]int, len(model.Statuses))
	for _, st := range model.Statuses {
		counts[st] = 0
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[model.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// UpdateProgress writes pages_read and status in one statement.
func (r *BookPostgres) UpdateProgress(ctx context.Context, userID, id string, pagesRead int, status model.Status) (*model.Book, error) {
	const q = `UPDATE books SET pages_read = $3, status = $4, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + bookColumns
	return scanBook(r.db.QueryRowContext(ctx, q, id, userID, pagesRead, string(status)))
}

// UpdateRating sets rating and optionally journal. A nil journal keeps the stored entry.
func (r *BookPostgres) UpdateRating(ctx context.Context, userID, id string, rating int, journal *string) (*model.Book, error) {
	const q = `UPDATE books SET rating = $3, journal = COALESCE($4, journal), updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + bookColumns
	return scanBook(r.db.QueryRowContext(ctx, q, id, userID, rating, nullableString(journal)))
}

// UpdateJournal replaces the journal entry.
func (r *BookPostgres) UpdateJournal(ctx context.Context, userID, id, journal string) (*model.Book, error) {
	const q = `UPDATE books SET journal = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + bookColumns
	return scanBook(r.db.QueryRowContext(ctx, q, id, userID, journal))
}

// UpdateCover records the storage key of an uploaded cover.
func (r *BookPostgres) UpdateCover(ctx context.Context, userID, id, coverKey string) (*model.Book, error) {
	const q = `UPDATE books SET cover_key = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + bookColumns
	return scanBook(r.db.QueryRowContext(ctx, q, id, userID, coverKey))
}

// Delete removes a book owned by userID.
func (r *BookPostgres) Delete(ctx context.Context, userID, id string) error {
	const q = `DELETE FROM books WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
