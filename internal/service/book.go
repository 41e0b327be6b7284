package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"booktracker/internal/catalog"
	"booktracker/internal/metrics"
	"booktracker/internal/model"
	"booktracker/internal/repository"
	"booktracker/internal/storage"
)

var (
	ErrIDRequired        = errors.New("id is required")
	ErrNotFound          = errors.New("book not found")
	ErrReaderNil         = errors.New("reader is nil")
	ErrNoCover           = errors.New("book has no cover")
	ErrInvalidTotalPages = errors.New("total pages must be greater than zero")
	ErrStatusConflict    = errors.New("currently reading requires some but not all pages read")
	ErrUnsupportedCover  = errors.New("cover must be a JPEG, PNG, WebP or GIF image")
)

const (
	defaultPageSize = 10
	maxPageSize     = 100

	coverURLExpiry = 15 * time.Minute
)

// coverTypes are the raster formats served back inline. SVG is excluded since it can carry script.
var coverTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// coverContentType normalizes a declared content type and reports whether covers may use it.
func coverContentType(declared string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "", false
	}
	return mediaType, coverTypes[mediaType]
}

// BookListResult is the service-level DTO for a page of books.
type BookListResult struct {
	Items []model.Book `json:"data"`
	Total int          `json:"total"`
}

// Summary holds the per-status counts shown as dashboard sections.
type Summary struct {
	CurrentlyReading int `json:"currently_reading"`
	WantToRead       int `json:"want_to_read"`
	Finished         int `json:"finished"`
	Total            int `json:"total"`
}

// ManualInput describes a book typed in by the user.
type ManualInput struct {
	Title      string
	Author     string
	CoverURL   string
	TotalPages int
	Status     model.Status
	PagesRead  int
}

// CatalogInput describes a book picked from catalog search results.
type CatalogInput struct {
	VolumeID  string
	Status    model.Status
	PagesRead int
}

// BookService defines the reading list use cases. Every call is scoped to userID.
type BookService interface {
	// AddManual creates a book from user-entered details.
	AddManual(ctx context.Context, userID string, in ManualInput) (*model.Book, error)

	// AddFromCatalog looks the volume up in the catalog and creates a book from it.
	AddFromCatalog(ctx context.Context, userID string, in CatalogInput) (*model.Book, error)

	// List returns the user's books newest first, optionally narrowed to one status.
	List(ctx context.Context, userID string, status model.Status, limit, offset int) (*BookListResult, error)

	// Summary counts the user's books per status.
	Summary(ctx context.Context, userID string) (*Summary, error)

	// Get returns a single book.
	Get(ctx context.Context, userID, id string) (*model.Book, error)

	// UpdateProgress records pages read; the status follows the new page count.
	UpdateProgress(ctx context.Context, userID, id string, pagesRead int) (*model.Book, error)

	// SetStatus moves a book between statuses. pagesRead is only used for currently reading.
	SetStatus(ctx context.Context, userID, id string, status model.Status, pagesRead *int) (*model.Book, error)

	// Rate sets the star rating and, when journal is non-nil, replaces the journal.
	Rate(ctx context.Context, userID, id string, rating int, journal *string) (*model.Book, error)

	// UpdateJournal replaces the journal entry.
	UpdateJournal(ctx context.Context, userID, id, journal string) (*model.Book, error)

	// Delete removes the uploaded cover, if any, then the book.
	Delete(ctx context.Context, userID, id string) error

	// UploadCover stores a cover image and points the book at it, replacing any earlier upload.
	UploadCover(ctx context.Context, userID, id string, r io.Reader, filename, contentType string, size int64) (*model.Book, error)

	// CoverURL resolves where the book's cover can be fetched from.
	CoverURL(ctx context.Context, userID, id string) (string, error)
}

type bookService struct {
	store   storage.Storage
	repo    repository.BookRepository
	catalog catalog.Catalog
	metrics *metrics.Domain
	logger  *slog.Logger
}

// NewBookService constructs a new BookService.
func NewBookService(store storage.Storage, repo repository.BookRepository, cat catalog.Catalog, m *metrics.Domain, logger *slog.Logger) BookService {
	if m == nil {
		m = metrics.Noop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &bookService{store: store, repo: repo, catalog: cat, metrics: m, logger: logger}
}

func (s *bookService) AddManual(ctx context.Context, userID string, in ManualInput) (*model.Book, error) {
	if in.TotalPages <= 0 {
		return nil, ErrInvalidTotalPages
	}
	book := s.newBook(userID)
	book.Title = strings.TrimSpace(in.Title)
	book.Author = strings.TrimSpace(in.Author)
	book.CoverURL = strings.TrimSpace(in.CoverURL)
	book.TotalPages = in.TotalPages
	return s.create(ctx, book, in.Status, in.PagesRead, "add_manual")
}

func (s *bookService) AddFromCatalog(ctx context.Context, userID string, in CatalogInput) (*model.Book, error) {
	if strings.TrimSpace(in.VolumeID) == "" {
		return nil, ErrIDRequired
	}
	vol, err := s.catalog.Volume(ctx, in.VolumeID)
	if err != nil {
		return nil, fmt.Errorf("fetch volume: %w", err)
	}
	book := s.newBook(userID)
	book.Title = vol.Title
	book.Author = vol.Author
	book.CoverURL = vol.Cover
	book.CatalogID = vol.ID
	book.TotalPages = vol.PageCount
	return s.create(ctx, book, in.Status, in.PagesRead, "add_catalog")
}

func (s *bookService) newBook(userID string) *model.Book {
	now := time.Now().UTC()
	return &model.Book{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// create normalizes pages against the requested status before the insert.
// An empty status lets the page count decide.
func (s *bookService) create(ctx context.Context, book *model.Book, status model.Status, pagesRead int, op string) (*model.Book, error) {
	if status == "" {
		if err := book.ApplyProgress(pagesRead); err != nil {
			return nil, err
		}
	} else if err := book.ApplyStatus(status, pagesRead); err != nil {
		return nil, err
	}
	if err := book.Validate(); err != nil {
		return nil, err
	}
	stored, err := s.repo.Create(ctx, book)
	if err != nil {
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	s.count(op)
	return stored, nil
}

func (s *bookService) List(ctx context.Context, userID string, status model.Status, limit, offset int) (*BookListResult, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidStatus, status)
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, userID, repository.BookFilter{Status: status}, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &BookListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *bookService) Summary(ctx context.Context, userID string) (*Summary, error) {
	counts, err := s.repo.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	sum := &Summary{
		CurrentlyReading: counts[model.StatusCurrentlyReading],
		WantToRead:       counts[model.StatusWantToRead],
		Finished:         counts[model.StatusFinished],
	}
	sum.Total = sum.CurrentlyReading + sum.WantToRead + sum.Finished
	return sum, nil
}

func (s *bookService) Get(ctx context.Context, userID, id string) (*model.Book, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	return notFound(s.repo.FindByID(ctx, userID, id))
}

func (s *bookService) UpdateProgress(ctx context.Context, userID, id string, pagesRead int) (*model.Book, error) {
	book, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := book.ApplyProgress(pagesRead); err != nil {
		return nil, err
	}
	updated, err := notFound(s.repo.UpdateProgress(ctx, userID, id, book.PagesRead, book.Status))
	if err != nil {
		return nil, err
	}
	s.count("progress")
	return updated, nil
}

func (s *bookService) SetStatus(ctx context.Context, userID, id string, status model.Status, pagesRead *int) (*model.Book, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidStatus, status)
	}
	book, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	pages := book.PagesRead
	if pagesRead != nil {
		pages = *pagesRead
	}
	if err := book.ApplyStatus(status, pages); err != nil {
		return nil, err
	}
	if book.Status != status {
		return nil, ErrStatusConflict
	}
	updated, err := notFound(s.repo.UpdateProgress(ctx, userID, id, book.PagesRead, book.Status))
	if err != nil {
		return nil, err
	}
	s.count("status")
	return updated, nil
}

func (s *bookService) Rate(ctx context.Context, userID, id string, rating int, journal *string) (*model.Book, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if err := model.ValidateRating(rating); err != nil {
		return nil, err
	}
	if journal != nil {
		if err := model.ValidateJournal(*journal); err != nil {
			return nil, err
		}
	}
	updated, err := notFound(s.repo.UpdateRating(ctx, userID, id, rating, journal))
	if err != nil {
		return nil, err
	}
	s.count("rating")
	return updated, nil
}

func (s *bookService) UpdateJournal(ctx context.Context, userID, id, journal string) (*model.Book, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if err := model.ValidateJournal(journal); err != nil {
		return nil, err
	}
	updated, err := notFound(s.repo.UpdateJournal(ctx, userID, id, journal))
	if err != nil {
		return nil, err
	}
	s.count("journal")
	return updated, nil
}

// Delete removes the uploaded cover first; if that fails the row stays so the key is not lost.
func (s *bookService) Delete(ctx context.Context, userID, id string) error {
	book, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if book.HasUploadedCover() {
		if err := s.store.Delete(ctx, book.CoverKey); err != nil {
			return fmt.Errorf("delete storage: %w", err)
		}
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	s.count("delete")
	return nil
}

func (s *bookService) UploadCover(ctx context.Context, userID, id string, r io.Reader, filename, contentType string, size int64) (*model.Book, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	contentType, ok := coverContentType(contentType)
	if !ok {
		return nil, ErrUnsupportedCover
	}
	book, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	key := path.Join("covers", userID, uuid.New().String()+strings.ToLower(filepath.Ext(filename)))
	obj, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": filename,
			"book-id":           id,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	updated, err := s.repo.UpdateCover(ctx, userID, id, obj.Key)
	if err != nil {
		if delErr := s.store.Delete(ctx, obj.Key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	if book.HasUploadedCover() && book.CoverKey != obj.Key {
		if err := s.store.Delete(ctx, book.CoverKey); err != nil {
			s.logger.Warn("stale cover not removed",
				slog.String("book_id", id),
				slog.String("key", book.CoverKey),
				slog.String("error", err.Error()))
		}
	}
	s.count("cover")
	return updated, nil
}

func (s *bookService) CoverURL(ctx context.Context, userID, id string) (string, error) {
	book, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	if book.HasUploadedCover() {
		u, err := s.store.PresignGet(ctx, book.CoverKey, coverURLExpiry)
		if err != nil {
			return "", fmt.Errorf("presign cover: %w", err)
		}
		return u, nil
	}
	if book.CoverURL != "" {
		return book.CoverURL, nil
	}
	return "", ErrNoCover
}

func (s *bookService) count(op string) {
	s.metrics.BookMutations.WithLabelValues(op).Inc()
}

// notFound maps a missing or foreign row to ErrNotFound.
func notFound(b *model.Book, err error) (*model.Book, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}
