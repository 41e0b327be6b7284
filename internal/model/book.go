package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// Status is the reading state of a tracked book.
type Status string

const (
	StatusWantToRead       Status = "want_to_read"
	StatusCurrentlyReading Status = "currently_reading"
	StatusFinished         Status = "finished"
)

// MaxJournalLength bounds the journal entry in characters.
const MaxJournalLength = 10000

var (
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrNegativePages    = errors.New("pages cannot be negative")
	ErrPagesExceedTotal = errors.New("pages read cannot exceed total pages")
	ErrTitleRequired    = errors.New("title is required")
	ErrAuthorRequired   = errors.New("author is required")
	ErrJournalTooLong   = errors.New("journal is too long")
)

// Statuses lists every status in dashboard order.
var Statuses = []Status{StatusCurrentlyReading, StatusWantToRead, StatusFinished}

// ParseStatus converts a wire value into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusWantToRead, StatusCurrentlyReading, StatusFinished:
		return true
	}
	return false
}

// DeriveStatus returns the status implied by reading progress.
// No pages read means the book is still on the wishlist, even for books without a page count.
// Books without a page count can still be marked finished through ApplyStatus; ApplyProgress
// keeps that explicit status because progress carries no information for them.
func DeriveStatus(pagesRead, totalPages int) Status {
	switch {
	case pagesRead <= 0:
		return StatusWantToRead
	case pagesRead >= totalPages:
		return StatusFinished
	default:
		return StatusCurrentlyReading
	}
}

// Book is a tracked reading-list entry owned by a single user.
type Book struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	CoverURL   string    `json:"cover_url"`
	CoverKey   string    `json:"-"`
	CatalogID  string    `json:"catalog_id,omitempty"`
	TotalPages int       `json:"total_pages"`
	PagesRead  int       `json:"pages_read"`
	Status     Status    `json:"status"`
	Rating     *int      `json:"rating,omitempty"`
	Journal    *string   `json:"journal,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasUploadedCover reports whether the cover lives in object storage.
func (b *Book) HasUploadedCover() bool {
	return b.CoverKey != ""
}

// Percent returns reading progress rounded to the nearest whole percent.
func (b *Book) Percent() int {
	if b.TotalPages <= 0 {
		return 0
	}
	return int(math.Round(float64(b.PagesRead) / float64(b.TotalPages) * 100))
}

// MarshalJSON adds the derived progress percentage to the wire form.
func (b Book) MarshalJSON() ([]byte, error) {
	type plain Book
	return json.Marshal(struct {
		plain
		Percent int `json:"percent"`
	}{plain(b), b.Percent()})
}

// Validate checks the invariants every stored book must hold.
func (b *Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(b.Author) == "" {
		return ErrAuthorRequired
	}
	if err := ValidatePages(b.PagesRead, b.TotalPages); err != nil {
		return err
	}
	if !b.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, b.Status)
	}
	if b.Rating != nil {
		if err := ValidateRating(*b.Rating); err != nil {
			return err
		}
	}
	if b.Journal != nil {
		if err := ValidateJournal(*b.Journal); err != nil {
			return err
		}
	}
	return nil
}

// PagesExceedError carries the page count a progress value ran past.
type PagesExceedError struct {
	TotalPages int
}

func (e *PagesExceedError) Error() string {
	return fmt.Sprintf("Pages read cannot exceed total pages (%d).", e.TotalPages)
}

func (e *PagesExceedError) Unwrap() error { return ErrPagesExceedTotal }

// ValidatePages enforces 0 <= pagesRead <= totalPages.
func ValidatePages(pagesRead, totalPages int) error {
	if pagesRead < 0 || totalPages < 0 {
		return ErrNegativePages
	}
	if pagesRead > totalPages {
		return &PagesExceedError{TotalPages: totalPages}
	}
	return nil
}

// ValidateRating enforces the 1..5 star range.
func ValidateRating(r int) error {
	if r < 1 || r > 5 {
		return ErrInvalidRating
	}
	return nil
}

// ValidateJournal enforces the journal length limit.
func ValidateJournal(j string) error {
	if utf8.RuneCountInString(j) > MaxJournalLength {
		return ErrJournalTooLong
	}
	return nil
}

// ApplyStatus sets a requested status and the page count it implies.
// Finished books are fully read and wishlist books have no progress. A book marked
// as currently reading keeps its pages, and the stored status then follows them.
func (b *Book) ApplyStatus(st Status, pagesRead int) error {
	if !st.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, st)
	}
	switch st {
	case StatusFinished:
		b.PagesRead = b.TotalPages
		b.Status = StatusFinished
		return nil
	case StatusWantToRead:
		b.PagesRead = 0
		b.Status = StatusWantToRead
		return nil
	}
	if err := ValidatePages(pagesRead, b.TotalPages); err != nil {
		return err
	}
	b.PagesRead = pagesRead
	b.Status = DeriveStatus(pagesRead, b.TotalPages)
	return nil
}

// ApplyProgress records pages read and moves the status accordingly.
// A book without a page count keeps an explicitly set status.
func (b *Book) ApplyProgress(pagesRead int) error {
	if err := ValidatePages(pagesRead, b.TotalPages); err != nil {
		return err
	}
	b.PagesRead = pagesRead
	if b.TotalPages == 0 && b.Status.Valid() {
		return nil
	}
	b.Status = DeriveStatus(pagesRead, b.TotalPages)
	return nil
}
