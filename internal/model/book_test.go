package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name       string
		pagesRead  int
		totalPages int
		want       Status
	}{
		{name: "nothing read", pagesRead: 0, totalPages: 300, want: StatusWantToRead},
		{name: "partially read", pagesRead: 120, totalPages: 300, want: StatusCurrentlyReading},
		{name: "last page", pagesRead: 300, totalPages: 300, want: StatusFinished},
		{name: "unknown page count", pagesRead: 0, totalPages: 0, want: StatusWantToRead},
		{name: "single page", pagesRead: 1, totalPages: 1, want: StatusFinished},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.pagesRead, tt.totalPages))
		})
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("finished")
	assert.NoError(t, err)
	assert.Equal(t, StatusFinished, st)

	_, err = ParseStatus("wantToRead")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestValidatePages(t *testing.T) {
	assert.NoError(t, ValidatePages(0, 0))
	assert.NoError(t, ValidatePages(10, 10))
	assert.ErrorIs(t, ValidatePages(-1, 10), ErrNegativePages)

	err := ValidatePages(11, 10)
	assert.ErrorIs(t, err, ErrPagesExceedTotal)
	var pe *PagesExceedError
	if assert.True(t, errors.As(err, &pe)) {
		assert.Equal(t, 10, pe.TotalPages)
	}
	assert.Equal(t, "Pages read cannot exceed total pages (10).", err.Error())
}

func TestBook_Validate(t *testing.T) {
	rating := 4
	bad := 6
	long := strings.Repeat("a", MaxJournalLength+1)

	valid := func() Book {
		return Book{Title: "Dune", Author: "Frank Herbert", TotalPages: 412, PagesRead: 10, Status: StatusCurrentlyReading}
	}

	tests := []struct {
		name    string
		mutate  func(b *Book)
		wantErr error
	}{
		{name: "valid", mutate: func(b *Book) {}},
		{name: "valid with rating", mutate: func(b *Book) { b.Rating = &rating }},
		{name: "blank title", mutate: func(b *Book) { b.Title = "  " }, wantErr: ErrTitleRequired},
		{name: "blank author", mutate: func(b *Book) { b.Author = "" }, wantErr: ErrAuthorRequired},
		{name: "pages exceed total", mutate: func(b *Book) { b.PagesRead = 500 }, wantErr: ErrPagesExceedTotal},
		{name: "unknown status", mutate: func(b *Book) { b.Status = "reading" }, wantErr: ErrInvalidStatus},
		{name: "rating out of range", mutate: func(b *Book) { b.Rating = &bad }, wantErr: ErrInvalidRating},
		{name: "journal too long", mutate: func(b *Book) { b.Journal = &long }, wantErr: ErrJournalTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid()
			tt.mutate(&b)
			err := b.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestBook_ApplyProgress(t *testing.T) {
	b := Book{TotalPages: 200, Status: StatusWantToRead}

	assert.NoError(t, b.ApplyProgress(50))
	assert.Equal(t, StatusCurrentlyReading, b.Status)
	assert.Equal(t, 25, b.Percent())

	assert.NoError(t, b.ApplyProgress(200))
	assert.Equal(t, StatusFinished, b.Status)

	assert.NoError(t, b.ApplyProgress(0))
	assert.Equal(t, StatusWantToRead, b.Status)

	assert.ErrorIs(t, b.ApplyProgress(201), ErrPagesExceedTotal)
	assert.Equal(t, 0, b.PagesRead, "rejected progress must not mutate the book")
}

func TestBook_ApplyProgressWithoutPageCount(t *testing.T) {
	b := Book{Title: "Zine", Author: "Anon", TotalPages: 0}

	assert.NoError(t, b.ApplyProgress(0))
	assert.Equal(t, StatusWantToRead, b.Status)

	assert.NoError(t, b.ApplyStatus(StatusFinished, 0))
	assert.Equal(t, StatusFinished, b.Status)
	assert.Equal(t, 0, b.PagesRead)
	assert.NoError(t, b.Validate())

	assert.NoError(t, b.ApplyProgress(0))
	assert.Equal(t, StatusFinished, b.Status, "explicit status survives a no-op progress update")

	assert.ErrorIs(t, b.ApplyProgress(1), ErrPagesExceedTotal)
	assert.Equal(t, StatusFinished, b.Status)
}

func TestBook_ApplyStatus(t *testing.T) {
	b := Book{TotalPages: 300, PagesRead: 42, Status: StatusCurrentlyReading}

	assert.NoError(t, b.ApplyStatus(StatusFinished, 0))
	assert.Equal(t, 300, b.PagesRead)
	assert.Equal(t, StatusFinished, b.Status)

	assert.NoError(t, b.ApplyStatus(StatusWantToRead, 99))
	assert.Equal(t, 0, b.PagesRead)
	assert.Equal(t, StatusWantToRead, b.Status)

	assert.NoError(t, b.ApplyStatus(StatusCurrentlyReading, 10))
	assert.Equal(t, 10, b.PagesRead)
	assert.Equal(t, StatusCurrentlyReading, b.Status)

	assert.ErrorIs(t, b.ApplyStatus(StatusCurrentlyReading, 301), ErrPagesExceedTotal)
	assert.ErrorIs(t, b.ApplyStatus("paused", 0), ErrInvalidStatus)
}

func TestBook_Percent(t *testing.T) {
	assert.Equal(t, 0, (&Book{}).Percent())
	assert.Equal(t, 33, (&Book{TotalPages: 3, PagesRead: 1}).Percent())
	assert.Equal(t, 67, (&Book{TotalPages: 3, PagesRead: 2}).Percent())
}

func TestBook_MarshalJSON(t *testing.T) {
	rating := 4
	b := Book{ID: "b1", Title: "Dune", TotalPages: 4, PagesRead: 1, Status: StatusCurrentlyReading, CoverKey: "covers/secret.png", Rating: &rating}

	raw, err := json.Marshal(b)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, float64(25), got["percent"])
	assert.Equal(t, "currently_reading", got["status"])
	assert.Equal(t, float64(4), got["rating"])
	assert.NotContains(t, got, "cover_key")
	assert.NotContains(t, got, "CoverKey")
	assert.NotContains(t, got, "journal")
}
