package handler

import (
	"github.com/gofiber/fiber/v2"

	"booktracker/internal/http/middleware"
	"booktracker/internal/model"
	"booktracker/internal/service"
	"booktracker/internal/validation"
)

type createBookRequest struct {
	Title      string `json:"title" validate:"required,max=500"`
	Author     string `json:"author" validate:"required,max=500"`
	CoverURL   string `json:"cover_url" validate:"omitempty,url"`
	TotalPages int    `json:"total_pages" validate:"gt=0"`
	Status     string `json:"status"`
	PagesRead  int    `json:"pages_read" validate:"gte=0"`
}

type catalogBookRequest struct {
	VolumeID  string `json:"volume_id" validate:"required"`
	Status    string `json:"status"`
	PagesRead int    `json:"pages_read" validate:"gte=0"`
}

type progressRequest struct {
	PagesRead *int `json:"pages_read" validate:"required"`
}

type statusRequest struct {
	Status    string `json:"status" validate:"required"`
	PagesRead *int   `json:"pages_read,omitempty"`
}

type ratingRequest struct {
	Rating  int     `json:"rating"`
	Journal *string `json:"journal,omitempty"`
}

type journalRequest struct {
	Journal *string `json:"journal" validate:"required"`
}

// optionalStatus parses a status that may be left empty.
func optionalStatus(s string) (model.Status, error) {
	if s == "" {
		return "", nil
	}
	return model.ParseStatus(s)
}

// ListBooks returns the caller's books, newest first.
//
// @Summary  List books
// @Tags     books
// @Produce  json
// @Security BearerAuth
// @Param    status query string false "want_to_read | currently_reading | finished"
// @Param    limit  query int    false "page size"
// @Param    offset query int    false "page offset"
// @Success  200 {object} service.BookListResult
// @Router   /books [get]
func ListBooks(svc service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, ok, err := paging(c, 10)
		if !ok {
			return err
		}
		status, err := optionalStatus(c.Query("status"))
		if err != nil {
			return writeDomainError(c, err)
		}
		res, err := svc.List(c.UserContext(), middleware.UserID(c), status, limit, offset)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(res)
	}
}

// BookSummary returns per-status counts.
//
// @Summary  Count books per status
// @Tags     books
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} service.Summary
// @Router   /books/summary [get]
func BookSummary(svc service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sum, err := svc.Summary(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(sum)
	}
}

// CreateBook adds a manually entered book.
//
// @Summary  Add a book by hand
// @Tags     books
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body createBookRequest true "book"
// @Success  201 {object} model.Book
// @Failure  422 {object} errorPayload
// @Router   /books [post]
func CreateBook(svc service.BookService, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createBookRequest
		if handled, err := decodeBody(c, v, &req); handled {
			return err
		}
		status, err := optionalStatus(req.Status)
		if err != nil {
			return writeDomainError(c, err)
		}
		book, err := svc.AddManual(c.UserContext(), middleware.UserID(c), service.ManualInput{
			Title:      req.Title,
			Author:     req.Author,
			CoverURL:   req.CoverURL,
			TotalPages: req.TotalPages,
			Status:     status,
			PagesRead:  req.PagesRead,
		})
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(book)
	}
}

// CreateBookFromCatalog adds a book picked from search results.
//
// @Summary  Add a catalog book
// @Tags     books
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body catalogBookRequest true "catalog selection"
// @Success  201 {object} model.Book
// @Failure  404 {object} errorPayload
// @Failure  422 {object} errorPayload
// @Router   /books/catalog [post]
func CreateBookFromCatalog(svc service.BookService, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req catalogBookRequest
		if handled, err := decodeBody(c, v, &req); handled {
			return err
		}
		status, err := optionalStatus(req.Status)
		if err != nil {
			return writeDomainError(c, err)
		}
		book, err := svc.AddFromCatalog(c.UserContext(), middleware.UserID(c), service.CatalogInput{
			VolumeID:  req.VolumeID,
			Status:    status,
			PagesRead: req.PagesRead,
		})
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(book)
	}
}

// GetBook returns one book.
//
// @Summary  Get a book
// @Tags     books
// @Produce  json
// @Security BearerAuth
// @Param    id path string true "book id"
// @Success  200 {object} model.Book
// @Failure  404 {object} errorPayload
// @Router   /books/{id} [get]
func GetBook(svc service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := bookID(c)
		if !ok {
			return err
		}
		book, err := svc.Get(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(book)
	}
}

// UpdateProgress records pages read.
//
// @Summary  Update reading progress
// @Tags     books
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id   path string          true "book id"
// @Param    body body progressRequest true "pages read"
// @Success  200 {object} model.Book
// @Failure  422 {object} errorPayload
// @Router   /books/{id}/progress [patch]
func UpdateProgress(svc service.BookService, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := bookID(c)
		if !ok {
			return err
		}
		var req progressRequest
		if handled, err := decodeBody(c, v, &req); handled {
			return err
		}
		book, err := svc.UpdateProgress(c.UserContext(), middleware.UserID(c), id, *req.PagesRead)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(book)
	}
}

// SetStatus moves a book to another status.
//
// @Summary  Change status
// @Tags     books
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id   path string        true "book id"
// @Param    body body statusRequest true "new status"
// @Success  200 {object} model.Book
// @Failure  409 {object} errorPayload
// @Failure  422 {object} errorPayload
// @Router   /books/{id}/status [patch]
func SetStatus(svc service.BookService, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := bookID(c)
		if !ok {
			return err
		}
		var req statusRequest
		if handled, err := decodeBody(c, v, &req); handled {
			return err
		}
		status, err := model.ParseStatus(req.Status)
		if err != nil {
			return writeDomainError(c, err)
		}
		book, err := svc.SetStatus(c.UserContext(), middleware.UserID(c), id, status, req.PagesRead)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(book)
	}
}

// RateBook sets the star rating and optionally the journal.
//
// @Summary  Rate a book
// @Tags     books
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id   path string        true "book id"
// @Param    body body ratingRequest true "rating 1-5"
// @Success  200 {object} model.Book
// @Failure  422 {object} errorPayload
// @Router   /books/{id}/rating [put]
func RateBook(svc service.BookService, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := bookID(c)
		if !ok {
			return err
		}
		var req ratingRequest
		if handled, err := decodeBody(c, v, &req); handled {
			return err
		}
		book, err := svc.Rate(c.UserContext(), middleware.UserID(c), id, req.Rating, req.Journal)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(book)
	}
}

// UpdateJournal replaces the journal entry.
//
// @Summary  Edit journal
// @Tags     books
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id   path string         true "book id"
// @Param    body body journalRequest true "journal text"
// @Success  200 {object} model.Book
// @Router   /books/{id}/journal [put]
func UpdateJournal(svc service.BookService, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := bookID(c)
		if !ok {
			return err
		}
		var req journalRequest
		if handled, err := decodeBody(c, v, &req); handled {
			return err
		}
		book, err := svc.UpdateJournal(c.UserContext(), middleware.UserID(c), id, *req.Journal)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(book)
	}
}

// DeleteBook removes a book and its uploaded cover.
//
// @Summary  Delete a book
// @Tags     books
// @Security BearerAuth
// @Param    id path string true "book id"
// @Success  204
// @Failure  404 {object} errorPayload
// @Router   /books/{id} [delete]
func DeleteBook(svc service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := bookID(c)
		if !ok {
			return err
		}
		if err := svc.Delete(c.UserContext(), middleware.UserID(c), id); err != nil {
			return writeDomainError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UploadCover stores a cover image (multipart/form-data, field name: file).
//
// @Summary  Upload a cover
// @Tags     books
// @Accept   multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param    id   path     string true "book id"
// @Param    file formData file   true "cover image"
// @Success  200 {object} model.Book
// @Failure  400 {object} errorPayload
// @Failure  415 {object} errorPayload
// @Router   /books/{id}/cover [post]
func UploadCover(svc service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := bookID(c)
		if !ok {
			return err
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		book, err := svc.UploadCover(c.UserContext(), middleware.UserID(c), id, f, fh.Filename, ct, fh.Size)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(book)
	}
}

// GetCover redirects to the book's cover image.
//
// @Summary  Fetch a cover
// @Tags     books
// @Security BearerAuth
// @Param    id path string true "book id"
// @Success  302
// @Failure  404 {object} errorPayload
// @Router   /books/{id}/cover [get]
func GetCover(svc service.BookService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := bookID(c)
		if !ok {
			return err
		}
		u, err := svc.CoverURL(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.Redirect(u, fiber.StatusFound)
	}
}
