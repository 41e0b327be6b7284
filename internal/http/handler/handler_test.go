package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"booktracker/internal/auth"
	"booktracker/internal/catalog"
	catalogMocks "booktracker/internal/catalog/mocks"
	"booktracker/internal/http/middleware"
	"booktracker/internal/live"
	"booktracker/internal/model"
	repoMocks "booktracker/internal/repository/mocks"
	"booktracker/internal/service"
	serviceMocks "booktracker/internal/service/mocks"
	"booktracker/internal/validation"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testUser = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

// newApp returns an app whose requests are already authenticated as testUser.
func newApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.UserIDLocalKey, testUser)
		return c.Next()
	})
	return app
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestLivenessCheck(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessCheck())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListBooks(t *testing.T) {
	mockSvc := new(serviceMocks.MockBookService)
	app := newApp()
	app.Get("/books", ListBooks(mockSvc))

	t.Run("success", func(t *testing.T) {
		expectedRes := &service.BookListResult{
			Items: []model.Book{{ID: uuid.New().String(), Title: "Dune", TotalPages: 10, PagesRead: 5}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, testUser, model.Status(""), 10, 0).Return(expectedRes, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/books?limit=10&offset=0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Data  []map[string]any `json:"data"`
			Total int              `json:"total"`
		}
		json.NewDecoder(resp.Body).Decode(&result)
		require.Len(t, result.Data, 1)
		assert.Equal(t, float64(50), result.Data[0]["percent"])
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("status filter", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, testUser, model.StatusFinished, 10, 20).
			Return(&service.BookListResult{Items: []model.Book{}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/books?status=finished&offset=20", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/books?status=abandoned", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "INVALID_STATUS", decodeError(t, resp).Error.Code)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/books?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LIMIT", decodeError(t, resp).Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, testUser, model.Status(""), 10, 0).Return(nil, errors.New("service error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/books", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "INTERNAL_ERROR", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestBookSummary(t *testing.T) {
	mockSvc := new(serviceMocks.MockBookService)
	app := newApp()
	app.Get("/books/summary", BookSummary(mockSvc))

	mockSvc.On("Summary", mock.Anything, testUser).
		Return(&service.Summary{CurrentlyReading: 1, WantToRead: 2, Finished: 3, Total: 6}, nil)

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/books/summary", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var sum service.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sum))
	assert.Equal(t, 6, sum.Total)
}

func TestCreateBook(t *testing.T) {
	mockSvc := new(serviceMocks.MockBookService)
	app := newApp()
	app.Post("/books", CreateBook(mockSvc, validation.New()))

	t.Run("success", func(t *testing.T) {
		in := service.ManualInput{Title: "Dune", Author: "Frank Herbert", TotalPages: 412, Status: model.StatusCurrentlyReading, PagesRead: 10}
		created := &model.Book{ID: uuid.New().String(), Title: "Dune", Status: model.StatusCurrentlyReading}
		mockSvc.On("AddManual", mock.Anything, testUser, in).Return(created, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/books",
			`{"title":"Dune","author":"Frank Herbert","total_pages":412,"status":"currently_reading","pages_read":10}`))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var result model.Book
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, created.ID, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("validation failed", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/books", `{"author":"Frank Herbert","total_pages":0}`))

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
		assert.Equal(t, "is required", body.Error.Fields["title"])
		assert.Contains(t, body.Error.Fields, "total_pages")
	})

	t.Run("unknown status", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/books", `{"title":"Dune","author":"Frank Herbert","total_pages":10,"status":"paused"}`))

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "INVALID_STATUS", decodeError(t, resp).Error.Code)
	})

	t.Run("pages exceed total", func(t *testing.T) {
		mockSvc.On("AddManual", mock.Anything, testUser, mock.Anything).
			Return(nil, &model.PagesExceedError{TotalPages: 10}).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/books",
			`{"title":"Dune","author":"Frank Herbert","total_pages":10,"status":"currently_reading","pages_read":11}`))

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "PAGES_EXCEED_TOTAL", body.Error.Code)
		assert.Equal(t, "Pages read cannot exceed total pages (10).", body.Error.Message)
		mockSvc.AssertExpectations(t)
	})

	t.Run("malformed json", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/books", `{"title":`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "BAD_REQUEST", decodeError(t, resp).Error.Code)
	})
}

func TestCreateBookFromCatalog(t *testing.T) {
	mockSvc := new(serviceMocks.MockBookService)
	app := newApp()
	app.Post("/books/catalog", CreateBookFromCatalog(mockSvc, validation.New()))

	tests := []struct {
		name       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{name: "created", wantStatus: http.StatusCreated},
		{name: "volume missing", svcErr: catalog.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "catalog down", svcErr: catalog.ErrUpstream, wantStatus: http.StatusBadGateway, wantCode: "CATALOG_UNAVAILABLE"},
		{name: "catalog throttled", svcErr: catalog.ErrRateLimited, wantStatus: http.StatusTooManyRequests, wantCode: "RATE_LIMITED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := service.CatalogInput{VolumeID: "vol-1", Status: model.StatusWantToRead}
			if tt.svcErr != nil {
				mockSvc.On("AddFromCatalog", mock.Anything, testUser, in).Return(nil, tt.svcErr).Once()
			} else {
				mockSvc.On("AddFromCatalog", mock.Anything, testUser, in).Return(&model.Book{ID: "b1"}, nil).Once()
			}

			resp, _ := app.Test(jsonRequest(http.MethodPost, "/books/catalog", `{"volume_id":"vol-1","status":"want_to_read"}`))

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, resp).Error.Code)
			}
			mockSvc.AssertExpectations(t)
		})
	}

	t.Run("volume id required", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/books/catalog", `{}`))
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestGetBook(t *testing.T) {
	mockSvc := new(serviceMocks.MockBookService)
	app := newApp()
	app.Get("/books/:id", GetBook(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, testUser, id).Return(&model.Book{ID: id, Title: "Dune"}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/books/"+id, nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result model.Book
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, testUser, id).Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/books/"+id, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/books/invalid-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})

	t.Run("raw sql error is not leaked as not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, testUser, id).Return(nil, sql.ErrConnDone).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/books/"+id, nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestBookMutations(t *testing.T) {
	mockSvc := new(serviceMocks.MockBookService)
	app := newApp()
	v := validation.New()
	app.Patch("/books/:id/progress", UpdateProgress(mockSvc, v))
	app.Patch("/books/:id/status", SetStatus(mockSvc, v))
	app.Put("/books/:id/rating", RateBook(mockSvc, v))
	app.Put("/books/:id/journal", UpdateJournal(mockSvc, v))

	id := uuid.New().String()
	five := 5
	journal := "Loved it."

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		setup      func()
		wantStatus int
		wantCode   string
	}{
		{
			name: "progress", method: http.MethodPatch, path: "/books/" + id + "/progress", body: `{"pages_read":120}`,
			setup: func() {
				mockSvc.On("UpdateProgress", mock.Anything, testUser, id, 120).Return(&model.Book{ID: id}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "progress zero is allowed", method: http.MethodPatch, path: "/books/" + id + "/progress", body: `{"pages_read":0}`,
			setup: func() {
				mockSvc.On("UpdateProgress", mock.Anything, testUser, id, 0).Return(&model.Book{ID: id}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "progress missing pages", method: http.MethodPatch, path: "/books/" + id + "/progress", body: `{}`,
			setup: func() {}, wantStatus: http.StatusUnprocessableEntity, wantCode: "VALIDATION_FAILED",
		},
		{
			name: "progress past the end", method: http.MethodPatch, path: "/books/" + id + "/progress", body: `{"pages_read":999}`,
			setup: func() {
				mockSvc.On("UpdateProgress", mock.Anything, testUser, id, 999).Return(nil, &model.PagesExceedError{TotalPages: 412}).Once()
			},
			wantStatus: http.StatusUnprocessableEntity, wantCode: "PAGES_EXCEED_TOTAL",
		},
		{
			name: "status with pages", method: http.MethodPatch, path: "/books/" + id + "/status", body: `{"status":"currently_reading","pages_read":5}`,
			setup: func() {
				mockSvc.On("SetStatus", mock.Anything, testUser, id, model.StatusCurrentlyReading, &five).Return(&model.Book{ID: id}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "status conflict", method: http.MethodPatch, path: "/books/" + id + "/status", body: `{"status":"currently_reading"}`,
			setup: func() {
				mockSvc.On("SetStatus", mock.Anything, testUser, id, model.StatusCurrentlyReading, (*int)(nil)).Return(nil, service.ErrStatusConflict).Once()
			},
			wantStatus: http.StatusConflict, wantCode: "INVALID_STATUS",
		},
		{
			name: "status unknown", method: http.MethodPatch, path: "/books/" + id + "/status", body: `{"status":"paused"}`,
			setup: func() {}, wantStatus: http.StatusUnprocessableEntity, wantCode: "INVALID_STATUS",
		},
		{
			name: "rating with journal", method: http.MethodPut, path: "/books/" + id + "/rating", body: `{"rating":5,"journal":"Loved it."}`,
			setup: func() {
				mockSvc.On("Rate", mock.Anything, testUser, id, 5, &journal).Return(&model.Book{ID: id}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "rating out of range", method: http.MethodPut, path: "/books/" + id + "/rating", body: `{"rating":0}`,
			setup: func() {
				mockSvc.On("Rate", mock.Anything, testUser, id, 0, (*string)(nil)).Return(nil, model.ErrInvalidRating).Once()
			},
			wantStatus: http.StatusUnprocessableEntity, wantCode: "INVALID_RATING",
		},
		{
			name: "journal cleared", method: http.MethodPut, path: "/books/" + id + "/journal", body: `{"journal":""}`,
			setup: func() {
				mockSvc.On("UpdateJournal", mock.Anything, testUser, id, "").Return(&model.Book{ID: id}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "journal too long", method: http.MethodPut, path: "/books/" + id + "/journal", body: `{"journal":"x"}`,
			setup: func() {
				mockSvc.On("UpdateJournal", mock.Anything, testUser, id, "x").Return(nil, model.ErrJournalTooLong).Once()
			},
			wantStatus: http.StatusUnprocessableEntity, wantCode: "VALIDATION_FAILED",
		},
		{
			name: "foreign book", method: http.MethodPut, path: "/books/" + id + "/journal", body: `{"journal":"x"}`,
			setup: func() {
				mockSvc.On("UpdateJournal", mock.Anything, testUser, id, "x").Return(nil, service.ErrNotFound).Once()
			},
			wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()

			resp, _ := app.Test(jsonRequest(tt.method, tt.path, tt.body))

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, resp).Error.Code)
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestDeleteBook(t *testing.T) {
	mockSvc := new(serviceMocks.MockBookService)
	app := newApp()
	app.Delete("/books/:id", DeleteBook(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, testUser, id).Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/books/"+id, nil))

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, testUser, id).Return(service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/books/"+id, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, testUser, id).Return(errors.New("delete error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/books/"+id, nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func coverForm(t *testing.T, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="cover.png"`)
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	part.Write([]byte("\x89PNG"))
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadCover(t *testing.T) {
	mockSvc := new(serviceMocks.MockBookService)
	app := newApp()
	app.Post("/books/:id/cover", UploadCover(mockSvc))
	id := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		body, ct := coverForm(t, "image/png")
		mockSvc.On("UploadCover", mock.Anything, testUser, id, mock.Anything, "cover.png", "image/png", int64(4)).
			Return(&model.Book{ID: id}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/books/"+id+"/cover", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/books/"+id+"/cover", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("not an image", func(t *testing.T) {
		body, ct := coverForm(t, "application/pdf")
		mockSvc.On("UploadCover", mock.Anything, testUser, id, mock.Anything, "cover.png", "application/pdf", int64(4)).
			Return(nil, service.ErrUnsupportedCover).Once()

		req := httptest.NewRequest(http.MethodPost, "/books/"+id+"/cover", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetCover(t *testing.T) {
	mockSvc := new(serviceMocks.MockBookService)
	app := newApp()
	app.Get("/books/:id/cover", GetCover(mockSvc))
	id := uuid.New().String()

	mockSvc.On("CoverURL", mock.Anything, testUser, id).Return("https://covers.test/dune.jpg", nil).Once()
	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/books/"+id+"/cover", nil))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://covers.test/dune.jpg", resp.Header.Get("Location"))

	mockSvc.On("CoverURL", mock.Anything, testUser, id).Return("", service.ErrNoCover).Once()
	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/books/"+id+"/cover", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchCatalog(t *testing.T) {
	mockCat := new(catalogMocks.MockCatalog)
	app := newApp()
	app.Get("/catalog/search", SearchCatalog(mockCat))

	t.Run("results", func(t *testing.T) {
		mockCat.On("Search", mock.Anything, "dune", 20).
			Return([]catalog.Volume{{ID: "v1", Title: "Dune", Author: "Frank Herbert", PageCount: 412}}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/catalog/search?q=dune", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body searchResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Data, 1)
		assert.Equal(t, "Frank Herbert", body.Data[0].Author)
	})

	t.Run("empty query", func(t *testing.T) {
		mockCat.On("Search", mock.Anything, "", 5).Return(nil, catalog.ErrEmptyQuery).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/catalog/search?limit=5", nil))

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "VALIDATION_FAILED", decodeError(t, resp).Error.Code)
	})

	mockCat.AssertExpectations(t)
}

func TestAuthHandlers(t *testing.T) {
	mockSvc := new(serviceMocks.MockAuthService)
	app := newApp()
	app.Post("/auth/google", SignInGoogle(mockSvc, validation.New()))
	app.Post("/auth/anonymous", SignInAnonymous(mockSvc))
	app.Get("/auth/me", Me(mockSvc))

	user := &model.User{ID: testUser, Provider: model.ProviderGoogle, Email: "reader@example.com"}
	result := &service.AuthResult{User: user, Token: auth.Token{AccessToken: "jwt", TokenType: "Bearer"}}

	t.Run("google", func(t *testing.T) {
		mockSvc.On("SignInGoogle", mock.Anything, "google-token").Return(result, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/auth/google", `{"id_token":"google-token"}`))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "jwt", body["access_token"])
		assert.Equal(t, "Bearer", body["token_type"])
	})

	t.Run("google rejected", func(t *testing.T) {
		mockSvc.On("SignInGoogle", mock.Anything, "forged").Return(nil, auth.ErrInvalidGoogleToken).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/auth/google", `{"id_token":"forged"}`))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Error.Code)
	})

	t.Run("google token missing", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/auth/google", `{}`))
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("anonymous", func(t *testing.T) {
		mockSvc.On("SignInAnonymous", mock.Anything).Return(result, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/auth/anonymous", nil))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("me", func(t *testing.T) {
		mockSvc.On("Me", mock.Anything, testUser).Return(user, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/auth/me", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var u model.User
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&u))
		assert.Equal(t, "reader@example.com", u.Email)
	})

	mockSvc.AssertExpectations(t)
}

func TestStreamBooks(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("initial snapshot", func(t *testing.T) {
		repo := new(repoMocks.MockBookRepository)
		repo.On("ListAll", mock.Anything, testUser).Return([]model.Book{{ID: "b1", Title: "Dune"}}, nil)
		hub := live.NewHub(repo, logger, nil, time.Hour)

		ctx, cancel := context.WithCancel(context.Background())
		go hub.Start(ctx)
		// Shutting the hub down ends the stream so the test client sees a complete body.
		time.AfterFunc(200*time.Millisecond, cancel)

		app := newApp()
		app.Get("/books/stream", StreamBooks(hub))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/books/stream", nil), 5000)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(raw), "event: snapshot\n")
		assert.Contains(t, string(raw), `"id":"b1"`)
		assert.False(t, hub.HasClients(testUser))
	})

	t.Run("snapshot failure", func(t *testing.T) {
		repo := new(repoMocks.MockBookRepository)
		repo.On("ListAll", mock.Anything, testUser).Return(nil, errors.New("db down"))
		hub := live.NewHub(repo, logger, nil, time.Hour)

		app := newApp()
		app.Get("/books/stream", StreamBooks(hub))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/books/stream", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.False(t, hub.HasClients(testUser))
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	RegisterRoutes(app, Deps{
		Books:   new(serviceMocks.MockBookService),
		Auth:    new(serviceMocks.MockAuthService),
		Catalog: new(catalogMocks.MockCatalog),
		Tokens:  rejectAll{},
	})

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})

	t.Run("books require a token", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/books", nil))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp).Error.Code)
	})

	t.Run("catalog requires a token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/catalog/search?q=dune", nil)
		req.Header.Set("Authorization", "Bearer nope")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

type rejectAll struct{}

func (rejectAll) Parse(string) (*auth.Claims, error) { return nil, auth.ErrInvalidToken }
