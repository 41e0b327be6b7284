package handler

import (
	"database/sql"
	"slices"
	"time"

	"github.com/gofiber/fiber/v2"

	"booktracker/internal/catalog"
	"booktracker/internal/http/middleware"
	"booktracker/internal/service"
	"booktracker/internal/validation"
)

// Deps are the collaborators the HTTP layer is wired with.
type Deps struct {
	DB        *sql.DB
	Books     service.BookService
	Auth      service.AuthService
	Catalog   catalog.Catalog
	Hub       LiveHub
	Tokens    middleware.TokenParser
	Validator *validation.Validator

	// AuthRateLimit caps sign-in attempts per client IP per minute; 0 disables it.
	AuthRateLimit int
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	if d.Validator == nil {
		d.Validator = validation.New()
	}

	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessCheck())

	signIn := []fiber.Handler{middleware.NoStore()}
	if d.AuthRateLimit > 0 {
		signIn = append(signIn, middleware.RateLimit(d.AuthRateLimit, time.Minute))
	}
	authn := app.Group("/auth")
	authn.Post("/google", append(slices.Clone(signIn), SignInGoogle(d.Auth, d.Validator))...)
	authn.Post("/anonymous", append(slices.Clone(signIn), SignInAnonymous(d.Auth))...)
	authn.Get("/me", middleware.Auth(d.Tokens), middleware.NoStore(), Me(d.Auth))

	app.Get("/catalog/search", middleware.Auth(d.Tokens), SearchCatalog(d.Catalog))

	books := app.Group("/books", middleware.Auth(d.Tokens), middleware.NoStore())
	books.Get("/", ListBooks(d.Books))
	books.Post("/", CreateBook(d.Books, d.Validator))
	books.Get("/summary", BookSummary(d.Books))
	books.Get("/stream", StreamBooks(d.Hub))
	books.Post("/catalog", CreateBookFromCatalog(d.Books, d.Validator))
	books.Get("/:id", GetBook(d.Books))
	books.Delete("/:id", DeleteBook(d.Books))
	books.Patch("/:id/progress", UpdateProgress(d.Books, d.Validator))
	books.Patch("/:id/status", SetStatus(d.Books, d.Validator))
	books.Put("/:id/rating", RateBook(d.Books, d.Validator))
	books.Put("/:id/journal", UpdateJournal(d.Books, d.Validator))
	books.Post("/:id/cover", UploadCover(d.Books))
	books.Get("/:id/cover", GetCover(d.Books))
}
