package postgres

import (
	"context"
	"database/sql"

	"booktracker/internal/model"
	"booktracker/internal/repository"
)

const userColumns = `id, provider, subject, email, display_name, created_at`

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u        model.User
		provider string
	)
	if err := row.Scan(&u.ID, &provider, &u.Subject, &u.Email, &u.DisplayName, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Provider = model.Provider(provider)
	return &u, nil
}

// Create inserts a user. A concurrent sign-in for the same identity resolves to the existing row.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (id, provider, subject, email, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider, subject) DO UPDATE SET email = EXCLUDED.email, display_name = EXCLUDED.display_name
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, q,
		u.ID,
		string(u.Provider),
		u.Subject,
		u.Email,
		u.DisplayName,
		u.CreatedAt,
	))
}

// FindByID fetches a user by ID.
func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

// FindBySubject fetches the user bound to a provider identity.
func (r *UserPostgres) FindBySubject(ctx context.Context, provider model.Provider, subject string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE provider = $1 AND subject = $2`
	return scanUser(r.db.QueryRowContext(ctx, q, string(provider), subject))
}
