package repository

import (
	"context"

	"booktracker/internal/model"
)

// UserRepository defines data access for signed-in identities.
type UserRepository interface {
	// Create inserts a user and returns the stored row.
	Create(ctx context.Context, user *model.User) (*model.User, error)

	// FindByID returns a user by ID.
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindBySubject returns the user a provider identity maps to.
	FindBySubject(ctx context.Context, provider model.Provider, subject string) (*model.User, error)
}
