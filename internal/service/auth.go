package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"booktracker/internal/auth"
	"booktracker/internal/model"
	"booktracker/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

// AuthResult is returned by every sign-in: the user and a bearer token for them.
type AuthResult struct {
	User *model.User `json:"user"`
	auth.Token
}

// AuthService defines sign-in use cases.
type AuthService interface {
	// SignInGoogle verifies a Google ID token and signs in the matching user, creating it on first use.
	SignInGoogle(ctx context.Context, idToken string) (*AuthResult, error)

	// SignInAnonymous creates a fresh anonymous user.
	SignInAnonymous(ctx context.Context) (*AuthResult, error)

	// Me returns the signed-in user.
	Me(ctx context.Context, userID string) (*model.User, error)
}

// TokenIssuer signs access tokens for users.
type TokenIssuer interface {
	Issue(user *model.User) (*auth.Token, error)
}

type authService struct {
	users    repository.UserRepository
	issuer   TokenIssuer
	verifier auth.GoogleVerifier
}

// NewAuthService constructs a new AuthService.
func NewAuthService(users repository.UserRepository, issuer TokenIssuer, verifier auth.GoogleVerifier) AuthService {
	return &authService{users: users, issuer: issuer, verifier: verifier}
}

func (s *authService) SignInGoogle(ctx context.Context, idToken string) (*AuthResult, error) {
	if idToken == "" {
		return nil, auth.ErrInvalidGoogleToken
	}
	id, err := s.verifier.Verify(idToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindBySubject(ctx, model.ProviderGoogle, id.Subject)
	switch {
	case err == nil:
	case errors.Is(err, sql.ErrNoRows):
		user, err = s.users.Create(ctx, &model.User{
			ID:          uuid.New().String(),
			Provider:    model.ProviderGoogle,
			Subject:     id.Subject,
			Email:       id.Email,
			DisplayName: id.Name,
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
	default:
		return nil, fmt.Errorf("find user: %w", err)
	}
	return s.issue(user)
}

func (s *authService) SignInAnonymous(ctx context.Context) (*AuthResult, error) {
	id := uuid.New().String()
	user, err := s.users.Create(ctx, &model.User{
		ID:        id,
		Provider:  model.ProviderAnonymous,
		Subject:   id,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.issue(user)
}

func (s *authService) Me(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, ErrIDRequired
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) issue(user *model.User) (*AuthResult, error) {
	tok, err := s.issuer.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: *tok}, nil
}
