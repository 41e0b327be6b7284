package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"booktracker/internal/auth"
)

const (
	// UserIDLocalKey is the locals key holding the authenticated user's id.
	UserIDLocalKey = "user_id"
	// AccessTokenQuery carries the token for EventSource clients, which cannot set headers.
	AccessTokenQuery = "access_token"
)

// TokenParser validates an access token.
type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// Auth rejects requests without a valid bearer token and stores the subject under UserIDLocalKey.
func Auth(p TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			raw = c.Query(AccessTokenQuery)
		}
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing access token")
		}

		claims, err := p.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid access token")
		}

		c.Locals(UserIDLocalKey, claims.Subject)
		return c.Next()
	}
}

// UserID returns the id stored by Auth, or "" on unauthenticated routes.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDLocalKey).(string)
	return id
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
