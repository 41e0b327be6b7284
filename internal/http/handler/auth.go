package handler

import (
	"github.com/gofiber/fiber/v2"

	"booktracker/internal/http/middleware"
	"booktracker/internal/service"
	"booktracker/internal/validation"
)

type googleSignInRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// SignInGoogle exchanges a Google ID token for an access token.
//
// @Summary  Sign in with Google
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body googleSignInRequest true "Google ID token"
// @Success  200 {object} service.AuthResult
// @Failure  401 {object} errorPayload
// @Failure  422 {object} errorPayload
// @Router   /auth/google [post]
func SignInGoogle(svc service.AuthService, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req googleSignInRequest
		if handled, err := decodeBody(c, v, &req); handled {
			return err
		}
		res, err := svc.SignInGoogle(c.UserContext(), req.IDToken)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(res)
	}
}

// SignInAnonymous creates a throwaway account.
//
// @Summary  Sign in anonymously
// @Tags     auth
// @Produce  json
// @Success  201 {object} service.AuthResult
// @Router   /auth/anonymous [post]
func SignInAnonymous(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.SignInAnonymous(c.UserContext())
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// Me returns the signed-in user.
//
// @Summary  Current user
// @Tags     auth
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} model.User
// @Failure  401 {object} errorPayload
// @Router   /auth/me [get]
func Me(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.Me(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(u)
	}
}
