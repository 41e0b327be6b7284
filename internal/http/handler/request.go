package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"booktracker/internal/validation"
)

var errBadBody = errors.New("malformed request body")

// decodeBody parses a JSON body into dst and runs struct validation on it.
// It writes the error response itself; callers return the result as-is when handled is true.
func decodeBody(c *fiber.Ctx, v *validation.Validator, dst any) (handled bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return true, writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", errBadBody.Error())
	}
	if err := v.Validate(dst); err != nil {
		return true, writeDomainError(c, err)
	}
	return false, nil
}

// bookID returns the :id param, or writes INVALID_ID when it is not a UUID.
func bookID(c *fiber.Ctx) (string, bool, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false, writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	return id, true, nil
}

// paging reads limit and offset query params.
func paging(c *fiber.Ctx, defLimit int) (limit, offset int, ok bool, err error) {
	limit, convErr := strconv.Atoi(c.Query("limit", strconv.Itoa(defLimit)))
	if convErr != nil {
		return 0, 0, false, writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
	}
	offset, convErr = strconv.Atoi(c.Query("offset", "0"))
	if convErr != nil {
		return 0, 0, false, writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
	}
	return limit, offset, true, nil
}
