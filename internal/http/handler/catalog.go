package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"booktracker/internal/catalog"
)

type searchResponse struct {
	Data []catalog.Volume `json:"data"`
}

// SearchCatalog queries the public book catalog.
//
// @Summary  Search the catalog
// @Tags     catalog
// @Produce  json
// @Security BearerAuth
// @Param    q     query string true  "search terms"
// @Param    limit query int    false "max results (1-40)"
// @Success  200 {object} searchResponse
// @Failure  422 {object} errorPayload
// @Failure  502 {object} errorPayload
// @Router   /catalog/search [get]
func SearchCatalog(cat catalog.Catalog) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "20"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		vols, err := cat.Search(c.UserContext(), c.Query("q"), limit)
		if err != nil {
			return writeDomainError(c, err)
		}
		if vols == nil {
			vols = []catalog.Volume{}
		}
		return c.JSON(searchResponse{Data: vols})
	}
}
