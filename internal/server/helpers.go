package server

import (
	"errors"

	"github.com/dphkjp2001/CNAPSS-sub001/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const maxPaginationLimit = 100

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{Limit: limit, Offset: offset}
}

// parseID extracts a route parameter by name as a positive uint. On failure it
// writes a 400 JSON response and returns errResponseWritten; callers should
// check: if err != nil { return nil }.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// currentUserID returns the authenticated user id placed in locals by
// AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// currentSchool returns the tenant partition key from the JWT claim.
func currentSchool(c *fiber.Ctx) string {
	school, _ := c.Locals("school").(string)
	return school
}

// respondRepoError maps raw repository errors onto the API error surface.
// gorm "record not found" becomes 404; application errors keep their own
// status; anything else is a 500.
func respondRepoError(c *fiber.Ctx, err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RespondError(c, models.NewNotFoundError(resource, id))
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return models.RespondError(c, err)
	}
	return models.RespondWithError(c, fiber.StatusInternalServerError, err)
}
