package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Pagination holds pagination parameters. A zero Limit means no paging.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// Paged reports whether a page window was requested.
func (p Pagination) Paged() bool {
	return p.Limit > 0
}

// ParsePagination reads page and limit query params. Paging is opt-in: when
// neither param is given the zero Pagination is returned.
func ParsePagination(c *fiber.Ctx) Pagination {
	if c.Query("page") == "" && c.Query("limit") == "" {
		return Pagination{}
	}

	page := parseInt(c.Query("page", "1"), 1)
	limit := parseInt(c.Query("limit", "20"), 20)
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	if page <= 0 {
		page = 1
	}

	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}
