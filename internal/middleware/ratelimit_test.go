package middleware_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/licenseportal/internal/handlers"
	"github.com/example/licenseportal/internal/middleware"
)

func TestRateLimiter_RejectsAfterBurst(t *testing.T) {
	limiter := middleware.NewRateLimiter(0.5, 2, zerolog.Nop())

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(zerolog.Nop())})
	app.Use(limiter.Handler())
	app.Post("/login", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	statuses := make([]int, 0, 3)
	var retryAfter string
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
		retryAfter = resp.Header.Get(fiber.HeaderRetryAfter)
		resp.Body.Close()
	}

	assert.Equal(t, []int{fiber.StatusNoContent, fiber.StatusNoContent, fiber.StatusTooManyRequests}, statuses)
	assert.Equal(t, "2", retryAfter)
}
