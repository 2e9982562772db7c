package handlers

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/licenseportal/internal/services"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusBadRequest, StatusFor(services.KindValidation))
	assert.Equal(t, fiber.StatusConflict, StatusFor(services.KindConflict))
	assert.Equal(t, fiber.StatusNotFound, StatusFor(services.KindNotFound))
	assert.Equal(t, fiber.StatusUnauthorized, StatusFor(services.KindUnauthorized))
	assert.Equal(t, fiber.StatusForbidden, StatusFor(services.KindForbidden))
	assert.Equal(t, fiber.StatusTooManyRequests, StatusFor(services.KindRateLimited))
	assert.Equal(t, fiber.StatusInternalServerError, StatusFor(services.KindInternal))
	assert.Equal(t, fiber.StatusInternalServerError, StatusFor("mystery"))
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		kind    string
		message string
	}{
		{"service error", services.NewError(services.KindConflict, "user already exists"), 409, "conflict", "user already exists"},
		{"internal hides cause", services.Internal("registration failed", errors.New("pq: connection refused")), 500, "internal", "registration failed"},
		{"fiber error", fiber.NewError(fiber.StatusBadRequest, "invalid request body"), 400, "validation_error", "invalid request body"},
		{"unknown error", errors.New("boom"), 500, "internal", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zerolog.Nop())})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.kind, body["error"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}
