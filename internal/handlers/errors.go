package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/example/licenseportal/internal/services"
)

var kindStatus = map[services.Kind]int{
	services.KindValidation:   fiber.StatusBadRequest,
	services.KindConflict:     fiber.StatusConflict,
	services.KindNotFound:     fiber.StatusNotFound,
	services.KindUnauthorized: fiber.StatusUnauthorized,
	services.KindForbidden:    fiber.StatusForbidden,
	services.KindRateLimited:  fiber.StatusTooManyRequests,
	services.KindInternal:     fiber.StatusInternalServerError,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind services.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

func kindFor(status int) services.Kind {
	for kind, s := range kindStatus {
		if s == status {
			return kind
		}
	}
	if status >= 500 {
		return services.KindInternal
	}
	return services.Kind(http.StatusText(status))
}

// ErrorHandler renders every failure as {"success": false, "error", "message"}.
// Errors that are neither service nor fiber errors are logged and reported
// as a generic internal error.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		kind := services.KindInternal
		message := "internal server error"

		var svcErr *services.Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &svcErr):
			kind = svcErr.Kind
			status = StatusFor(kind)
			message = svcErr.Message
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			kind = kindFor(status)
			message = fiberErr.Message
		default:
			log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("unhandled error")
		}

		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"error":   kind,
			"message": message,
		})
	}
}
