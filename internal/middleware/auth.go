package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/licenseportal/internal/services"
)

const identityContextKey = "currentIdentity"

// Authenticator resolves a bearer token to an active identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.Identity, error)
}

// RequireAuth rejects requests without a valid bearer token for an active
// account and, when roles are given, accounts whose role is not listed.
func RequireAuth(auth Authenticator, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if authHeader == "" {
			return services.NewError(services.KindUnauthorized, "no token provided")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return services.NewError(services.KindUnauthorized, "invalid token")
		}

		identity, err := auth.Authenticate(c.UserContext(), strings.TrimSpace(parts[1]))
		if err != nil {
			return err
		}

		c.Locals(identityContextKey, identity)
		if err := services.Authorize(identity, roles); err != nil {
			return err
		}
		return c.Next()
	}
}

// CurrentIdentity extracts the authenticated identity from context.
func CurrentIdentity(c *fiber.Ctx) (*services.Identity, bool) {
	identity, ok := c.Locals(identityContextKey).(*services.Identity)
	return identity, ok && identity != nil
}
