package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/licenseportal/internal/middleware"
	"github.com/example/licenseportal/internal/services"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	accounts *services.AccountService
	sessions *services.SessionService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(accounts *services.AccountService, sessions *services.SessionService) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions}
}

// Register creates a customer with its first user account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.accounts.Register(c.UserContext(), req)
	if err != nil {
		return err
	}

	message := "Registration successful. Please check your email for the verification code."
	if !result.CodeSent {
		message = "Registration successful, but the verification code could not be sent. Please request a new one."
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":   true,
		"message":   message,
		"email":     result.Email,
		"next_step": result.NextStep,
		"code_sent": result.CodeSent,
	})
}

// Login authenticates a verified, active user.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.sessions.Login(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"token":   result.Token,
		"user":    result.User,
	})
}

// Verify handles email code validation.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req services.VerifyInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.accounts.VerifyCode(c.UserContext(), req); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Account verified successfully. You can now log in.",
	})
}

// ResendCode issues a fresh verification code.
func (h *AuthHandler) ResendCode(c *fiber.Ctx) error {
	var req services.ResendInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.accounts.ResendVerificationCode(c.UserContext(), req); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Verification code sent successfully.",
	})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	user, err := h.sessions.CurrentUser(c.UserContext(), identity.UserID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "user": user})
}
