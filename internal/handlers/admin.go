package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/licenseportal/internal/services"
	"github.com/example/licenseportal/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	accounts *services.AccountService
	licenses *services.LicenseService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(accounts *services.AccountService, licenses *services.LicenseService) *AdminHandler {
	return &AdminHandler{accounts: accounts, licenses: licenses}
}

// Ping confirms the caller holds the admin role.
func (h *AdminHandler) Ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true, "scope": "admin"})
}

// DashboardStats returns license statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	stats, err := h.licenses.Stats(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    stats,
	})
}

// ListCustomers returns registered customers with optional pagination.
func (h *AdminHandler) ListCustomers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	customers, total, err := h.accounts.ListCustomers(c.UserContext(), pg)
	if err != nil {
		return err
	}

	resp := fiber.Map{
		"success": true,
		"data":    customers,
	}
	if pg.Paged() {
		resp["pagination"] = fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		}
	}
	return c.JSON(resp)
}
