package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/example/licenseportal/internal/services"
	"github.com/example/licenseportal/internal/utils"
)

// LicenseHandler manages admin license endpoints.
type LicenseHandler struct {
	licenses *services.LicenseService
}

// NewLicenseHandler constructs LicenseHandler.
func NewLicenseHandler(licenses *services.LicenseService) *LicenseHandler {
	return &LicenseHandler{licenses: licenses}
}

// CreateLicense issues a batch of seats for a customer.
func (h *LicenseHandler) CreateLicense(c *fiber.Ctx) error {
	var req services.CreateLicenseInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	licenses, err := h.licenses.CreateLicense(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Created %d license(s) successfully", len(licenses)),
		"data":    licenses,
	})
}

// ListLicenses returns all licenses with their customer details.
func (h *LicenseHandler) ListLicenses(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	licenses, total, err := h.licenses.ListLicenses(c.UserContext(), pg)
	if err != nil {
		return err
	}

	resp := fiber.Map{
		"success":  true,
		"licenses": licenses,
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
