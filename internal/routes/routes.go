package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/licenseportal/internal/handlers"
	"github.com/example/licenseportal/internal/middleware"
	"github.com/example/licenseportal/internal/models"
	"github.com/example/licenseportal/internal/services"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Accounts    *services.AccountService
	Sessions    *services.SessionService
	Licenses    *services.LicenseService
	AuthLimiter *middleware.RateLimiter
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.Accounts, deps.Sessions)
	licenseHandler := handlers.NewLicenseHandler(deps.Licenses)
	adminHandler := handlers.NewAdminHandler(deps.Accounts, deps.Licenses)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	if deps.AuthLimiter != nil {
		auth.Use(deps.AuthLimiter.Handler())
	}
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/verify", authHandler.Verify)
	auth.Post("/resend-code", authHandler.ResendCode)
	auth.Get("/me", middleware.RequireAuth(deps.Sessions), authHandler.Me)

	// Admin routes
	admin := api.Group("/admin", middleware.RequireAuth(deps.Sessions, models.RoleAdmin))
	admin.Get("/ping", adminHandler.Ping)
	admin.Get("/stats", adminHandler.DashboardStats)
	admin.Get("/customers", adminHandler.ListCustomers)
	admin.Post("/licenses", licenseHandler.CreateLicense)
	admin.Get("/licenses", licenseHandler.ListLicenses)
}
