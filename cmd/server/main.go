package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/licenseportal/internal/config"
	"github.com/example/licenseportal/internal/database"
	"github.com/example/licenseportal/internal/handlers"
	applog "github.com/example/licenseportal/internal/logger"
	"github.com/example/licenseportal/internal/middleware"
	"github.com/example/licenseportal/internal/routes"
	"github.com/example/licenseportal/internal/services"
	"github.com/example/licenseportal/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := applog.New("development", "info")
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := applog.New(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatal().Err(err).Msg("database setup failed")
	}
	defer database.Close(db)

	hasher := utils.NewBcryptHasher(12)
	signer := utils.NewJWTSigner(cfg.JWTSecret, cfg.TokenTTL)
	mailer := services.NewEmailService(cfg.ResendAPIKey, cfg.ResendBaseURL, cfg.EmailFrom, cfg.VerificationCodeTTL, log)
	telegram := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat, log)

	accounts := services.NewAccountService(db, hasher, mailer, services.AccountConfig{
		CodeTTL:        cfg.VerificationCodeTTL,
		ResendCooldown: cfg.VerificationCooldown,
		MaxAttempts:    cfg.VerificationMaxAttempts,
	}, log)
	sessions, err := services.NewSessionService(db, hasher, signer, log)
	if err != nil {
		log.Fatal().Err(err).Msg("session service setup failed")
	}
	licenses := services.NewLicenseService(db, telegram, cfg.LicenseMaxSeats, log)

	app := fiber.New(fiber.Config{
		AppName:      "License Portal",
		ErrorHandler: handlers.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	routes.Register(app, routes.Deps{
		Accounts:    accounts,
		Sessions:    sessions,
		Licenses:    licenses,
		AuthLimiter: middleware.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, log),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.AppPort).Msg("starting server")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal().Err(err).Msg("fiber.Listen error")
	}
	licenses.Wait()
}
