package main

import (
	"log"

	"github.com/gststore/storefront-backend/config"
	"github.com/gststore/storefront-backend/database"
	"github.com/gststore/storefront-backend/handlers"
	"github.com/gststore/storefront-backend/routes"
	"github.com/gststore/storefront-backend/services"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	config.LoadEnv()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Connect to MongoDB
	if err := database.ConnectDB(); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Wire handler collaborators
	handlers.Logger = logger
	if smtpHost := config.GetEnv("SMTP_HOST", ""); smtpHost != "" {
		handlers.Notify = services.NewSMTPNotifier(
			smtpHost,
			config.GetEnvInt("SMTP_PORT", 587),
			config.GetEnv("SMTP_USER", ""),
			config.GetEnv("SMTP_PASS", ""),
			config.GetEnv("SMTP_FROM", "noreply@gststore.local"),
		)
	} else {
		logger.Warn("SMTP_HOST not set, order notifications disabled")
	}

	// Setup routes
	routes.SetupRoutes(e)

	// Start the server
	port := config.GetEnv("PORT", "3000")
	logger.Info("Server starting", zap.String("port", port))
	e.Logger.Fatal(e.Start(":" + port))
}
