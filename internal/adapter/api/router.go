package api

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter mounts every route. admin may be nil when no admin password is
// configured; the analytics API is absent then.
func SetupRouter(app *fiber.App, trivia *TriviaHandler, admin *AdminHandler, version string) {
	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "healthy",
			"version": version,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API Versioning
	v1 := app.Group("/v1")
	v1.Post("/trivia", trivia.HandleTrivia)

	if admin != nil {
		ad := v1.Group("/admin")
		ad.Post("/login", admin.HandleLogin)
		ad.Post("/logout", admin.HandleLogout)
		ad.Get("/keywords", admin.RequireSession, admin.HandleKeywords)
		ad.Get("/daily", admin.RequireSession, admin.HandleDaily)
		ad.Get("/genres", admin.RequireSession, admin.HandleGenres)
	}
}
