package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nathanfredericks/instagrader/internal/config"
	"github.com/nathanfredericks/instagrader/internal/handler"
	"github.com/nathanfredericks/instagrader/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler *handler.AssignmentHandler
	EssayHandler      *handler.EssayHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})

	if deps.AssignmentHandler != nil {
		assignmentGroup := api.Group("/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignmentGroup)
	}

	if deps.EssayHandler != nil {
		essayGroup := api.Group("/essays", jwtMiddleware)
		deps.EssayHandler.Register(essayGroup)
	}
}
