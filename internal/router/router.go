package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gradeflow/gradeflow-api/internal/config"
	"github.com/gradeflow/gradeflow-api/internal/handler"
	"github.com/gradeflow/gradeflow-api/internal/middleware"
	"github.com/gradeflow/gradeflow-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	IntakeHandler   *handler.IntakeHandler
	DispatchHandler *handler.DispatchHandler
	GradingHandler  *handler.GradingHandler
	ResultHandler   *handler.ResultHandler
	ProgressHandler *handler.ProgressHandler
	MessageHandler  *handler.MessageHandler
	JWTMiddleware   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Submission intake and results
	if deps.IntakeHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)
		intake := submissions.Group("", middleware.RateLimit("intake", 60, time.Minute))
		deps.IntakeHandler.Register(intake)

		if deps.ResultHandler != nil {
			deps.ResultHandler.Register(submissions)
		}
	}

	// Grading queues (each grader class draws from its own queue)
	if deps.DispatchHandler != nil {
		grading := api.Group("/grading", jwtMiddleware)
		staff := grading.Group("/staff", middleware.RequireRole("staff"))
		peer := grading.Group("/peer", middleware.RequireRole("peer", "staff"))
		machine := grading.Group("/machine", middleware.RequireRole("ml"))
		self := grading.Group("/self", middleware.RequireRole("student"))
		deps.DispatchHandler.Register(staff, peer, machine, self)

		if deps.GradingHandler != nil {
			deps.GradingHandler.Register(grading)
		}
	}

	// Course progress dashboards (staff only)
	if deps.ProgressHandler != nil {
		progress := api.Group("/progress", jwtMiddleware, middleware.RequireRole("staff"))
		deps.ProgressHandler.Register(progress)
	}

	// Attempt message threads
	if deps.MessageHandler != nil {
		attempts := api.Group("/attempts", jwtMiddleware)
		deps.MessageHandler.Register(attempts)
	}
}
