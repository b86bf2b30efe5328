package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/lyzr/genstore/cmd/genstore/container"
	"github.com/lyzr/genstore/cmd/genstore/handlers"
	"github.com/lyzr/genstore/common/middleware"
)

// RegisterGenerationRoutes registers generation lifecycle routes
func RegisterGenerationRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewGenerationHandler(c.Components, c.Manager)

	// Creation and saving are the expensive write paths; throttle them
	// when a limiter is available
	var writeLimits []echo.MiddlewareFunc
	if c.Limiter != nil {
		cfg := c.Components.Config.RateLimit
		writeLimits = append(writeLimits,
			middleware.GlobalRateLimit(c.Limiter, cfg.GlobalPerMinute),
			middleware.ProjectRateLimit(c.Limiter, cfg.PerProjectPerMinute, 60),
		)
	}

	// Creation lives under the project, everything else addresses the
	// generation directly
	e.POST("/api/v1/projects/:project_id/generations", h.CreateGeneration, writeLimits...)

	generations := e.Group("/api/v1/generations")
	{
		generations.POST("/:id/output", h.SaveOutput, writeLimits...) // POST /api/v1/generations/{id}/output
		generations.DELETE("/:id", h.DeleteGeneration)                // DELETE /api/v1/generations/{id}
		generations.GET("/:id/schema", h.GetSchema)                   // GET /api/v1/generations/{id}/schema
	}
}
