package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/lyzr/genstore/cmd/genstore/container"
	"github.com/lyzr/genstore/cmd/genstore/handlers"
)

// RegisterProjectRoutes registers project and version routes
func RegisterProjectRoutes(e *echo.Echo, c *container.Container) {
	// Create handler with dependencies
	h := handlers.NewProjectHandler(c.Components, c.Manager)

	// Project routes
	projects := e.Group("/api/v1/projects")
	{
		projects.POST("", h.CreateProject)                        // POST /api/v1/projects
		projects.GET("/:project_id/versions", h.ListVersions)     // GET /api/v1/projects/{id}/versions
		projects.GET("/:project_id/versions/:version", h.GetVersion) // GET /api/v1/projects/{id}/versions/3
		projects.GET("/:project_id/active", h.GetActive)          // GET /api/v1/projects/{id}/active
		projects.POST("/:project_id/activate", h.Activate)        // POST /api/v1/projects/{id}/activate
		projects.GET("/:project_id/compare", h.Compare)           // GET /api/v1/projects/{id}/compare?from=1&to=2
	}
}
