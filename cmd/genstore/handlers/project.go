package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lyzr/genstore/cmd/genstore/service"
	"github.com/lyzr/genstore/common/bootstrap"
)

// ProjectHandler handles project-scoped version operations
type ProjectHandler struct {
	components *bootstrap.Components
	manager    *service.VersionManager
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(components *bootstrap.Components, manager *service.VersionManager) *ProjectHandler {
	return &ProjectHandler{
		components: components,
		manager:    manager,
	}
}

// CreateProject registers a new project
// POST /api/v1/projects
func (h *ProjectHandler) CreateProject(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	project, err := h.manager.CreateProject(c.Request().Context(), req.Name)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, project)
}

// ListVersions lists a project's versions newest first
// GET /api/v1/projects/:project_id/versions
func (h *ProjectHandler) ListVersions(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid project_id format")
	}

	includeFailed, _ := strconv.ParseBool(c.QueryParam("include_failed"))

	list, err := h.manager.ListVersions(c.Request().Context(), projectID, includeFailed)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, list)
}

// GetVersion retrieves one version of a project
// GET /api/v1/projects/:project_id/versions/:version
func (h *ProjectHandler) GetVersion(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid project_id format")
	}
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid version number")
	}

	gen, err := h.manager.GetGenerationByVersion(c.Request().Context(), projectID, version)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, gen)
}

// GetActive retrieves the project's active generation
// GET /api/v1/projects/:project_id/active
func (h *ProjectHandler) GetActive(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid project_id format")
	}

	gen, err := h.manager.GetActiveGeneration(c.Request().Context(), projectID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, gen)
}

// Activate makes a completed generation the active one
// POST /api/v1/projects/:project_id/activate
func (h *ProjectHandler) Activate(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid project_id format")
	}

	var req struct {
		GenerationID uuid.UUID `json:"generation_id"`
	}
	if err := c.Bind(&req); err != nil || req.GenerationID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "generation_id is required")
	}

	gen, previous, err := h.manager.SetActiveGeneration(c.Request().Context(), projectID, req.GenerationID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":            true,
		"version":            gen.Version,
		"previous_active_id": previous,
	})
}

// Compare diffs two versions of a project
// GET /api/v1/projects/:project_id/compare?from=1&to=2
func (h *ProjectHandler) Compare(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid project_id format")
	}

	from, err := strconv.Atoi(c.QueryParam("from"))
	if err != nil || from < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid from version")
	}
	to, err := strconv.Atoi(c.QueryParam("to"))
	if err != nil || to < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid to version")
	}

	comparison, err := h.manager.CompareGenerations(c.Request().Context(), projectID, from, to)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, comparison)
}
