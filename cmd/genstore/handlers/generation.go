package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lyzr/genstore/cmd/genstore/service"
	"github.com/lyzr/genstore/common/bootstrap"
	"github.com/lyzr/genstore/common/models"
)

// GenerationHandler handles generation lifecycle operations invoked by the
// background generation workers
type GenerationHandler struct {
	components *bootstrap.Components
	manager    *service.VersionManager
}

// NewGenerationHandler creates a new generation handler
func NewGenerationHandler(components *bootstrap.Components, manager *service.VersionManager) *GenerationHandler {
	return &GenerationHandler{
		components: components,
		manager:    manager,
	}
}

// CreateGeneration inserts a Processing generation with the next version
// POST /api/v1/projects/:project_id/generations
func (h *GenerationHandler) CreateGeneration(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid project_id format")
	}

	var req struct {
		Prompt             string     `json:"prompt"`
		VersionName        *string    `json:"version_name,omitempty"`
		ParentGenerationID *uuid.UUID `json:"parent_generation_id,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Prompt == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "prompt is required")
	}

	gen, err := h.manager.CreateGeneration(c.Request().Context(), projectID, req.Prompt, service.CreateOptions{
		VersionName:        req.VersionName,
		ParentGenerationID: req.ParentGenerationID,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, gen)
}

// SaveOutput persists the generator's file map for a processing generation
// POST /api/v1/generations/:id/output
func (h *GenerationHandler) SaveOutput(c echo.Context) error {
	generationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid generation_id format")
	}

	var req struct {
		Files        map[string]string `json:"files"`
		AutoActivate *bool             `json:"auto_activate,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Files == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "files is required")
	}

	autoActivate := true
	if req.AutoActivate != nil {
		autoActivate = *req.AutoActivate
	}

	gen, err := h.manager.SaveGenerationOutput(
		c.Request().Context(),
		generationID,
		models.FileSetFromStrings(req.Files),
		service.SaveOptions{AutoActivate: autoActivate},
	)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, gen)
}

// DeleteGeneration removes a non-active generation
// DELETE /api/v1/generations/:id
func (h *GenerationHandler) DeleteGeneration(c echo.Context) error {
	generationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid generation_id format")
	}

	deleteFiles := true
	if raw := c.QueryParam("delete_files"); raw != "" {
		deleteFiles, _ = strconv.ParseBool(raw)
	}

	if err := h.manager.DeleteGeneration(c.Request().Context(), generationID, deleteFiles); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]bool{"deleted": true})
}

// GetSchema derives the structural schema of a generation's file set for
// regeneration prompt construction
// GET /api/v1/generations/:id/schema
func (h *GenerationHandler) GetSchema(c echo.Context) error {
	generationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid generation_id format")
	}

	schema, err := h.manager.DeriveParentSchema(c.Request().Context(), generationID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, schema)
}
