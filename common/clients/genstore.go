// Package clients provides typed HTTP clients for the genstore API, used
// by the background generation workers that create generations and push
// their output.
package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lyzr/genstore/common/models"
)

// GenstoreClient handles communication with the genstore API
type GenstoreClient struct {
	baseURL string
	http    *HTTPClient
	logger  Logger
}

// NewGenstoreClient creates a new genstore client
func NewGenstoreClient(baseURL, internalSecret string, logger Logger) *GenstoreClient {
	httpClient := &http.Client{
		Timeout: 60 * time.Second,
	}

	return &GenstoreClient{
		baseURL: baseURL,
		http:    NewHTTPClient(httpClient, internalSecret, logger),
		logger:  logger,
	}
}

// CreateProject registers a new project
func (c *GenstoreClient) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	url := fmt.Sprintf("%s/api/v1/projects", c.baseURL)
	project := &models.Project{}
	if err := c.http.DoJSON(ctx, http.MethodPost, url, map[string]string{"name": name}, project); err != nil {
		return nil, err
	}
	return project, nil
}

// CreateGenerationRequest holds the optional fields of generation creation
type CreateGenerationRequest struct {
	Prompt             string     `json:"prompt"`
	VersionName        *string    `json:"version_name,omitempty"`
	ParentGenerationID *uuid.UUID `json:"parent_generation_id,omitempty"`
}

// CreateGeneration reserves the next version number for a project
func (c *GenstoreClient) CreateGeneration(ctx context.Context, projectID uuid.UUID, req CreateGenerationRequest) (*models.Generation, error) {
	url := fmt.Sprintf("%s/api/v1/projects/%s/generations", c.baseURL, projectID)
	gen := &models.Generation{}
	if err := c.http.DoJSON(ctx, http.MethodPost, url, req, gen); err != nil {
		return nil, err
	}
	c.logger.Info("created generation", "generation_id", gen.ID, "version", gen.Version)
	return gen, nil
}

// SaveGenerationOutput pushes the generator's file map. autoActivate makes
// the saved version active on success.
func (c *GenstoreClient) SaveGenerationOutput(ctx context.Context, generationID uuid.UUID, files map[string]string, autoActivate bool) (*models.Generation, error) {
	url := fmt.Sprintf("%s/api/v1/generations/%s/output", c.baseURL, generationID)
	body := map[string]interface{}{
		"files":         files,
		"auto_activate": autoActivate,
	}
	gen := &models.Generation{}
	if err := c.http.DoJSON(ctx, http.MethodPost, url, body, gen); err != nil {
		return nil, err
	}
	return gen, nil
}

// VersionList mirrors the listing endpoint's response shape
type VersionList struct {
	TotalVersions int                     `json:"total_versions"`
	ActiveVersion *int                    `json:"active_version,omitempty"`
	Versions      []models.VersionSummary `json:"versions"`
}

// ListVersions lists a project's versions newest first
func (c *GenstoreClient) ListVersions(ctx context.Context, projectID uuid.UUID, includeFailed bool) (*VersionList, error) {
	url := fmt.Sprintf("%s/api/v1/projects/%s/versions?include_failed=%t", c.baseURL, projectID, includeFailed)
	list := &VersionList{}
	if err := c.http.DoJSON(ctx, http.MethodGet, url, nil, list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetActiveGeneration fetches the project's active generation
func (c *GenstoreClient) GetActiveGeneration(ctx context.Context, projectID uuid.UUID) (*models.Generation, error) {
	url := fmt.Sprintf("%s/api/v1/projects/%s/active", c.baseURL, projectID)
	gen := &models.Generation{}
	if err := c.http.DoJSON(ctx, http.MethodGet, url, nil, gen); err != nil {
		return nil, err
	}
	return gen, nil
}

// ActivateResult is the activation endpoint's response shape
type ActivateResult struct {
	Success          bool       `json:"success"`
	Version          int        `json:"version"`
	PreviousActiveID *uuid.UUID `json:"previous_active_id,omitempty"`
}

// Activate makes a completed generation the active one
func (c *GenstoreClient) Activate(ctx context.Context, projectID, generationID uuid.UUID) (*ActivateResult, error) {
	url := fmt.Sprintf("%s/api/v1/projects/%s/activate", c.baseURL, projectID)
	body := map[string]uuid.UUID{"generation_id": generationID}
	result := &ActivateResult{}
	if err := c.http.DoJSON(ctx, http.MethodPost, url, body, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Compare diffs two versions of a project
func (c *GenstoreClient) Compare(ctx context.Context, projectID uuid.UUID, from, to int) (*models.Comparison, error) {
	url := fmt.Sprintf("%s/api/v1/projects/%s/compare?from=%d&to=%d", c.baseURL, projectID, from, to)
	comparison := &models.Comparison{}
	if err := c.http.DoJSON(ctx, http.MethodGet, url, nil, comparison); err != nil {
		return nil, err
	}
	return comparison, nil
}

// DeleteGeneration removes a non-active generation
func (c *GenstoreClient) DeleteGeneration(ctx context.Context, generationID uuid.UUID, deleteFiles bool) error {
	url := fmt.Sprintf("%s/api/v1/generations/%s?delete_files=%t", c.baseURL, generationID, deleteFiles)
	return c.http.DoJSON(ctx, http.MethodDelete, url, nil, nil)
}

// ProjectSchema mirrors the schema endpoint's response shape
type ProjectSchema struct {
	Entities  []string `json:"entities"`
	Endpoints []string `json:"endpoints"`
	Files     []string `json:"files"`
}

// GetSchema derives the structural schema of a generation's file set,
// used to build regeneration prompts
func (c *GenstoreClient) GetSchema(ctx context.Context, generationID uuid.UUID) (*ProjectSchema, error) {
	url := fmt.Sprintf("%s/api/v1/generations/%s/schema", c.baseURL, generationID)
	schema := &ProjectSchema{}
	if err := c.http.DoJSON(ctx, http.MethodGet, url, nil, schema); err != nil {
		return nil, err
	}
	return schema, nil
}
