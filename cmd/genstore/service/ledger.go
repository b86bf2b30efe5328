package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/lyzr/genstore/common/models"
)

// Ledger is the transactional persistence boundary the version manager
// depends on. The repository package provides the Postgres implementation;
// tests substitute an in-memory fake.
type Ledger interface {
	CreateProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error)

	// CreateGeneration assigns gen.Version = latest_version + 1 under a
	// project row lock and inserts the row in the same transaction
	CreateGeneration(ctx context.Context, gen *models.Generation) error

	GetGeneration(ctx context.Context, generationID uuid.UUID) (*models.Generation, error)
	GetGenerationByVersion(ctx context.Context, projectID uuid.UUID, version int) (*models.Generation, error)
	GetActiveGeneration(ctx context.Context, projectID uuid.UUID) (*models.Generation, error)
	GetPreviousCompleted(ctx context.Context, projectID uuid.UUID, beforeVersion int) (*models.Generation, error)
	ListGenerations(ctx context.Context, projectID uuid.UUID, includeFailed bool) ([]*models.Generation, error)

	UpdateGenerationOutput(ctx context.Context, gen *models.Generation) error
	MarkGenerationFailed(ctx context.Context, generationID uuid.UUID, message string) error

	// ActivateGeneration flips is_active and the project back-reference in
	// one transaction, returning the previously active generation ID
	ActivateGeneration(ctx context.Context, projectID, generationID uuid.UUID) (*uuid.UUID, error)

	DeleteGeneration(ctx context.Context, generationID uuid.UUID) error
}
