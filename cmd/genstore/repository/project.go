package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lyzr/genstore/common/db"
	"github.com/lyzr/genstore/common/models"
)

// ProjectRepository handles database operations for projects
type ProjectRepository struct {
	db *db.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *db.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `project_id, name, latest_version, active_generation_id, created_at, updated_at`

// Create inserts a new project
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO project (project_id, name, latest_version, active_generation_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		project.ID,
		project.Name,
		project.LatestVersion,
		project.ActiveGenerationID,
		project.CreatedAt,
		project.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// GetByID retrieves a project by its ID
func (r *ProjectRepository) GetByID(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM project WHERE project_id = $1`

	project := &models.Project{}
	err := r.db.QueryRow(ctx, query, projectID).Scan(
		&project.ID,
		&project.Name,
		&project.LatestVersion,
		&project.ActiveGenerationID,
		&project.CreatedAt,
		&project.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

// GetByIDForUpdate retrieves a project inside tx with a row lock. Version
// assignment serializes on this lock so two concurrent creations cannot
// compute the same next version.
func (r *ProjectRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, projectID uuid.UUID) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM project WHERE project_id = $1 FOR UPDATE`

	project := &models.Project{}
	err := tx.QueryRow(ctx, query, projectID).Scan(
		&project.ID,
		&project.Name,
		&project.LatestVersion,
		&project.ActiveGenerationID,
		&project.CreatedAt,
		&project.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to lock project: %w", err)
	}

	return project, nil
}

// UpdateLatestVersionTx bumps the monotonic version counter inside tx
func (r *ProjectRepository) UpdateLatestVersionTx(ctx context.Context, tx pgx.Tx, projectID uuid.UUID, latestVersion int) error {
	query := `UPDATE project SET latest_version = $2, updated_at = NOW() WHERE project_id = $1`

	result, err := tx.Exec(ctx, query, projectID, latestVersion)
	if err != nil {
		return fmt.Errorf("failed to update latest version: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrProjectNotFound
	}

	return nil
}

// SetActiveGenerationTx updates the active back-reference inside tx.
// Passing nil clears it.
func (r *ProjectRepository) SetActiveGenerationTx(ctx context.Context, tx pgx.Tx, projectID uuid.UUID, generationID *uuid.UUID) error {
	query := `UPDATE project SET active_generation_id = $2, updated_at = NOW() WHERE project_id = $1`

	result, err := tx.Exec(ctx, query, projectID, generationID)
	if err != nil {
		return fmt.Errorf("failed to set active generation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrProjectNotFound
	}

	return nil
}
