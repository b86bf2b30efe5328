package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lyzr/genstore/common/db"
	"github.com/lyzr/genstore/common/models"
)

// Ledger combines the project and generation repositories behind the
// transactional operations the version manager needs. Multi-row updates
// (version assignment, activation) run in a single transaction with the
// project row locked.
type Ledger struct {
	db          *db.DB
	projects    *ProjectRepository
	generations *GenerationRepository
}

// NewLedger creates a new ledger
func NewLedger(db *db.DB, projects *ProjectRepository, generations *GenerationRepository) *Ledger {
	return &Ledger{
		db:          db,
		projects:    projects,
		generations: generations,
	}
}

// CreateProject inserts a new project row
func (l *Ledger) CreateProject(ctx context.Context, project *models.Project) error {
	return l.projects.Create(ctx, project)
}

// GetProject retrieves a project
func (l *Ledger) GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	return l.projects.GetByID(ctx, projectID)
}

// CreateGeneration assigns the next version number and inserts the
// generation, all while holding the project row lock. gen.Version is set
// on return.
func (l *Ledger) CreateGeneration(ctx context.Context, gen *models.Generation) error {
	return l.db.WithTx(ctx, func(tx pgx.Tx) error {
		project, err := l.projects.GetByIDForUpdate(ctx, tx, gen.ProjectID)
		if err != nil {
			return err
		}

		gen.Version = project.LatestVersion + 1
		if err := l.generations.CreateTx(ctx, tx, gen); err != nil {
			return err
		}

		return l.projects.UpdateLatestVersionTx(ctx, tx, project.ID, gen.Version)
	})
}

// GetGeneration retrieves a generation by ID
func (l *Ledger) GetGeneration(ctx context.Context, generationID uuid.UUID) (*models.Generation, error) {
	return l.generations.GetByID(ctx, generationID)
}

// GetGenerationByVersion retrieves a generation by project and version
func (l *Ledger) GetGenerationByVersion(ctx context.Context, projectID uuid.UUID, version int) (*models.Generation, error) {
	return l.generations.GetByVersion(ctx, projectID, version)
}

// GetActiveGeneration retrieves the project's active generation
func (l *Ledger) GetActiveGeneration(ctx context.Context, projectID uuid.UUID) (*models.Generation, error) {
	return l.generations.GetActive(ctx, projectID)
}

// GetPreviousCompleted retrieves the newest completed generation below the
// given version, or nil
func (l *Ledger) GetPreviousCompleted(ctx context.Context, projectID uuid.UUID, beforeVersion int) (*models.Generation, error) {
	return l.generations.GetPreviousCompleted(ctx, projectID, beforeVersion)
}

// ListGenerations lists a project's generations newest first
func (l *Ledger) ListGenerations(ctx context.Context, projectID uuid.UUID, includeFailed bool) ([]*models.Generation, error) {
	return l.generations.List(ctx, projectID, includeFailed)
}

// UpdateGenerationOutput records a completed save
func (l *Ledger) UpdateGenerationOutput(ctx context.Context, gen *models.Generation) error {
	return l.generations.UpdateOutput(ctx, gen)
}

// MarkGenerationFailed records a failed save
func (l *Ledger) MarkGenerationFailed(ctx context.Context, generationID uuid.UUID, message string) error {
	return l.generations.MarkFailed(ctx, generationID, message)
}

// ActivateGeneration flips the active flags and back-reference in one
// transaction and returns the previously active generation ID, if any
func (l *Ledger) ActivateGeneration(ctx context.Context, projectID, generationID uuid.UUID) (*uuid.UUID, error) {
	var previous *uuid.UUID

	err := l.db.WithTx(ctx, func(tx pgx.Tx) error {
		project, err := l.projects.GetByIDForUpdate(ctx, tx, projectID)
		if err != nil {
			return err
		}
		previous = project.ActiveGenerationID

		if err := l.generations.ClearActiveTx(ctx, tx, projectID); err != nil {
			return err
		}
		if err := l.generations.SetActiveTx(ctx, tx, generationID); err != nil {
			return err
		}

		return l.projects.SetActiveGenerationTx(ctx, tx, projectID, &generationID)
	})
	if err != nil {
		return nil, err
	}

	return previous, nil
}

// DeleteGeneration removes a generation row
func (l *Ledger) DeleteGeneration(ctx context.Context, generationID uuid.UUID) error {
	return l.generations.Delete(ctx, generationID)
}
