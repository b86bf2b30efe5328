package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lyzr/genstore/common/db"
	"github.com/lyzr/genstore/common/models"
)

// GenerationRepository handles database operations for generations
type GenerationRepository struct {
	db *db.DB
}

// NewGenerationRepository creates a new generation repository
func NewGenerationRepository(db *db.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

const generationColumns = `
	generation_id, project_id, parent_generation_id, version, version_name,
	is_active, status, prompt, storage_path, file_count, total_size_bytes,
	diff_from_previous, changes_summary, quality_score, error_message,
	created_at, updated_at, completed_at
`

// CreateTx inserts a new generation row inside tx. Runs in the same
// transaction that locks the project row and bumps latest_version.
func (r *GenerationRepository) CreateTx(ctx context.Context, tx pgx.Tx, gen *models.Generation) error {
	query := `
		INSERT INTO generation (
			generation_id, project_id, parent_generation_id, version, version_name,
			is_active, status, prompt, storage_path, file_count, total_size_bytes,
			diff_from_previous, changes_summary, quality_score, error_message,
			created_at, updated_at, completed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		)
	`

	summary, err := encodeSummary(gen.ChangesSummary)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, query,
		gen.ID,
		gen.ProjectID,
		gen.ParentGenerationID,
		gen.Version,
		gen.VersionName,
		gen.IsActive,
		gen.Status,
		gen.Prompt,
		gen.StoragePath,
		gen.FileCount,
		gen.TotalSizeBytes,
		gen.DiffFromPrevious,
		summary,
		gen.QualityScore,
		gen.ErrorMessage,
		gen.CreatedAt,
		gen.UpdatedAt,
		gen.CompletedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create generation: %w", err)
	}

	return nil
}

// GetByID retrieves a generation by its ID
func (r *GenerationRepository) GetByID(ctx context.Context, generationID uuid.UUID) (*models.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generation WHERE generation_id = $1`

	gen, err := r.scanOne(r.db.QueryRow(ctx, query, generationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrGenerationNotFound
		}
		return nil, fmt.Errorf("failed to get generation: %w", err)
	}

	return gen, nil
}

// GetByVersion retrieves a generation by project and version number
func (r *GenerationRepository) GetByVersion(ctx context.Context, projectID uuid.UUID, version int) (*models.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generation WHERE project_id = $1 AND version = $2`

	gen, err := r.scanOne(r.db.QueryRow(ctx, query, projectID, version))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrVersionNotFound
		}
		return nil, fmt.Errorf("failed to get generation by version: %w", err)
	}

	return gen, nil
}

// GetActive retrieves the active generation of a project, or
// ErrGenerationNotFound when none is active
func (r *GenerationRepository) GetActive(ctx context.Context, projectID uuid.UUID) (*models.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generation WHERE project_id = $1 AND is_active = TRUE`

	gen, err := r.scanOne(r.db.QueryRow(ctx, query, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrGenerationNotFound
		}
		return nil, fmt.Errorf("failed to get active generation: %w", err)
	}

	return gen, nil
}

// GetPreviousCompleted retrieves the newest completed generation with a
// version below the given one, or nil when there is none
func (r *GenerationRepository) GetPreviousCompleted(ctx context.Context, projectID uuid.UUID, beforeVersion int) (*models.Generation, error) {
	query := `
		SELECT ` + generationColumns + `
		FROM generation
		WHERE project_id = $1 AND version < $2 AND status = 'completed'
		ORDER BY version DESC
		LIMIT 1
	`

	gen, err := r.scanOne(r.db.QueryRow(ctx, query, projectID, beforeVersion))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get previous completed generation: %w", err)
	}

	return gen, nil
}

// List retrieves a project's generations ordered newest version first.
// Failed generations are omitted unless includeFailed is set.
func (r *GenerationRepository) List(ctx context.Context, projectID uuid.UUID, includeFailed bool) ([]*models.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generation WHERE project_id = $1`
	if !includeFailed {
		query += ` AND status != 'failed'`
	}
	query += ` ORDER BY version DESC`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	var generations []*models.Generation
	for rows.Next() {
		gen, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		generations = append(generations, gen)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating generations: %w", err)
	}

	return generations, nil
}

// UpdateOutput records a completed save: storage location, cached counts,
// diff metadata and the Completed status
func (r *GenerationRepository) UpdateOutput(ctx context.Context, gen *models.Generation) error {
	query := `
		UPDATE generation
		SET status = $2, storage_path = $3, file_count = $4, total_size_bytes = $5,
		    diff_from_previous = $6, changes_summary = $7, updated_at = NOW(),
		    completed_at = NOW()
		WHERE generation_id = $1
	`

	summary, err := encodeSummary(gen.ChangesSummary)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(ctx, query,
		gen.ID,
		gen.Status,
		gen.StoragePath,
		gen.FileCount,
		gen.TotalSizeBytes,
		gen.DiffFromPrevious,
		summary,
	)
	if err != nil {
		return fmt.Errorf("failed to update generation output: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrGenerationNotFound
	}

	return nil
}

// MarkFailed sets the Failed status and records the error message
func (r *GenerationRepository) MarkFailed(ctx context.Context, generationID uuid.UUID, message string) error {
	query := `
		UPDATE generation
		SET status = 'failed', error_message = $2, updated_at = NOW()
		WHERE generation_id = $1
	`

	result, err := r.db.Exec(ctx, query, generationID, message)
	if err != nil {
		return fmt.Errorf("failed to mark generation failed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrGenerationNotFound
	}

	return nil
}

// ClearActiveTx clears is_active on every generation of the project inside tx
func (r *GenerationRepository) ClearActiveTx(ctx context.Context, tx pgx.Tx, projectID uuid.UUID) error {
	query := `UPDATE generation SET is_active = FALSE, updated_at = NOW() WHERE project_id = $1 AND is_active = TRUE`

	if _, err := tx.Exec(ctx, query, projectID); err != nil {
		return fmt.Errorf("failed to clear active flags: %w", err)
	}

	return nil
}

// SetActiveTx sets is_active on one generation inside tx
func (r *GenerationRepository) SetActiveTx(ctx context.Context, tx pgx.Tx, generationID uuid.UUID) error {
	query := `UPDATE generation SET is_active = TRUE, updated_at = NOW() WHERE generation_id = $1`

	result, err := tx.Exec(ctx, query, generationID)
	if err != nil {
		return fmt.Errorf("failed to set active flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrGenerationNotFound
	}

	return nil
}

// Delete removes a generation row
func (r *GenerationRepository) Delete(ctx context.Context, generationID uuid.UUID) error {
	query := `DELETE FROM generation WHERE generation_id = $1`

	result, err := r.db.Exec(ctx, query, generationID)
	if err != nil {
		return fmt.Errorf("failed to delete generation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrGenerationNotFound
	}

	return nil
}

// scanOne scans a generation from a row
func (r *GenerationRepository) scanOne(row pgx.Row) (*models.Generation, error) {
	gen := &models.Generation{}
	var summary []byte

	err := row.Scan(
		&gen.ID,
		&gen.ProjectID,
		&gen.ParentGenerationID,
		&gen.Version,
		&gen.VersionName,
		&gen.IsActive,
		&gen.Status,
		&gen.Prompt,
		&gen.StoragePath,
		&gen.FileCount,
		&gen.TotalSizeBytes,
		&gen.DiffFromPrevious,
		&summary,
		&gen.QualityScore,
		&gen.ErrorMessage,
		&gen.CreatedAt,
		&gen.UpdatedAt,
		&gen.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(summary) > 0 {
		gen.ChangesSummary = &models.ChangesSummary{}
		if err := json.Unmarshal(summary, gen.ChangesSummary); err != nil {
			return nil, fmt.Errorf("failed to decode changes summary: %w", err)
		}
	}

	return gen, nil
}

// encodeSummary marshals the changes summary for the JSONB column
func encodeSummary(summary *models.ChangesSummary) ([]byte, error) {
	if summary == nil {
		return nil, nil
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to encode changes summary: %w", err)
	}
	return data, nil
}
