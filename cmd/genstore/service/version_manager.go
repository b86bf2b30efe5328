package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lyzr/genstore/common/cache"
	"github.com/lyzr/genstore/common/diff"
	"github.com/lyzr/genstore/common/events"
	"github.com/lyzr/genstore/common/logger"
	"github.com/lyzr/genstore/common/merge"
	"github.com/lyzr/genstore/common/models"
	"github.com/lyzr/genstore/common/storage"
	"github.com/lyzr/genstore/common/validation"
)

// VersionManager is the façade callers use to create, persist, activate,
// compare and delete generation versions. Each public operation is atomic
// with respect to its own database transaction; filesystem state is a
// cache of database truth and repaired lazily on mismatch.
type VersionManager struct {
	ledger    Ledger
	store     *storage.Store
	differ    *diff.Engine
	merger    *merge.Merger
	validator *merge.Validator
	cache     cache.Cache
	emitter   events.Emitter
	log       *logger.Logger
}

// NewVersionManager creates the version manager. cache may be nil when
// caching is disabled.
func NewVersionManager(
	ledger Ledger,
	store *storage.Store,
	differ *diff.Engine,
	merger *merge.Merger,
	validator *merge.Validator,
	c cache.Cache,
	emitter events.Emitter,
	log *logger.Logger,
) *VersionManager {
	return &VersionManager{
		ledger:    ledger,
		store:     store,
		differ:    differ,
		merger:    merger,
		validator: validator,
		cache:     c,
		emitter:   emitter,
		log:       log,
	}
}

// CreateOptions controls generation creation
type CreateOptions struct {
	VersionName        *string
	ParentGenerationID *uuid.UUID
}

// SaveOptions controls output persistence
type SaveOptions struct {
	AutoActivate bool
}

// CreateProject registers a new project with an empty version history
func (m *VersionManager) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	now := time.Now().UTC()
	project := &models.Project{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.ledger.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	m.log.Info("created project", "project_id", project.ID, "name", name)
	return project, nil
}

// CreateGeneration assigns the next version number and inserts a
// Processing generation. Version assignment serializes on the project row
// lock inside the ledger.
func (m *VersionManager) CreateGeneration(ctx context.Context, projectID uuid.UUID, prompt string, opts CreateOptions) (*models.Generation, error) {
	if _, err := m.ledger.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	if opts.ParentGenerationID != nil {
		parent, err := m.ledger.GetGeneration(ctx, *opts.ParentGenerationID)
		if err != nil {
			return nil, err
		}
		if parent.ProjectID != projectID {
			return nil, models.ErrGenerationNotFound
		}
		if parent.Status == models.StatusFailed {
			return nil, models.InvalidState("cannot iterate on failed generation %s", parent.ID)
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}

	now := time.Now().UTC()
	gen := &models.Generation{
		ID:                 id,
		ProjectID:          projectID,
		ParentGenerationID: opts.ParentGenerationID,
		VersionName:        opts.VersionName,
		Status:             models.StatusProcessing,
		Prompt:             prompt,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := m.ledger.CreateGeneration(ctx, gen); err != nil {
		return nil, fmt.Errorf("failed to create generation: %w", err)
	}

	m.log.Info("created generation",
		"generation_id", gen.ID,
		"project_id", projectID,
		"version", gen.Version,
		"iteration", gen.IsIteration(),
	)

	return gen, nil
}

// SaveGenerationOutput reconciles iteration output with the parent file
// set, persists files and manifest, computes a diff against the previous
// completed version, marks the generation Completed and optionally
// activates it. Storage failures mark the generation Failed and re-raise.
func (m *VersionManager) SaveGenerationOutput(ctx context.Context, generationID uuid.UUID, files models.FileSet, opts SaveOptions) (*models.Generation, error) {
	gen, err := m.ledger.GetGeneration(ctx, generationID)
	if err != nil {
		return nil, err
	}
	if gen.Status != models.StatusProcessing {
		return nil, models.InvalidState("generation %s is %s, output can only be saved while processing", gen.ID, gen.Status)
	}

	if err := validation.ValidateFileSet(files); err != nil {
		return nil, fmt.Errorf("invalid file set: %w", err)
	}

	final := files
	if gen.IsIteration() {
		final, err = m.reconcileIteration(ctx, gen, files)
		if err != nil {
			return nil, err
		}
	}

	storagePath, err := m.store.SaveFiles(gen.ProjectID, gen.ID, gen.Version, final)
	if err != nil {
		return nil, m.failSave(ctx, gen, "save files", err)
	}
	m.cacheFiles(ctx, gen.ID, final)

	m.emit(ctx, gen, events.StageFilesSaved, 60, fmt.Sprintf("%d files saved", len(final)), nil)

	gen.Status = models.StatusCompleted
	gen.StoragePath = &storagePath
	gen.FileCount = len(final)
	size := final.TotalSize()
	gen.TotalSizeBytes = &size

	m.computeDiff(ctx, gen, final, storagePath)

	if err := m.ledger.UpdateGenerationOutput(ctx, gen); err != nil {
		return nil, m.failSave(ctx, gen, "record output", err)
	}

	if opts.AutoActivate {
		if _, _, err := m.SetActiveGeneration(ctx, gen.ProjectID, gen.ID); err != nil {
			return nil, err
		}
		gen.IsActive = true
	}

	m.log.Info("generation output saved",
		"generation_id", gen.ID,
		"version", gen.Version,
		"file_count", gen.FileCount,
		"active", gen.IsActive,
	)

	return gen, nil
}

// reconcileIteration merges the parent's stored files with the new output
// and evaluates the data-loss policy. Warnings never fail the save.
func (m *VersionManager) reconcileIteration(ctx context.Context, gen *models.Generation, files models.FileSet) (models.FileSet, error) {
	parent, err := m.ledger.GetGeneration(ctx, *gen.ParentGenerationID)
	if err != nil {
		return nil, err
	}

	parentFiles, err := m.loadFiles(ctx, parent)
	if err != nil {
		return nil, fmt.Errorf("failed to load parent files: %w", err)
	}

	merged, emptyDelta := m.merger.Merge(parentFiles, files)
	if emptyDelta {
		// The policy would flag the same empty output a second time
		m.emit(ctx, gen, events.StageMergeWarning, 40, "iteration produced no files, parent set kept unchanged", map[string]any{
			"parent_count": len(parentFiles),
		})
		return merged, nil
	}

	result, err := m.validator.Validate(len(parentFiles), len(files), len(merged))
	if err != nil {
		// Policy evaluation failure must not block the save
		m.log.Warn("merge validation failed to evaluate", "generation_id", gen.ID, "error", err)
		return merged, nil
	}
	if !result.OK {
		m.log.Warn("possible data loss in iteration",
			"generation_id", gen.ID,
			"parent_count", result.ParentFileCount,
			"new_count", result.NewFileCount,
			"merged_count", result.MergedFileCount,
		)
		m.emit(ctx, gen, events.StageMergeWarning, 40, result.Message, map[string]any{
			"parent_count": result.ParentFileCount,
			"new_count":    result.NewFileCount,
			"merged_count": result.MergedFileCount,
		})
	}

	return merged, nil
}

// computeDiff renders and persists the diff against the previous completed
// version. Diffs are best-effort metadata: any failure here is logged and
// the save continues.
func (m *VersionManager) computeDiff(ctx context.Context, gen *models.Generation, files models.FileSet, storagePath string) {
	prev, err := m.ledger.GetPreviousCompleted(ctx, gen.ProjectID, gen.Version)
	if err != nil {
		m.log.Warn("failed to resolve previous version for diff", "generation_id", gen.ID, "error", err)
		return
	}
	if prev == nil {
		return
	}

	prevFiles, err := m.loadFiles(ctx, prev)
	if err != nil {
		m.log.Warn("failed to load previous version for diff",
			"generation_id", gen.ID,
			"previous_version", prev.Version,
			"error", err,
		)
		return
	}

	result := m.differ.Compute(prevFiles, files)
	gen.ChangesSummary = &result.Summary

	diffPath, err := m.store.WriteDiff(storagePath, prev.Version, result.UnifiedDiff)
	if err != nil {
		m.log.Warn("failed to persist diff", "generation_id", gen.ID, "error", err)
	} else {
		gen.DiffFromPrevious = &diffPath
	}

	m.emit(ctx, gen, events.StageDiffComputed, 80, fmt.Sprintf("diff against v%d computed", prev.Version), map[string]any{
		"added":    result.Summary.Added,
		"removed":  result.Summary.Removed,
		"modified": result.Summary.Modified,
	})
}

// SetActiveGeneration makes the target the project's single active
// generation. The database update commits first; the filesystem pointer is
// repointed after and repaired from database truth if it diverges.
func (m *VersionManager) SetActiveGeneration(ctx context.Context, projectID, generationID uuid.UUID) (*models.Generation, *uuid.UUID, error) {
	gen, err := m.ledger.GetGeneration(ctx, generationID)
	if err != nil {
		return nil, nil, err
	}
	if gen.ProjectID != projectID {
		return nil, nil, models.ErrGenerationNotFound
	}
	if gen.Status != models.StatusCompleted {
		return nil, nil, models.InvalidState("generation %s is %s, only completed generations can be activated", gen.ID, gen.Status)
	}

	previous, err := m.ledger.ActivateGeneration(ctx, projectID, generationID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to activate generation: %w", err)
	}
	gen.IsActive = true

	if err := m.store.SetActivePointer(projectID, storage.VersionDirName(gen.Version, gen.ID)); err != nil {
		// The database committed; the pointer is a cache and will be
		// repaired on the next active-generation read
		m.log.Error("failed to repoint active symlink", "project_id", projectID, "error", err)
		return nil, nil, &models.StorageWriteError{Op: "repoint active", Err: err}
	}

	m.emit(ctx, gen, events.StageActivated, 100, fmt.Sprintf("version %d activated", gen.Version), nil)

	m.log.Info("generation activated",
		"project_id", projectID,
		"generation_id", generationID,
		"version", gen.Version,
	)

	return gen, previous, nil
}

// GetGenerationByVersion resolves one version of a project
func (m *VersionManager) GetGenerationByVersion(ctx context.Context, projectID uuid.UUID, version int) (*models.Generation, error) {
	return m.ledger.GetGenerationByVersion(ctx, projectID, version)
}

// GetActiveGeneration resolves the active generation from database truth
// and lazily repairs the filesystem pointer when it disagrees
func (m *VersionManager) GetActiveGeneration(ctx context.Context, projectID uuid.UUID) (*models.Generation, error) {
	gen, err := m.ledger.GetActiveGeneration(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if repairErr := m.store.RepairActivePointer(projectID, storage.VersionDirName(gen.Version, gen.ID)); repairErr != nil {
		m.log.Warn("failed to repair active pointer", "project_id", projectID, "error", repairErr)
	}

	return gen, nil
}

// VersionList is the listing shape exposed to the API layer
type VersionList struct {
	TotalVersions int                     `json:"total_versions"`
	ActiveVersion *int                    `json:"active_version,omitempty"`
	Versions      []models.VersionSummary `json:"versions"`
}

// ListVersions lists a project's generations newest first, omitting failed
// ones unless requested
func (m *VersionManager) ListVersions(ctx context.Context, projectID uuid.UUID, includeFailed bool) (*VersionList, error) {
	if _, err := m.ledger.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	generations, err := m.ledger.ListGenerations(ctx, projectID, includeFailed)
	if err != nil {
		return nil, err
	}

	list := &VersionList{
		TotalVersions: len(generations),
		Versions:      make([]models.VersionSummary, 0, len(generations)),
	}
	for _, gen := range generations {
		if gen.IsActive {
			v := gen.Version
			list.ActiveVersion = &v
		}
		list.Versions = append(list.Versions, gen.Summary())
	}

	return list, nil
}

// DeleteGeneration removes a generation and optionally its stored files.
// The active generation must be deactivated first.
func (m *VersionManager) DeleteGeneration(ctx context.Context, generationID uuid.UUID, deleteFiles bool) error {
	gen, err := m.ledger.GetGeneration(ctx, generationID)
	if err != nil {
		return err
	}

	project, err := m.ledger.GetProject(ctx, gen.ProjectID)
	if err != nil {
		return err
	}
	if gen.IsActive || (project.ActiveGenerationID != nil && *project.ActiveGenerationID == gen.ID) {
		return models.InvalidState("generation %s is active and must be deactivated before deletion", gen.ID)
	}

	if err := m.ledger.DeleteGeneration(ctx, generationID); err != nil {
		return err
	}

	if deleteFiles && gen.StoragePath != nil {
		if err := m.store.DeleteVersion(gen.ProjectID, storage.VersionDirName(gen.Version, gen.ID)); err != nil {
			m.log.Warn("failed to delete version directory", "generation_id", gen.ID, "error", err)
		}
	}
	m.uncacheFiles(ctx, gen.ID)

	m.log.Info("deleted generation",
		"generation_id", generationID,
		"version", gen.Version,
		"files_deleted", deleteFiles,
	)

	return nil
}

// DeriveParentSchema summarizes a generation's stored structure for
// regeneration prompts
func (m *VersionManager) DeriveParentSchema(ctx context.Context, generationID uuid.UUID) (*merge.ProjectSchema, error) {
	gen, err := m.ledger.GetGeneration(ctx, generationID)
	if err != nil {
		return nil, err
	}

	files, err := m.loadFiles(ctx, gen)
	if err != nil {
		return nil, fmt.Errorf("failed to load generation files: %w", err)
	}

	return merge.DeriveSchema(files), nil
}

// failSave marks the generation Failed, emits the failure event and wraps
// the cause. Partial writes stay on disk; the generation never reaches
// Completed so they are never activated.
func (m *VersionManager) failSave(ctx context.Context, gen *models.Generation, op string, cause error) error {
	storageErr := &models.StorageWriteError{Op: op, Err: cause}

	if err := m.ledger.MarkGenerationFailed(ctx, gen.ID, storageErr.Error()); err != nil {
		m.log.Error("failed to mark generation failed", "generation_id", gen.ID, "error", err)
	}
	gen.Status = models.StatusFailed

	m.emit(ctx, gen, events.StageFailed, 100, storageErr.Error(), nil)

	return storageErr
}

// emit publishes a progress milestone; delivery is fire-and-forget
func (m *VersionManager) emit(ctx context.Context, gen *models.Generation, stage events.Stage, progress int, message string, detail map[string]any) {
	m.emitter.Emit(ctx, events.ProgressEvent{
		GenerationID: gen.ID,
		ProjectID:    gen.ProjectID,
		Stage:        stage,
		Progress:     progress,
		Message:      message,
		Detail:       detail,
	})
}
