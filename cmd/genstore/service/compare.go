package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lyzr/genstore/common/diff"
	"github.com/lyzr/genstore/common/models"
	"github.com/lyzr/genstore/common/storage"
)

// CompareGenerations diffs two stored versions of a project. Both versions
// must exist; failed generations have no stored files and cannot be
// compared.
func (m *VersionManager) CompareGenerations(ctx context.Context, projectID uuid.UUID, fromVersion, toVersion int) (*models.Comparison, error) {
	from, err := m.ledger.GetGenerationByVersion(ctx, projectID, fromVersion)
	if err != nil {
		return nil, err
	}
	to, err := m.ledger.GetGenerationByVersion(ctx, projectID, toVersion)
	if err != nil {
		return nil, err
	}

	if from.Status != models.StatusCompleted || to.Status != models.StatusCompleted {
		return nil, models.InvalidState("only completed generations can be compared")
	}

	fromFiles, err := m.loadFiles(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to load v%d files: %w", fromVersion, err)
	}
	toFiles, err := m.loadFiles(ctx, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load v%d files: %w", toVersion, err)
	}

	result := m.differ.Compute(fromFiles, toFiles)

	comparison := &models.Comparison{
		ProjectID:      projectID,
		FromVersion:    fromVersion,
		ToVersion:      toVersion,
		AddedPaths:     result.AddedPaths,
		RemovedPaths:   result.RemovedPaths,
		ModifiedPaths:  result.ModifiedPaths,
		UnchangedPaths: result.UnchangedPaths,
		UnifiedDiff:    result.UnifiedDiff,
		Summary:        result.Summary,
		SizeDeltaBytes: toFiles.TotalSize() - fromFiles.TotalSize(),
	}

	if from.QualityScore != nil && to.QualityScore != nil {
		delta := *to.QualityScore - *from.QualityScore
		comparison.QualityDelta = &delta
	}

	// Manifest patch is best-effort metadata, like the persisted diff
	if patch := m.manifestPatch(from, to); patch != nil {
		comparison.ManifestPatch = patch
	}

	return comparison, nil
}

func (m *VersionManager) manifestPatch(from, to *models.Generation) json.RawMessage {
	fromManifest, err := m.store.ReadManifest(from.ProjectID, storage.VersionDirName(from.Version, from.ID))
	if err != nil {
		m.log.Debug("no manifest for from-version", "version", from.Version, "error", err)
		return nil
	}
	toManifest, err := m.store.ReadManifest(to.ProjectID, storage.VersionDirName(to.Version, to.ID))
	if err != nil {
		m.log.Debug("no manifest for to-version", "version", to.Version, "error", err)
		return nil
	}

	patch, err := diff.ManifestMergePatch(fromManifest, toManifest)
	if err != nil {
		m.log.Warn("failed to build manifest patch", "error", err)
		return nil
	}
	return patch
}

// loadFiles reads a generation's file set through the cache. Storage is
// the source of truth; the cache only skips repeated directory walks
// during compare-heavy workloads.
func (m *VersionManager) loadFiles(ctx context.Context, gen *models.Generation) (models.FileSet, error) {
	key := fileCacheKey(gen.ID)

	if m.cache != nil {
		if data, ok, err := m.cache.Get(ctx, key); err == nil && ok {
			var files models.FileSet
			if err := json.Unmarshal(data, &files); err == nil {
				return files, nil
			}
			// Corrupt entry; fall through to storage
			m.cache.Delete(ctx, key)
		}
	}

	files, err := m.store.LoadFiles(gen.ProjectID, gen.ID, gen.Version)
	if err != nil {
		return nil, err
	}

	m.cacheFiles(ctx, gen.ID, files)
	return files, nil
}

func (m *VersionManager) cacheFiles(ctx context.Context, generationID uuid.UUID, files models.FileSet) {
	if m.cache == nil {
		return
	}
	data, err := json.Marshal(files)
	if err != nil {
		return
	}
	if err := m.cache.Set(ctx, fileCacheKey(generationID), data, fileCacheTTL); err != nil {
		m.log.Debug("failed to cache file set", "generation_id", generationID, "error", err)
	}
}

func (m *VersionManager) uncacheFiles(ctx context.Context, generationID uuid.UUID) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Delete(ctx, fileCacheKey(generationID)); err != nil {
		m.log.Debug("failed to drop cached file set", "generation_id", generationID, "error", err)
	}
}

// fileCacheTTL bounds staleness of cached file sets; versions are
// immutable once completed so a generous TTL is safe
const fileCacheTTL = 15 * time.Minute

func fileCacheKey(generationID uuid.UUID) string {
	return "files:" + generationID.String()
}
