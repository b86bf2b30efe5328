package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Comparison is the result of comparing two stored versions of a project
type Comparison struct {
	ProjectID   uuid.UUID `json:"project_id"`
	FromVersion int       `json:"from_version"`
	ToVersion   int       `json:"to_version"`

	AddedPaths     []string `json:"added_paths"`
	RemovedPaths   []string `json:"removed_paths"`
	ModifiedPaths  []string `json:"modified_paths"`
	UnchangedPaths []string `json:"unchanged_paths"`

	// Concatenated per-file unified diffs with file-path headers
	UnifiedDiff string `json:"unified_diff"`

	Summary ChangesSummary `json:"summary"`

	// Byte-size delta between the two file sets (to minus from)
	SizeDeltaBytes int64 `json:"size_delta_bytes"`

	// Quality-score delta when both versions carry a score
	QualityDelta *float64 `json:"quality_delta,omitempty"`

	// RFC 7386 merge patch between the two version manifests, for
	// machine consumers that want a structured delta
	ManifestPatch json.RawMessage `json:"manifest_patch,omitempty"`
}
