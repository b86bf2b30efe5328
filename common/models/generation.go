package models

import (
	"time"

	"github.com/google/uuid"
)

// GenerationStatus represents the lifecycle state of a generation
type GenerationStatus string

const (
	StatusProcessing GenerationStatus = "processing"
	StatusCompleted  GenerationStatus = "completed"
	StatusFailed     GenerationStatus = "failed"
	StatusCancelled  GenerationStatus = "cancelled"
)

// PromptPreviewLen caps the prompt excerpt returned in version summaries
const PromptPreviewLen = 100

// Generation represents one immutable, versioned snapshot of AI-produced
// project files.
// Maps to: generation table
type Generation struct {
	// Unique generation ID (UUID v7)
	ID uuid.UUID `db:"generation_id" json:"generation_id"`

	// Owning project
	ProjectID uuid.UUID `db:"project_id" json:"project_id"`

	// Set when this generation was created as an iteration on a prior one
	ParentGenerationID *uuid.UUID `db:"parent_generation_id" json:"parent_generation_id,omitempty"`

	// Version number, unique per project, assigned at creation
	Version int `db:"version" json:"version"`

	// Optional human-readable version name
	VersionName *string `db:"version_name" json:"version_name,omitempty"`

	// At most one generation per project is active, mirrored by
	// project.active_generation_id
	IsActive bool `db:"is_active" json:"is_active"`

	Status GenerationStatus `db:"status" json:"status"`

	// Prompt the generation was requested with
	Prompt string `db:"prompt" json:"prompt"`

	// ========================================================================
	// OUTPUT METADATA (set when the generation completes)
	// ========================================================================

	// Version directory path under the storage root
	StoragePath *string `db:"storage_path" json:"storage_path,omitempty"`

	// Redundant caches of the stored file set; the manifest on disk is the
	// source of truth
	FileCount      int    `db:"file_count" json:"file_count"`
	TotalSizeBytes *int64 `db:"total_size_bytes" json:"total_size_bytes,omitempty"`

	// Path of the persisted diff against the previous version, if any
	DiffFromPrevious *string `db:"diff_from_previous" json:"diff_from_previous,omitempty"`

	// File-level change counts against the previous version
	ChangesSummary *ChangesSummary `db:"changes_summary" json:"changes_summary,omitempty"`

	// Optional score assigned by an external evaluation step
	QualityScore *float64 `db:"quality_score" json:"quality_score,omitempty"`

	// Recorded when the generation fails; retained for display
	ErrorMessage *string `db:"error_message" json:"error_message,omitempty"`

	// Audit fields
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// ChangesSummary counts file-level changes against the previous version
type ChangesSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
}

// IsIteration checks if the generation extends a parent generation
func (g *Generation) IsIteration() bool {
	return g.ParentGenerationID != nil
}

// IsTerminal checks if the generation reached a terminal status
func (g *Generation) IsTerminal() bool {
	switch g.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// PromptPreview returns the prompt truncated for version listings.
// Truncation counts runes so a multi-byte character is never split.
func (g *Generation) PromptPreview() string {
	if len(g.Prompt) <= PromptPreviewLen {
		return g.Prompt
	}
	runes := []rune(g.Prompt)
	if len(runes) <= PromptPreviewLen {
		return g.Prompt
	}
	return string(runes[:PromptPreviewLen])
}

// VersionSummary is the compact shape returned by version listings
type VersionSummary struct {
	ID             uuid.UUID        `json:"generation_id"`
	Version        int              `json:"version"`
	VersionName    *string          `json:"version_name,omitempty"`
	Status         GenerationStatus `json:"status"`
	IsActive       bool             `json:"is_active"`
	FileCount      int              `json:"file_count"`
	TotalSizeBytes *int64           `json:"total_size_bytes,omitempty"`
	QualityScore   *float64         `json:"quality_score,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	PromptPreview  string           `json:"prompt_preview"`
}

// Summary builds the listing shape for this generation
func (g *Generation) Summary() VersionSummary {
	return VersionSummary{
		ID:             g.ID,
		Version:        g.Version,
		VersionName:    g.VersionName,
		Status:         g.Status,
		IsActive:       g.IsActive,
		FileCount:      g.FileCount,
		TotalSizeBytes: g.TotalSizeBytes,
		QualityScore:   g.QualityScore,
		CreatedAt:      g.CreatedAt,
		PromptPreview:  g.PromptPreview(),
	}
}
