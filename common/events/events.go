// Package events carries coarse progress milestones out of the version
// engine. The engine only writes to the sink and never reads it back;
// delivery is fire-and-forget and failures are logged, not returned.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Stage identifies a progress milestone
type Stage string

const (
	StageFilesSaved   Stage = "files_saved"
	StageDiffComputed Stage = "diff_computed"
	StageActivated    Stage = "activated"
	StageMergeWarning Stage = "merge_warning"
	StageFailed       Stage = "failed"
)

// ProgressEvent is the payload published per milestone
type ProgressEvent struct {
	GenerationID uuid.UUID      `json:"generation_id"`
	ProjectID    uuid.UUID      `json:"project_id"`
	Stage        Stage          `json:"stage"`
	Progress     int            `json:"progress"`
	Message      string         `json:"message,omitempty"`
	Detail       map[string]any `json:"detail,omitempty"`
	EmittedAt    time.Time      `json:"emitted_at"`
}

// Emitter is the fire-and-forget progress sink
type Emitter interface {
	Emit(ctx context.Context, event ProgressEvent)
	Close() error
}
