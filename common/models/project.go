package models

import (
	"time"

	"github.com/google/uuid"
)

// Project owns a sequence of generations and the pointer to the one that is
// currently active.
// Maps to: project table
type Project struct {
	// Unique project ID
	ID uuid.UUID `db:"project_id" json:"project_id"`

	// Optional display name
	Name string `db:"name" json:"name"`

	// Monotonic version counter. Never decreases; the next generation is
	// always assigned latest_version + 1 under a row lock.
	LatestVersion int `db:"latest_version" json:"latest_version"`

	// Back-reference to the single active generation, if any. Lookup only,
	// not ownership; must reference a Completed generation of this project.
	ActiveGenerationID *uuid.UUID `db:"active_generation_id" json:"active_generation_id,omitempty"`

	// Audit fields
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
