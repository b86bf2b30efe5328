// Package merge reconciles a parent generation's file set with a newly
// generated, possibly partial file set. Merge never removes a parent path;
// the validator exists to catch callers that bypass the merge and persist
// the raw generator output instead.
package merge

import (
	"github.com/lyzr/genstore/common/logger"
	"github.com/lyzr/genstore/common/models"
)

// Merger combines parent and newly generated file sets
type Merger struct {
	log *logger.Logger
}

// NewMerger creates a new merger
func NewMerger(log *logger.Logger) *Merger {
	return &Merger{log: log}
}

// Merge overlays newFiles onto parentFiles. New and changed paths win;
// every parent path absent from newFiles is preserved byte-for-byte. An
// empty newFiles is a no-op modification, not a failure: the parent set is
// returned unchanged and emptyDelta is true so the caller can surface a
// warning.
func (m *Merger) Merge(parentFiles, newFiles models.FileSet) (merged models.FileSet, emptyDelta bool) {
	if len(newFiles) == 0 {
		m.log.Warn("iteration produced no files, keeping parent set unchanged",
			"parent_count", len(parentFiles),
		)
		return parentFiles.Clone(), true
	}

	merged = parentFiles.Clone()
	overwritten := 0
	for path, content := range newFiles {
		if _, ok := merged[path]; ok {
			overwritten++
		}
		c := make([]byte, len(content))
		copy(c, content)
		merged[path] = c
	}

	m.log.Info("merged iteration output",
		"parent_count", len(parentFiles),
		"new_count", len(newFiles),
		"merged_count", len(merged),
		"overwritten", overwritten,
	)

	return merged, false
}
