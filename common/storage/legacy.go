package storage

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/lyzr/genstore/common/models"
)

// readLegacyFiles reads the flat pre-hierarchical layout:
//
//	{root}/{project_id}/generations/{generation_id}/...
//
// Legacy directories have no version prefix, no source/ subdirectory and no
// manifest. Write paths never use this layout; it exists for generations
// persisted before the hierarchical engine.
func (s *Store) readLegacyFiles(projectID, generationID uuid.UUID) (models.FileSet, error) {
	dir := filepath.Join(s.projectDir(projectID), generationID.String())

	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, os.ErrNotExist
	}

	return readTree(dir)
}
