package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ManifestFile is a single file entry in a version manifest
type ManifestFile struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"sizeBytes"`
}

// Manifest is the per-version metadata document stored alongside generated
// files as manifest.json
type Manifest struct {
	Version        int            `json:"version"`
	GenerationID   string         `json:"generationId"`
	FileCount      int            `json:"fileCount"`
	TotalSizeBytes int64          `json:"totalSizeBytes"`
	Files          []ManifestFile `json:"files"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// NewManifest builds a manifest for a file set. File entries are sorted by
// path so encoding is deterministic.
func NewManifest(version int, generationID uuid.UUID, files FileSet) *Manifest {
	entries := make([]ManifestFile, 0, len(files))
	for _, path := range files.Paths() {
		entries = append(entries, ManifestFile{
			Path:      path,
			SizeBytes: int64(len(files[path])),
		})
	}

	return &Manifest{
		Version:        version,
		GenerationID:   generationID.String(),
		FileCount:      len(files),
		TotalSizeBytes: files.TotalSize(),
		Files:          entries,
		CreatedAt:      time.Now().UTC(),
	}
}

// Encode serializes the manifest to indented JSON
func (m *Manifest) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return data, nil
}

// DecodeManifest parses a manifest document
func DecodeManifest(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}
