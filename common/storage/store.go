// Package storage owns the on-disk layout for generation versions:
//
//	{root}/{project_id}/generations/
//	    active -> v{N}__{generation_id}
//	    v{N}__{generation_id}/
//	        manifest.json
//	        source/...
//	        diff_from_v{N-1}.patch
//
// The active symlink is a cache of database truth. It is replaced
// atomically (create-then-rename) and can be re-derived from the database
// at any time; readers must not trust it over the project row.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/lyzr/genstore/common/config"
	"github.com/lyzr/genstore/common/logger"
	"github.com/lyzr/genstore/common/models"
)

const (
	generationsDir = "generations"
	sourceDir      = "source"
	manifestName   = "manifest.json"
	activeName     = "active"
)

// ErrVersionDirMissing is returned when a version directory does not exist
// under the hierarchical layout
var ErrVersionDirMissing = errors.New("version directory missing")

// Store manages the hierarchical generation layout under a root directory
type Store struct {
	root        string
	legacyReads bool
	log         *logger.Logger
}

// New creates a storage manager rooted at cfg.Root
func New(cfg config.StorageConfig, log *logger.Logger) *Store {
	return &Store{
		root:        cfg.Root,
		legacyReads: cfg.LegacyReads,
		log:         log,
	}
}

// VersionDirName returns the directory name for a version
func VersionDirName(version int, generationID uuid.UUID) string {
	return fmt.Sprintf("v%d__%s", version, generationID)
}

// DiffFileName returns the patch file name for a diff against fromVersion
func DiffFileName(fromVersion int) string {
	return fmt.Sprintf("diff_from_v%d.patch", fromVersion)
}

func (s *Store) projectDir(projectID uuid.UUID) string {
	return filepath.Join(s.root, projectID.String(), generationsDir)
}

// VersionDir returns the absolute path of a version directory
func (s *Store) VersionDir(projectID uuid.UUID, versionDirName string) string {
	return filepath.Join(s.projectDir(projectID), versionDirName)
}

// SaveFiles persists a file set and its manifest under the version
// directory and returns the directory path. Re-invocation with the same
// arguments overwrites: the source tree is rebuilt from scratch so stale
// files from a prior attempt cannot linger.
func (s *Store) SaveFiles(projectID, generationID uuid.UUID, version int, files models.FileSet) (string, error) {
	dirName := VersionDirName(version, generationID)
	versionDir := s.VersionDir(projectID, dirName)
	srcDir := filepath.Join(versionDir, sourceDir)

	if err := os.RemoveAll(srcDir); err != nil {
		return "", fmt.Errorf("clear source dir: %w", err)
	}
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		return "", fmt.Errorf("create source dir: %w", err)
	}

	for _, path := range files.Paths() {
		target, err := secureJoin(srcDir, path)
		if err != nil {
			return "", err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return "", fmt.Errorf("create parent dirs for %s: %w", path, err)
		}
		if err := os.WriteFile(target, files[path], 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
	}

	manifest := models.NewManifest(version, generationID, files)
	data, err := manifest.Encode()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(versionDir, manifestName), data, 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}

	s.log.Info("saved generation files",
		"project_id", projectID,
		"generation_id", generationID,
		"version", version,
		"file_count", len(files),
		"total_bytes", files.TotalSize(),
	)

	return versionDir, nil
}

// WriteDiff persists a unified diff next to the version's manifest and
// returns the patch path
func (s *Store) WriteDiff(versionDir string, fromVersion int, diffText string) (string, error) {
	path := filepath.Join(versionDir, DiffFileName(fromVersion))
	if err := os.WriteFile(path, []byte(diffText), 0o644); err != nil {
		return "", fmt.Errorf("write diff: %w", err)
	}
	return path, nil
}

// SetActivePointer atomically repoints the active symlink at a version
// directory. A temporary symlink is created first and renamed over the old
// one, so the pointer is never missing or half-written, even on a crash
// between the two steps.
func (s *Store) SetActivePointer(projectID uuid.UUID, versionDirName string) error {
	projDir := s.projectDir(projectID)

	if _, err := os.Stat(filepath.Join(projDir, versionDirName)); err != nil {
		return fmt.Errorf("pointer target %s: %w", versionDirName, err)
	}

	tmp := filepath.Join(projDir, ".active.tmp")
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear stale temp pointer: %w", err)
	}
	if err := os.Symlink(versionDirName, tmp); err != nil {
		return fmt.Errorf("create temp pointer: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(projDir, activeName)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace active pointer: %w", err)
	}

	s.log.Info("active pointer moved", "project_id", projectID, "target", versionDirName)
	return nil
}

// ResolveActivePointer returns the version directory name the active
// symlink points at. The empty string means no pointer exists.
func (s *Store) ResolveActivePointer(projectID uuid.UUID) (string, error) {
	target, err := os.Readlink(filepath.Join(s.projectDir(projectID), activeName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("resolve active pointer: %w", err)
	}
	return target, nil
}

// RepairActivePointer re-derives the symlink from database truth. Called
// when a reader observes a mismatch; the database always wins.
func (s *Store) RepairActivePointer(projectID uuid.UUID, expectedDirName string) error {
	current, err := s.ResolveActivePointer(projectID)
	if err != nil {
		return err
	}
	if current == expectedDirName {
		return nil
	}

	s.log.Warn("active pointer out of sync, repairing",
		"project_id", projectID,
		"pointer", current,
		"expected", expectedDirName,
	)
	return s.SetActivePointer(projectID, expectedDirName)
}

// ReadManifest reads and decodes a version's manifest.json
func (s *Store) ReadManifest(projectID uuid.UUID, versionDirName string) (*models.Manifest, error) {
	data, err := os.ReadFile(filepath.Join(s.VersionDir(projectID, versionDirName), manifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrVersionDirMissing
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return models.DecodeManifest(data)
}

// ReadFiles loads the stored file set of a version from its source tree
func (s *Store) ReadFiles(projectID uuid.UUID, versionDirName string) (models.FileSet, error) {
	srcDir := filepath.Join(s.VersionDir(projectID, versionDirName), sourceDir)
	files, err := readTree(srcDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrVersionDirMissing
		}
		return nil, err
	}
	return files, nil
}

// LoadFiles loads a generation's file set, falling back to the legacy flat
// layout for generations persisted before the hierarchical layout existed
func (s *Store) LoadFiles(projectID, generationID uuid.UUID, version int) (models.FileSet, error) {
	files, err := s.ReadFiles(projectID, VersionDirName(version, generationID))
	if err == nil {
		return files, nil
	}
	if !errors.Is(err, ErrVersionDirMissing) || !s.legacyReads {
		return nil, err
	}

	legacy, legacyErr := s.readLegacyFiles(projectID, generationID)
	if legacyErr != nil {
		// Report the hierarchical miss; the legacy path is best-effort
		return nil, err
	}

	s.log.Debug("loaded generation from legacy layout",
		"project_id", projectID,
		"generation_id", generationID,
	)
	return legacy, nil
}

// DeleteVersion removes a version directory. It refuses to delete the
// directory the active pointer currently targets.
func (s *Store) DeleteVersion(projectID uuid.UUID, versionDirName string) error {
	current, err := s.ResolveActivePointer(projectID)
	if err != nil {
		return err
	}
	if current == versionDirName {
		return models.InvalidState("version directory %s is the active pointer target", versionDirName)
	}

	if err := os.RemoveAll(s.VersionDir(projectID, versionDirName)); err != nil {
		return fmt.Errorf("delete version dir: %w", err)
	}

	s.log.Info("deleted version directory", "project_id", projectID, "dir", versionDirName)
	return nil
}

// readTree walks a directory and returns its files keyed by slash-separated
// relative path
func readTree(dir string) (models.FileSet, error) {
	files := make(models.FileSet)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		files[filepath.ToSlash(rel)] = content
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// secureJoin joins a relative path onto base, rejecting absolute paths and
// any path that escapes base after cleaning
func secureJoin(base, rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", fmt.Errorf("invalid file path %q", rel)
	}
	joined := filepath.Join(base, filepath.FromSlash(rel))
	if joined != base && !strings.HasPrefix(joined, base+string(filepath.Separator)) {
		return "", fmt.Errorf("file path %q escapes version directory", rel)
	}
	return joined, nil
}
