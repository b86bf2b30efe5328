package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyzr/genstore/common/config"
	"github.com/lyzr/genstore/common/logger"
	"github.com/lyzr/genstore/common/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return New(config.StorageConfig{
		Root:        t.TempDir(),
		LegacyReads: true,
	}, logger.New("error", "text"))
}

func TestSaveFiles_LayoutAndManifest(t *testing.T) {
	s := testStore(t)
	projectID := uuid.New()
	generationID := uuid.New()
	files := models.FileSet{
		"main.py":            []byte("print('hello')\n"),
		"app/models/user.py": []byte("class User: pass\n"),
	}

	versionDir, err := s.SaveFiles(projectID, generationID, 1, files)
	require.NoError(t, err)

	assert.Equal(t, s.VersionDir(projectID, VersionDirName(1, generationID)), versionDir)

	// Source tree mirrors the file set, nested dirs included
	content, err := os.ReadFile(filepath.Join(versionDir, "source", "app", "models", "user.py"))
	require.NoError(t, err)
	assert.Equal(t, []byte("class User: pass\n"), content)

	manifest, err := s.ReadManifest(projectID, VersionDirName(1, generationID))
	require.NoError(t, err)
	assert.Equal(t, 1, manifest.Version)
	assert.Equal(t, generationID.String(), manifest.GenerationID)
	assert.Equal(t, 2, manifest.FileCount)
	assert.Equal(t, files.TotalSize(), manifest.TotalSizeBytes)
	require.Len(t, manifest.Files, 2)
	assert.Equal(t, "app/models/user.py", manifest.Files[0].Path)
	assert.Equal(t, "main.py", manifest.Files[1].Path)
}

func TestSaveFiles_ResaveDropsStaleFiles(t *testing.T) {
	s := testStore(t)
	projectID := uuid.New()
	generationID := uuid.New()

	_, err := s.SaveFiles(projectID, generationID, 1, models.FileSet{
		"keep.txt":  []byte("keep"),
		"stale.txt": []byte("stale"),
	})
	require.NoError(t, err)

	_, err = s.SaveFiles(projectID, generationID, 1, models.FileSet{
		"keep.txt": []byte("keep v2"),
	})
	require.NoError(t, err)

	files, err := s.ReadFiles(projectID, VersionDirName(1, generationID))
	require.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, []byte("keep v2"), files["keep.txt"])
}

func TestSaveFiles_RejectsEscapingPath(t *testing.T) {
	s := testStore(t)

	_, err := s.SaveFiles(uuid.New(), uuid.New(), 1, models.FileSet{
		"../../escape.txt": []byte("x"),
	})
	assert.Error(t, err)
}

func TestReadFiles_RoundTrip(t *testing.T) {
	s := testStore(t)
	projectID := uuid.New()
	generationID := uuid.New()
	files := models.FileSet{
		"a.txt":       []byte("alpha"),
		"dir/b.txt":   []byte("beta"),
		"dir/c/d.txt": []byte("delta"),
	}

	_, err := s.SaveFiles(projectID, generationID, 3, files)
	require.NoError(t, err)

	loaded, err := s.ReadFiles(projectID, VersionDirName(3, generationID))
	require.NoError(t, err)
	assert.Equal(t, files.Strings(), loaded.Strings())
}

func TestReadFiles_MissingVersion(t *testing.T) {
	s := testStore(t)

	_, err := s.ReadFiles(uuid.New(), VersionDirName(1, uuid.New()))
	assert.ErrorIs(t, err, ErrVersionDirMissing)
}

func TestActivePointer_SetResolve(t *testing.T) {
	s := testStore(t)
	projectID := uuid.New()
	gen1 := uuid.New()
	gen2 := uuid.New()

	_, err := s.SaveFiles(projectID, gen1, 1, models.FileSet{"a.txt": []byte("v1")})
	require.NoError(t, err)
	_, err = s.SaveFiles(projectID, gen2, 2, models.FileSet{"a.txt": []byte("v2")})
	require.NoError(t, err)

	// No pointer yet
	target, err := s.ResolveActivePointer(projectID)
	require.NoError(t, err)
	assert.Empty(t, target)

	require.NoError(t, s.SetActivePointer(projectID, VersionDirName(1, gen1)))
	target, err = s.ResolveActivePointer(projectID)
	require.NoError(t, err)
	assert.Equal(t, VersionDirName(1, gen1), target)

	// Repointing replaces, never leaves the pointer missing
	require.NoError(t, s.SetActivePointer(projectID, VersionDirName(2, gen2)))
	target, err = s.ResolveActivePointer(projectID)
	require.NoError(t, err)
	assert.Equal(t, VersionDirName(2, gen2), target)

	// The symlink resolves to real content
	content, err := os.ReadFile(filepath.Join(s.projectDir(projectID), "active", "source", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), content)
}

func TestSetActivePointer_RejectsMissingTarget(t *testing.T) {
	s := testStore(t)
	projectID := uuid.New()

	_, err := s.SaveFiles(projectID, uuid.New(), 1, models.FileSet{"a.txt": []byte("x")})
	require.NoError(t, err)

	err = s.SetActivePointer(projectID, VersionDirName(99, uuid.New()))
	assert.Error(t, err)
}

func TestRepairActivePointer(t *testing.T) {
	s := testStore(t)
	projectID := uuid.New()
	gen1 := uuid.New()
	gen2 := uuid.New()

	_, err := s.SaveFiles(projectID, gen1, 1, models.FileSet{"a.txt": []byte("v1")})
	require.NoError(t, err)
	_, err = s.SaveFiles(projectID, gen2, 2, models.FileSet{"a.txt": []byte("v2")})
	require.NoError(t, err)

	// Pointer drifted to v1 while the database says v2
	require.NoError(t, s.SetActivePointer(projectID, VersionDirName(1, gen1)))
	require.NoError(t, s.RepairActivePointer(projectID, VersionDirName(2, gen2)))

	target, err := s.ResolveActivePointer(projectID)
	require.NoError(t, err)
	assert.Equal(t, VersionDirName(2, gen2), target)

	// Already in sync is a no-op
	require.NoError(t, s.RepairActivePointer(projectID, VersionDirName(2, gen2)))
}

func TestDeleteVersion(t *testing.T) {
	s := testStore(t)
	projectID := uuid.New()
	gen1 := uuid.New()
	gen2 := uuid.New()

	_, err := s.SaveFiles(projectID, gen1, 1, models.FileSet{"a.txt": []byte("v1")})
	require.NoError(t, err)
	_, err = s.SaveFiles(projectID, gen2, 2, models.FileSet{"a.txt": []byte("v2")})
	require.NoError(t, err)
	require.NoError(t, s.SetActivePointer(projectID, VersionDirName(2, gen2)))

	// Deleting the active pointer target is refused
	err = s.DeleteVersion(projectID, VersionDirName(2, gen2))
	assert.ErrorIs(t, err, models.ErrInvalidState)

	// Other versions can go
	require.NoError(t, s.DeleteVersion(projectID, VersionDirName(1, gen1)))
	_, err = s.ReadFiles(projectID, VersionDirName(1, gen1))
	assert.ErrorIs(t, err, ErrVersionDirMissing)
}

func TestLoadFiles_LegacyFallback(t *testing.T) {
	root := t.TempDir()
	s := New(config.StorageConfig{Root: root, LegacyReads: true}, logger.New("error", "text"))
	projectID := uuid.New()
	generationID := uuid.New()

	// A generation persisted by the flat pre-hierarchical layout
	legacyDir := filepath.Join(root, projectID.String(), "generations", generationID.String())
	require.NoError(t, os.MkdirAll(filepath.Join(legacyDir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(legacyDir, "main.py"), []byte("legacy"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(legacyDir, "sub", "x.py"), []byte("nested"), 0o644))

	files, err := s.LoadFiles(projectID, generationID, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"main.py":  "legacy",
		"sub/x.py": "nested",
	}, files.Strings())
}

func TestLoadFiles_LegacyDisabled(t *testing.T) {
	root := t.TempDir()
	s := New(config.StorageConfig{Root: root, LegacyReads: false}, logger.New("error", "text"))
	projectID := uuid.New()
	generationID := uuid.New()

	legacyDir := filepath.Join(root, projectID.String(), "generations", generationID.String())
	require.NoError(t, os.MkdirAll(legacyDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(legacyDir, "main.py"), []byte("legacy"), 0o644))

	_, err := s.LoadFiles(projectID, generationID, 1)
	assert.ErrorIs(t, err, ErrVersionDirMissing)
}

func TestLoadFiles_PrefersHierarchicalLayout(t *testing.T) {
	root := t.TempDir()
	s := New(config.StorageConfig{Root: root, LegacyReads: true}, logger.New("error", "text"))
	projectID := uuid.New()
	generationID := uuid.New()

	legacyDir := filepath.Join(root, projectID.String(), "generations", generationID.String())
	require.NoError(t, os.MkdirAll(legacyDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(legacyDir, "main.py"), []byte("legacy"), 0o644))

	_, err := s.SaveFiles(projectID, generationID, 1, models.FileSet{"main.py": []byte("hierarchical")})
	require.NoError(t, err)

	files, err := s.LoadFiles(projectID, generationID, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("hierarchical"), files["main.py"])
}

func TestWriteDiff(t *testing.T) {
	s := testStore(t)
	projectID := uuid.New()
	generationID := uuid.New()

	versionDir, err := s.SaveFiles(projectID, generationID, 2, models.FileSet{"a.txt": []byte("x")})
	require.NoError(t, err)

	path, err := s.WriteDiff(versionDir, 1, "--- a/a.txt\n+++ b/a.txt\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(versionDir, "diff_from_v1.patch"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "--- a/a.txt\n+++ b/a.txt\n", string(content))
}
