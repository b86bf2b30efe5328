package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyzr/genstore/common/models"
)

func TestCompute_ClassifiesPaths(t *testing.T) {
	from := models.FileSet{
		"unchanged.txt": []byte("same\n"),
		"modified.txt":  []byte("old content\n"),
		"removed.txt":   []byte("gone\n"),
	}
	to := models.FileSet{
		"unchanged.txt": []byte("same\n"),
		"modified.txt":  []byte("new content\n"),
		"added.txt":     []byte("fresh\n"),
	}

	result := NewEngine().Compute(from, to)

	assert.Equal(t, []string{"added.txt"}, result.AddedPaths)
	assert.Equal(t, []string{"removed.txt"}, result.RemovedPaths)
	assert.Equal(t, []string{"modified.txt"}, result.ModifiedPaths)
	assert.Equal(t, []string{"unchanged.txt"}, result.UnchangedPaths)
	assert.Equal(t, models.ChangesSummary{Added: 1, Removed: 1, Modified: 1}, result.Summary)
}

func TestCompute_UnifiedDiffText(t *testing.T) {
	from := models.FileSet{
		"app.py": []byte("line one\nline two\nline three\n"),
	}
	to := models.FileSet{
		"app.py": []byte("line one\nline 2\nline three\n"),
		"new.py": []byte("hello\n"),
	}

	result := NewEngine().Compute(from, to)

	assert.Contains(t, result.UnifiedDiff, "--- a/app.py")
	assert.Contains(t, result.UnifiedDiff, "+++ b/app.py")
	assert.Contains(t, result.UnifiedDiff, "-line two")
	assert.Contains(t, result.UnifiedDiff, "+line 2")

	assert.Contains(t, result.UnifiedDiff, "--- /dev/null")
	assert.Contains(t, result.UnifiedDiff, "+++ b/new.py")
	assert.Contains(t, result.UnifiedDiff, "+hello")
}

func TestCompute_RemovalRendersAgainstDevNull(t *testing.T) {
	from := models.FileSet{"old.txt": []byte("goodbye\n")}
	to := models.FileSet{}

	result := NewEngine().Compute(from, to)

	require.Equal(t, []string{"old.txt"}, result.RemovedPaths)
	assert.Contains(t, result.UnifiedDiff, "--- a/old.txt")
	assert.Contains(t, result.UnifiedDiff, "+++ /dev/null")
	assert.Contains(t, result.UnifiedDiff, "-goodbye")
}

func TestCompute_IdenticalSetsProduceNoDiff(t *testing.T) {
	files := models.FileSet{
		"a.txt": []byte("same\n"),
		"b.txt": []byte("also same\n"),
	}

	result := NewEngine().Compute(files, files.Clone())

	assert.Empty(t, result.AddedPaths)
	assert.Empty(t, result.RemovedPaths)
	assert.Empty(t, result.ModifiedPaths)
	assert.Len(t, result.UnchangedPaths, 2)
	assert.Equal(t, models.ChangesSummary{}, result.Summary)
}

func TestCompute_StableOrdering(t *testing.T) {
	from := models.FileSet{
		"b_mod.txt": []byte("x\n"),
		"a_mod.txt": []byte("y\n"),
	}
	to := models.FileSet{
		"b_mod.txt": []byte("x2\n"),
		"a_mod.txt": []byte("y2\n"),
		"z_new.txt": []byte("z\n"),
	}

	result := NewEngine().Compute(from, to)

	assert.Equal(t, []string{"a_mod.txt", "b_mod.txt"}, result.ModifiedPaths)

	// Modified hunks precede additions in the rendered text
	aIdx := strings.Index(result.UnifiedDiff, "a/a_mod.txt")
	bIdx := strings.Index(result.UnifiedDiff, "a/b_mod.txt")
	zIdx := strings.Index(result.UnifiedDiff, "b/z_new.txt")
	require.NotEqual(t, -1, aIdx)
	require.NotEqual(t, -1, bIdx)
	require.NotEqual(t, -1, zIdx)
	assert.Less(t, aIdx, bIdx)
	assert.Less(t, bIdx, zIdx)
}

func TestCompute_FileWithoutTrailingNewline(t *testing.T) {
	from := models.FileSet{"f.txt": []byte("no newline")}
	to := models.FileSet{"f.txt": []byte("still no newline")}

	result := NewEngine().Compute(from, to)

	assert.Equal(t, []string{"f.txt"}, result.ModifiedPaths)
	assert.Contains(t, result.UnifiedDiff, "-no newline")
	assert.Contains(t, result.UnifiedDiff, "+still no newline")
}
