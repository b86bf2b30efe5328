package diff

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyzr/genstore/common/models"
)

func TestManifestMergePatch(t *testing.T) {
	fromFiles := models.FileSet{"a.txt": []byte("aa")}
	toFiles := models.FileSet{
		"a.txt": []byte("aa"),
		"b.txt": []byte("bbbb"),
	}

	from := models.NewManifest(1, uuid.New(), fromFiles)
	to := models.NewManifest(2, uuid.New(), toFiles)

	patch, err := ManifestMergePatch(from, to)
	require.NoError(t, err)

	var delta map[string]interface{}
	require.NoError(t, json.Unmarshal(patch, &delta))

	assert.Equal(t, float64(2), delta["version"])
	assert.Equal(t, float64(2), delta["fileCount"])
	assert.Equal(t, float64(6), delta["totalSizeBytes"])
}

func TestManifestMergePatch_IdenticalFileSets(t *testing.T) {
	id := uuid.New()
	files := models.FileSet{"a.txt": []byte("aa")}

	from := models.NewManifest(1, id, files)
	to := models.NewManifest(1, id, files)
	to.CreatedAt = from.CreatedAt

	patch, err := ManifestMergePatch(from, to)
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(patch))
}
