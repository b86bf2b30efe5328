package diff

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/lyzr/genstore/common/models"
)

// ManifestMergePatch builds an RFC 7386 merge patch describing how the
// from-manifest becomes the to-manifest. Machine consumers use it as a
// structured delta next to the human-readable unified diff.
func ManifestMergePatch(from, to *models.Manifest) (json.RawMessage, error) {
	fromJSON, err := json.Marshal(from)
	if err != nil {
		return nil, fmt.Errorf("marshal from-manifest: %w", err)
	}
	toJSON, err := json.Marshal(to)
	if err != nil {
		return nil, fmt.Errorf("marshal to-manifest: %w", err)
	}

	patch, err := jsonpatch.CreateMergePatch(fromJSON, toJSON)
	if err != nil {
		return nil, fmt.Errorf("create manifest merge patch: %w", err)
	}

	return json.RawMessage(patch), nil
}
