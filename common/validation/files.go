// Package validation guards the boundary with the external code-generation
// collaborator. Its output is an opaque, possibly-partial file map; nothing
// past this boundary should have to re-check path hygiene.
package validation

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/lyzr/genstore/common/models"
)

const (
	// MaxFiles caps the number of files accepted in one generation
	MaxFiles = 5000

	// MaxFileBytes caps a single file's content size
	MaxFileBytes = 10 << 20 // 10 MiB

	// MaxTotalBytes caps the whole file set
	MaxTotalBytes = 200 << 20 // 200 MiB
)

// ValidateFileSet rejects file maps that cannot be persisted safely:
// absolute paths, traversal segments, unclean or non-UTF-8 paths, and
// oversized payloads. An empty map is legal here; the merge layer decides
// what an empty iteration means.
func ValidateFileSet(files models.FileSet) error {
	if len(files) > MaxFiles {
		return fmt.Errorf("file set has %d files, limit is %d", len(files), MaxFiles)
	}

	var total int64
	for p, content := range files {
		if err := validatePath(p); err != nil {
			return err
		}
		if len(content) > MaxFileBytes {
			return fmt.Errorf("file %s is %d bytes, limit is %d", p, len(content), MaxFileBytes)
		}
		total += int64(len(content))
	}

	if total > MaxTotalBytes {
		return fmt.Errorf("file set totals %d bytes, limit is %d", total, MaxTotalBytes)
	}

	return nil
}

func validatePath(p string) error {
	if p == "" {
		return fmt.Errorf("empty file path")
	}
	if !utf8.ValidString(p) {
		return fmt.Errorf("file path is not valid UTF-8")
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return fmt.Errorf("file path %q must be relative with forward slashes", p)
	}
	if cleaned := path.Clean(p); cleaned != p {
		return fmt.Errorf("file path %q is not clean (expected %q)", p, cleaned)
	}
	if p == ".." || strings.HasPrefix(p, "../") {
		return fmt.Errorf("file path %q escapes the source root", p)
	}
	return nil
}
