package models

import "sort"

// FileSet maps relative file paths to raw content. Paths may be arbitrarily
// nested; insertion order is irrelevant.
type FileSet map[string][]byte

// Paths returns all paths in sorted order
func (f FileSet) Paths() []string {
	paths := make([]string, 0, len(f))
	for p := range f {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// TotalSize returns the summed content size in bytes
func (f FileSet) TotalSize() int64 {
	var total int64
	for _, content := range f {
		total += int64(len(content))
	}
	return total
}

// Clone returns a deep copy of the file set
func (f FileSet) Clone() FileSet {
	out := make(FileSet, len(f))
	for p, content := range f {
		c := make([]byte, len(content))
		copy(c, content)
		out[p] = c
	}
	return out
}

// FileSetFromStrings converts the JSON boundary shape (path -> string) into
// a FileSet
func FileSetFromStrings(in map[string]string) FileSet {
	out := make(FileSet, len(in))
	for p, content := range in {
		out[p] = []byte(content)
	}
	return out
}

// Strings converts the file set back to the JSON boundary shape
func (f FileSet) Strings() map[string]string {
	out := make(map[string]string, len(f))
	for p, content := range f {
		out[p] = string(content)
	}
	return out
}
