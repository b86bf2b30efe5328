// Package diff computes structured change summaries and unified diff text
// between two generation file sets. Computation is a pure function of the
// two maps; no I/O happens here.
package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/lyzr/genstore/common/models"
)

// DefaultContext is the number of context lines in unified hunks
const DefaultContext = 3

// Result describes the change set between two file sets
type Result struct {
	AddedPaths     []string
	RemovedPaths   []string
	ModifiedPaths  []string
	UnchangedPaths []string

	// Per-file unified diffs concatenated with file-path headers
	UnifiedDiff string

	Summary models.ChangesSummary
}

// Engine generates diffs between stored versions
type Engine struct {
	context int
}

// NewEngine creates a diff engine with the default hunk context
func NewEngine() *Engine {
	return &Engine{context: DefaultContext}
}

// Compute classifies every path across the two file sets and renders
// unified diff text for content changes. Modification is a byte-equality
// check, not a semantic one.
func (e *Engine) Compute(from, to models.FileSet) *Result {
	result := &Result{}

	for _, path := range to.Paths() {
		if _, ok := from[path]; !ok {
			result.AddedPaths = append(result.AddedPaths, path)
		}
	}

	for _, path := range from.Paths() {
		newContent, ok := to[path]
		if !ok {
			result.RemovedPaths = append(result.RemovedPaths, path)
			continue
		}
		if string(from[path]) == string(newContent) {
			result.UnchangedPaths = append(result.UnchangedPaths, path)
		} else {
			result.ModifiedPaths = append(result.ModifiedPaths, path)
		}
	}

	result.Summary = models.ChangesSummary{
		Added:    len(result.AddedPaths),
		Removed:  len(result.RemovedPaths),
		Modified: len(result.ModifiedPaths),
	}
	result.UnifiedDiff = e.renderUnified(from, to, result)

	return result
}

// renderUnified concatenates per-file patches in a stable order: modified
// files first, then additions, then removals
func (e *Engine) renderUnified(from, to models.FileSet, result *Result) string {
	var sb strings.Builder

	for _, path := range result.ModifiedPaths {
		sb.WriteString(e.unified("a/"+path, "b/"+path, from[path], to[path]))
	}
	for _, path := range result.AddedPaths {
		sb.WriteString(e.unified("/dev/null", "b/"+path, nil, to[path]))
	}
	for _, path := range result.RemovedPaths {
		sb.WriteString(e.unified("a/"+path, "/dev/null", from[path], nil))
	}

	return sb.String()
}

func (e *Engine) unified(fromName, toName string, a, b []byte) string {
	ud := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(string(a)),
		B:        splitLinesKeepNL(string(b)),
		FromFile: fromName,
		ToFile:   toName,
		Context:  e.context,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil || text == "" {
		// difflib only fails on writer errors, which cannot happen with the
		// string variant; keep the headers so the file is still accounted for
		return "--- " + fromName + "\n+++ " + toName + "\n"
	}
	return text
}

// splitLinesKeepNL splits into lines keeping the trailing newline on each
// element, which produces better unified hunks
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.SplitAfter(s, "\n")
}
